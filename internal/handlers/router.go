package handlers

import (
	"github.com/gin-gonic/gin"

	"treasure-hunt-backend/internal/middleware"
	"treasure-hunt-backend/internal/models"
	"treasure-hunt-backend/internal/services"
)

type RouterConfig struct {
	Engine       *services.GameEngine
	JWT          *services.JWTService
	Wallets      services.Wallets
	Transactions services.TransactionLog
	Journal      EventLister
	Limiter      services.RateLimiter
	Hub          *WebSocketHub
	// RemoteOracle mounts /api/oracle/fulfill. Leave it off when randomness
	// is delivered in process.
	RemoteOracle bool
}

func corsMiddleware(c *gin.Context) {
	c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
	c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

	if c.Request.Method == "OPTIONS" {
		c.AbortWithStatus(204)
		return
	}

	c.Next()
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	gameHandler := NewGameHandler(cfg.Engine, cfg.Wallets, cfg.Transactions, cfg.Journal)
	adminHandler := NewAdminHandler(cfg.Engine)
	oracleHandler := NewOracleHandler(cfg.Engine)
	wsHandler := NewWebSocketHandler(cfg.Engine, cfg.Hub)

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), corsMiddleware)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	players := middleware.RequireRole(models.RolePlayer, models.RoleAdmin)

	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(cfg.JWT))
	{
		protected.GET("/ws", wsHandler.HandleWebSocket)

		game := protected.Group("/game")
		game.Use(middleware.RateLimitMiddleware(cfg.Limiter))
		{
			game.POST("/participate", players, gameHandler.Participate)
			game.POST("/move", players, gameHandler.MakeMove)
			game.GET("/me", gameHandler.GetMe)
			game.GET("/verify", gameHandler.GetVerificationData)
			game.GET("/state", gameHandler.GetState)
			game.GET("/primes/:position", gameHandler.CheckPrime)
			game.GET("/events", gameHandler.GetEvents)
		}

		admin := protected.Group("/admin")
		admin.Use(middleware.RequireRole(models.RoleAdmin))
		{
			admin.POST("/treasure/adjacent", adminHandler.MoveTreasureToAdjacent)
			admin.POST("/treasure/random", adminHandler.MoveTreasureToRandom)
			admin.POST("/treasure/move", adminHandler.MoveTreasure)
			admin.DELETE("/treasure/pending", adminHandler.CancelPendingMove)
			admin.POST("/prize", adminHandler.SendPrize)
		}

		if cfg.RemoteOracle {
			oracle := protected.Group("/oracle")
			oracle.Use(middleware.RequireRole(models.RoleOracle))
			{
				oracle.POST("/fulfill", oracleHandler.Fulfill)
			}
		}
	}

	return router
}
