package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"treasure-hunt-backend/internal/config"
	"treasure-hunt-backend/internal/handlers"
	"treasure-hunt-backend/internal/oracle"
	"treasure-hunt-backend/internal/services"
	"treasure-hunt-backend/internal/store"
	"treasure-hunt-backend/internal/telemetry"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.OTLPEndpoint != "" {
		shutdown, err := telemetry.Setup(ctx)
		if err != nil {
			log.Fatalf("Failed to set up tracing: %v", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				log.Printf("Failed to flush traces: %v", err)
			}
		}()
	}

	var (
		wallets      services.Wallets
		transactions services.TransactionLog
		limiter      services.RateLimiter
		stateStore   services.StateStore
	)

	if cfg.RedisURL != "" {
		redisService, err := services.NewRedisService(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisService.Close()

		wallets, transactions, limiter, stateStore = redisService, redisService, redisService, redisService
	} else {
		log.Println("REDIS_URL not set, keeping wallets and game state in memory")
		memory := services.NewMemoryWallets(cfg.StartingBalance)
		wallets, transactions = memory, memory
	}

	var port oracle.Port
	var coordinator *oracle.Coordinator
	switch cfg.OracleMode {
	case "external":
		port = oracle.NewExternal(cfg.OracleID)
	default:
		coordinator = oracle.NewCoordinator(cfg.OracleID, []byte(cfg.OracleSecret), cfg.OracleDelay)
		port = coordinator
		log.Printf("Local oracle %s secret hash: %s", cfg.OracleID, coordinator.SecretHash())
	}

	gameEngine := services.NewGameEngine(services.EngineConfig{
		EntryFee:         cfg.EntryFee,
		Seed:             cfg.GameSeed,
		AutoPayout:       cfg.AutoPayout,
		AutoMoveTreasure: cfg.AutoMoveTreasure,
	}, port, wallets)
	log.Printf("Game seed hash: %s", gameEngine.SeedHash())

	if stateStore != nil {
		snapshot, err := stateStore.LoadSnapshot(ctx)
		if err != nil {
			log.Fatalf("Failed to load game state: %v", err)
		}
		if snapshot != nil {
			if err := gameEngine.Restore(snapshot); err != nil {
				log.Fatalf("Failed to restore game state: %v", err)
			}
			log.Printf("Restored game: %d players, treasure at %d, last request %d",
				len(snapshot.Players), snapshot.Treasure, snapshot.LastRequestID)
		}
		gameEngine.SetStore(stateStore)
	}

	journal, err := store.Open(cfg.JournalPath)
	if err != nil {
		log.Fatalf("Failed to open event journal: %v", err)
	}
	defer journal.Close()
	gameEngine.SetRecorder(journal)
	gameEngine.SetTransactionLog(transactions)

	hub := handlers.NewWebSocketHub()
	defer hub.Close()
	gameEngine.SetBroadcaster(hub)

	if coordinator != nil {
		coordinator.Subscribe(gameEngine)
		defer func() {
			coordinator.Close()
			coordinator.Wait()
		}()
	}

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				gameEngine.ExpirePendingRequest(ctx, cfg.PendingTTL)
			case <-ctx.Done():
				return
			}
		}
	}()

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		Engine:       gameEngine,
		JWT:          services.NewJWTService(cfg),
		Wallets:      wallets,
		Transactions: transactions,
		Journal:      journal,
		Limiter:      limiter,
		Hub:          hub,
		RemoteOracle: cfg.OracleMode == "external",
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown: %v", err)
		}
	}()

	log.Printf("Server starting on port %s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Failed to start server: %v", err)
	}
}
