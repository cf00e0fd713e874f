package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"treasure-hunt-backend/internal/config"
	"treasure-hunt-backend/internal/middleware"
	"treasure-hunt-backend/internal/models"
	"treasure-hunt-backend/internal/services"
)

type countingLimiter struct {
	calls map[string]int
}

func (l *countingLimiter) CheckRateLimit(ctx context.Context, account, action string, limit int, window time.Duration) (bool, error) {
	key := account + ":" + action
	l.calls[key]++
	return l.calls[key] <= limit, nil
}

func setupRouter(t *testing.T, limiter services.RateLimiter) (*gin.Engine, *services.JWTService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwtService := services.NewJWTService(&config.Config{JWTSecret: "test-secret", JWTIssuer: "treasure-hunt", TokenTTL: time.Hour})

	router := gin.New()
	api := router.Group("/api")
	api.Use(middleware.AuthMiddleware(jwtService), middleware.RateLimitMiddleware(limiter))
	api.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"account": c.GetString("account"), "role": c.GetString("role")})
	})
	api.POST("/game/move", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	api.POST("/admin/only", middleware.RequireRole(models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	return router, jwtService
}

func request(router *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	router, jwtService := setupRouter(t, nil)
	token, _ := jwtService.GenerateToken("user1", models.RolePlayer)

	if w := request(router, http.MethodGet, "/api/whoami", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", w.Code)
	}
	if w := request(router, http.MethodGet, "/api/whoami", "garbage"); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 with bad token, got %d", w.Code)
	}

	w := request(router, http.MethodGet, "/api/whoami", token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if body := w.Body.String(); body != `{"account":"user1","role":"player"}` {
		t.Errorf("Unexpected body %s", body)
	}

	if w := request(router, http.MethodGet, "/api/whoami?token="+token, ""); w.Code != http.StatusOK {
		t.Errorf("Expected query token to be accepted, got %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
	req.Header.Set("Authorization", "Basic abc")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for non-bearer scheme, got %d", w.Code)
	}
}

func TestRequireRole(t *testing.T) {
	router, jwtService := setupRouter(t, nil)
	player, _ := jwtService.GenerateToken("user1", models.RolePlayer)
	admin, _ := jwtService.GenerateToken("owner", models.RoleAdmin)

	if w := request(router, http.MethodPost, "/api/admin/only", player); w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for player, got %d", w.Code)
	}
	if w := request(router, http.MethodPost, "/api/admin/only", admin); w.Code != http.StatusOK {
		t.Errorf("Expected 200 for admin, got %d", w.Code)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := &countingLimiter{calls: map[string]int{}}
	router, jwtService := setupRouter(t, limiter)
	token, _ := jwtService.GenerateToken("user1", models.RolePlayer)

	for i := 0; i < services.DefaultRateLimitMoves; i++ {
		if w := request(router, http.MethodPost, "/api/game/move", token); w.Code != http.StatusOK {
			t.Fatalf("Move %d should be allowed, got %d", i+1, w.Code)
		}
	}
	if w := request(router, http.MethodPost, "/api/game/move", token); w.Code != http.StatusTooManyRequests {
		t.Errorf("Expected 429 after limit, got %d", w.Code)
	}

	if w := request(router, http.MethodGet, "/api/whoami", token); w.Code != http.StatusOK {
		t.Errorf("Unlimited route should pass, got %d", w.Code)
	}
}
