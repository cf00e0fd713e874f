package services_test

import (
	"errors"
	"testing"
	"time"

	"treasure-hunt-backend/internal/config"
	"treasure-hunt-backend/internal/models"
	"treasure-hunt-backend/internal/services"
)

func TestJWTRoundTrip(t *testing.T) {
	jwtService := services.NewJWTService(&config.Config{
		JWTSecret: "test-secret",
		JWTIssuer: "treasure-hunt",
		TokenTTL:  time.Hour,
	})

	token, err := jwtService.GenerateToken("0xabc", models.RoleAdmin)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	claims, err := jwtService.ValidateToken(token)
	if err != nil {
		t.Fatalf("Failed to validate token: %v", err)
	}
	if claims.Account != "0xabc" || claims.Role != models.RoleAdmin {
		t.Errorf("Unexpected claims %+v", claims)
	}
}

func TestJWTRejectsForeignTokens(t *testing.T) {
	issuer := services.NewJWTService(&config.Config{JWTSecret: "secret-a", JWTIssuer: "treasure-hunt", TokenTTL: time.Hour})
	other := services.NewJWTService(&config.Config{JWTSecret: "secret-b", JWTIssuer: "treasure-hunt", TokenTTL: time.Hour})
	defaulted := services.NewJWTService(&config.Config{JWTSecret: "secret-a", JWTIssuer: "treasure-hunt", TokenTTL: -time.Hour})

	token, _ := issuer.GenerateToken("user1", models.RolePlayer)
	if _, err := other.ValidateToken(token); !errors.Is(err, services.ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken for a different key, got %v", err)
	}

	if _, err := issuer.ValidateToken("not-a-token"); !errors.Is(err, services.ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken for garbage, got %v", err)
	}

	// A negative TTL falls back to the default, so the token is still valid.
	token, _ = defaulted.GenerateToken("user1", models.RolePlayer)
	if _, err := issuer.ValidateToken(token); err != nil {
		t.Errorf("Expected default TTL to apply, got %v", err)
	}

	if _, err := issuer.GenerateToken("user1", models.Role("root")); err == nil {
		t.Error("Expected unknown role to be rejected")
	}
}
