package services

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"treasure-hunt-backend/internal/config"
	"treasure-hunt-backend/internal/models"
)

var ErrInvalidToken = errors.New("invalid or expired token")

type Claims struct {
	Account string      `json:"account"`
	Role    models.Role `json:"role"`
	jwt.RegisteredClaims
}

type JWTService struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func NewJWTService(cfg *config.Config) *JWTService {
	secret := []byte(cfg.JWTSecret)
	if len(secret) == 0 {
		log.Println("JWT_SECRET not set, using an ephemeral signing key")
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			panic(fmt.Sprintf("failed to generate signing key: %v", err))
		}
	}

	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &JWTService{
		secret: secret,
		issuer: cfg.JWTIssuer,
		ttl:    ttl,
	}
}

func (s *JWTService) GenerateToken(account string, role models.Role) (string, error) {
	if account == "" {
		return "", fmt.Errorf("account is required")
	}
	if !role.Valid() {
		return "", fmt.Errorf("unknown role: %q", role)
	}

	now := time.Now()
	claims := Claims{
		Account: account,
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    s.issuer,
			Subject:   account,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	var claims Claims

	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.Account == "" || !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: missing account or role", ErrInvalidToken)
	}

	return &claims, nil
}
