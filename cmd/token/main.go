// Command token mints a bearer token for local play and admin work.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"treasure-hunt-backend/internal/config"
	"treasure-hunt-backend/internal/models"
	"treasure-hunt-backend/internal/services"
)

func main() {
	account := flag.String("account", "", "account the token is issued to")
	role := flag.String("role", string(models.RolePlayer), "player, admin or oracle")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set so the server accepts the token")
	}

	token, err := services.NewJWTService(cfg).GenerateToken(*account, models.Role(*role))
	if err != nil {
		log.Fatalf("Failed to generate token: %v", err)
	}

	fmt.Println(token)
}
