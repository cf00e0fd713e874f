package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"treasure-hunt-backend/internal/models"
)

type Config struct {
	Env  string `env:"APP_ENV" envDefault:"development"`
	Port string `env:"PORT" envDefault:"8080"`

	// RedisURL empty means wallets and state live in memory only.
	RedisURL  string `env:"REDIS_URL"`
	RedisPass string `env:"REDIS_PASSWORD"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	JWTSecret string        `env:"JWT_SECRET"`
	JWTIssuer string        `env:"JWT_ISSUER" envDefault:"treasure-hunt"`
	TokenTTL  time.Duration `env:"JWT_TTL" envDefault:"24h"`

	EntryFeeETH        string `env:"ENTRY_FEE_ETH" envDefault:"0.001"`
	StartingBalanceETH string `env:"STARTING_BALANCE_ETH" envDefault:"0.01"`
	GameSeed           string `env:"GAME_SEED"`
	AutoPayout         bool   `env:"AUTO_PAYOUT" envDefault:"true"`
	AutoMoveTreasure   bool   `env:"AUTO_MOVE_TREASURE" envDefault:"false"`

	// OracleMode is "local" for the in-process coordinator or "external" when
	// randomness is posted to /api/oracle/fulfill.
	OracleMode   string        `env:"ORACLE_MODE" envDefault:"local"`
	OracleID     string        `env:"ORACLE_ID" envDefault:"local-vrf"`
	OracleSecret string        `env:"ORACLE_SECRET"`
	OracleDelay  time.Duration `env:"ORACLE_DELAY" envDefault:"2s"`
	PendingTTL   time.Duration `env:"PENDING_TTL" envDefault:"10m"`

	JournalPath  string `env:"JOURNAL_PATH" envDefault:"treasurehunt.db"`
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	EntryFee        int64
	StartingBalance int64
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.resolve(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) resolve() error {
	fee, err := models.ParseAmount(c.EntryFeeETH)
	if err != nil {
		return fmt.Errorf("ENTRY_FEE_ETH: %w", err)
	}
	if fee <= 0 {
		return fmt.Errorf("ENTRY_FEE_ETH must be positive")
	}
	c.EntryFee = fee

	balance, err := models.ParseAmount(c.StartingBalanceETH)
	if err != nil {
		return fmt.Errorf("STARTING_BALANCE_ETH: %w", err)
	}
	c.StartingBalance = balance

	if c.Env == "production" && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	if c.OracleMode != "local" && c.OracleMode != "external" {
		return fmt.Errorf("ORACLE_MODE must be local or external, got %q", c.OracleMode)
	}
	if c.PendingTTL <= 0 {
		return fmt.Errorf("PENDING_TTL must be positive")
	}

	return nil
}
