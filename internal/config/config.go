package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath   string     `env:"DB_PATH" envDefault:"data/scoreboard.db"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	SPADir   string     `env:"SPA_DIR" envDefault:""`

	// AllowedOrigins restricts WebSocket handshakes; empty means any origin.
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	KeepaliveInterval time.Duration `env:"WS_KEEPALIVE_INTERVAL" envDefault:"25s"`
	WriteTimeout      time.Duration `env:"WS_WRITE_TIMEOUT" envDefault:"5s"`

	SeedDemo bool `env:"SEED_DEMO" envDefault:"false"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}
