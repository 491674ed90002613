package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

var ErrMissingSetting = errors.New("missing_setting")

type ServerConfig struct {
	HTTPAddr      string `env:"HTTP_ADDR" envDefault:":8080"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`

	StoreDriver   string `env:"STORE_DRIVER" envDefault:"memory"`
	PostgresDSN   string `env:"POSTGRES_DSN"`
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	AdminAPIKey string   `env:"ADMIN_API_KEY"`
	AdminUIDs   []string `env:"ADMIN_UIDS" envSeparator:","`
	SuperUIDs   []string `env:"SUPER_UIDS" envSeparator:","`

	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"10m"`

	EntitlementSecret  string `env:"ENTITLEMENT_SECRET"`
	RequireEntitlement bool   `env:"REQUIRE_ENTITLEMENT" envDefault:"false"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	switch cfg.StoreDriver {
	case StoreMemory, StoreRedis:
	case StorePostgres:
		if cfg.PostgresDSN == "" {
			return cfg, fmt.Errorf("%w: POSTGRES_DSN is required for store driver postgres", ErrMissingSetting)
		}
	default:
		return cfg, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	if cfg.RequireEntitlement && cfg.EntitlementSecret == "" {
		return cfg, fmt.Errorf("%w: ENTITLEMENT_SECRET is required when REQUIRE_ENTITLEMENT is set", ErrMissingSetting)
	}
	return cfg, nil
}
