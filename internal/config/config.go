package config

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	DatabaseURL string        `env:"DATABASE_URL"`
	RedisURL    string        `env:"REDIS_URL, default=redis://localhost:6379/0"`
	JWTSecret   string        `env:"JWT_SECRET, required"`
	JWTExpiry   time.Duration `env:"JWT_EXPIRY, default=24h"`
	ServerPort  string        `env:"SERVER_PORT, default=:8080"`
	Environment string        `env:"ENVIRONMENT, default=development"`
	CORSOrigins []string      `env:"CORS_ORIGINS, default=http://localhost:5173"`

	// Rate limiting (auth endpoints)
	RateLimitMaxRequests int           `env:"RATE_LIMIT_MAX_REQUESTS, default=100"`
	RateLimitWindow      time.Duration `env:"RATE_LIMIT_WINDOW, default=1m"`
	RateLimitBlockTime   time.Duration `env:"RATE_LIMIT_BLOCK_TIME, default=5m"`
}

// IsProduction reports whether secure-only cookies and HSTS should be on.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func Load() *Config {
	// Try to load .env file, but don't fail if it doesn't exist
	// (Docker containers use environment variables directly)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using process environment")
	}

	cfg, err := LoadFrom(context.Background(), envconfig.OsLookuper())
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	return cfg
}

// LoadFrom resolves the configuration against an arbitrary lookuper.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}
	return &cfg, nil
}
