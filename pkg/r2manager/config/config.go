package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saifulislam80/r2-manager/pkg/r2manager"
	"github.com/saifulislam80/r2-manager/pkg/r2manager/cryptox"
	repomemory "github.com/saifulislam80/r2-manager/pkg/r2manager/repo/memory"
	repopg "github.com/saifulislam80/r2-manager/pkg/r2manager/repo/postgres"
	s3storage "github.com/saifulislam80/r2-manager/pkg/r2manager/storage/s3"
)

// ServerConfig represents server configuration for the R2 manager service
type ServerConfig struct {
	Port        string `env:"PORT" env-default:"3000"`
	Environment string `env:"ENVIRONMENT" env-default:"development"` // development, production, testing

	// Database configuration
	DatabaseURL  string `env:"DATABASE_URL"`
	DatabaseType string `env:"DATABASE_TYPE" env-default:"memory"` // "memory", "postgres"

	// Secrets
	JWTSecret     string `env:"JWT_SECRET"`
	EncryptionKey string `env:"ENCRYPTION_KEY"`

	// BaseURL is the public origin used when building upload link URLs,
	// e.g. "https://console.example.com".
	BaseURL string `env:"BASE_URL" env-default:"http://localhost:3000"`

	// CORSOrigin is the allowed browser origin for the API.
	CORSOrigin string `env:"CORS_ORIGIN" env-default:"http://localhost:5173"`

	// S3Endpoint overrides the per-account Cloudflare endpoint. Intended for
	// local development against MinIO.
	S3Endpoint string `env:"S3_ENDPOINT"`

	// ThrottleLimit caps concurrent in-flight requests. Zero disables it.
	ThrottleLimit int `env:"THROTTLE_LIMIT" env-default:"100"`
}

// Load reads configuration from the environment and validates it.
func Load() (*ServerConfig, error) {
	var cfg ServerConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	if c.DatabaseType != "memory" && c.DatabaseType != "postgres" {
		return errors.New("database_type must be 'memory' or 'postgres'")
	}

	if c.DatabaseType == "postgres" && c.DatabaseURL == "" {
		return errors.New("database_url is required when using postgres")
	}

	if c.JWTSecret == "" {
		return errors.New("jwt_secret is required")
	}

	if c.EncryptionKey == "" {
		return errors.New("encryption_key is required")
	}

	return nil
}

// BuildService creates a Service instance from the server configuration
func (c *ServerConfig) BuildService() (r2manager.Service, error) {
	repo, err := c.buildRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to build repository: %w", err)
	}

	cipher, err := cryptox.NewCipher(c.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to build credential cipher: %w", err)
	}

	return r2manager.New(
		r2manager.WithRepository(repo),
		r2manager.WithStoreFactory(c.buildStoreFactory()),
		r2manager.WithCredentialCipher(cipher),
		r2manager.WithPasswordHasher(cryptox.Argon2Hasher{}),
		r2manager.WithBaseURL(c.BaseURL),
	)
}

// buildRepository creates a Repository based on the configuration
func (c *ServerConfig) buildRepository() (r2manager.Repository, error) {
	switch c.DatabaseType {
	case "memory":
		return repomemory.New(), nil
	case "postgres":
		pool, err := pgxpool.New(context.Background(), c.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create pgx pool: %w", err)
		}
		return repopg.NewWithPool(pool), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

// buildStoreFactory creates the per-account object store factory. When
// S3Endpoint is set every account connects to that endpoint instead of its
// Cloudflare one.
func (c *ServerConfig) buildStoreFactory() r2manager.StoreFactory {
	return s3storage.NewFactory(s3storage.Config{Endpoint: c.S3Endpoint})
}

// PingPostgres verifies connectivity to Postgres. It is a startup check so
// a bad DATABASE_URL fails fast instead of on the first request.
func PingPostgres(databaseURL string) error {
	if databaseURL == "" {
		return errors.New("database_url is required")
	}
	pool, err := pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create pgx pool: %w", err)
	}
	defer pool.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}
