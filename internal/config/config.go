// Package config defines the configuration structure for the ClaimBridge
// service.  No I/O or parsing logic lives here, only plain data types and
// validation.
package config

import (
	"fmt"
	"time"

	"github.com/turtacn/ClaimBridge/internal/application/claims"
	"github.com/turtacn/ClaimBridge/internal/infrastructure/database/postgres"
	"github.com/turtacn/ClaimBridge/internal/infrastructure/database/redis"
	"github.com/turtacn/ClaimBridge/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/ClaimBridge/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClaimBridge/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ClaimBridge/internal/infrastructure/storage/minio"
)

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

// AuthConfig holds bearer-token authentication parameters.
type AuthConfig struct {
	// Tokens maps bearer token values to the identity they authenticate.
	// Static token auth is sufficient for the current deployment; swap the
	// TokenValidator implementation for OIDC when the admin portal lands.
	AdminTokens map[string]string `mapstructure:"admin_tokens"`
	UserHeader  string            `mapstructure:"user_header"`
}

// Config is the root configuration for the service.  Infrastructure sections
// reuse the config structs owned by the packages that consume them.
type Config struct {
	Server        ServerConfig               `mapstructure:"server"`
	Database      postgres.Config            `mapstructure:"database"`
	Redis         redis.Config               `mapstructure:"redis"`
	Kafka         kafka.ProducerConfig       `mapstructure:"kafka"`
	MinIO         minio.Config               `mapstructure:"minio"`
	Log           logging.Config             `mapstructure:"log"`
	Metrics       prometheus.CollectorConfig `mapstructure:"metrics"`
	Dispatch      claims.DispatcherConfig    `mapstructure:"dispatch"`
	Auth          AuthConfig                 `mapstructure:"auth"`
	MigrationsDir string                     `mapstructure:"migrations_dir"`

	// CacheDisabled bypasses the Redis read-through layer for item lookups.
	// Zero value keeps caching on.
	CacheDisabled bool `mapstructure:"cache_disabled"`
}

// Validate performs semantic validation of the fully-populated Config.  It
// returns the first error encountered; any error is fatal at startup.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("config: database.host is required")
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("config: database.port %d is out of range [1, 65535]", c.Database.Port)
	}
	if c.Database.Database == "" {
		return fmt.Errorf("config: database.database is required")
	}
	if c.Database.Username == "" {
		return fmt.Errorf("config: database.username is required")
	}

	if c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required")
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("config: redis.db must not be negative, got %d", c.Redis.DB)
	}

	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
	}

	if c.MinIO.Endpoint == "" {
		return fmt.Errorf("config: minio.endpoint is required")
	}

	if c.Dispatch.AdminID == "" {
		return fmt.Errorf("config: dispatch.admin_id is required")
	}

	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	if c.Metrics.Namespace == "" {
		return fmt.Errorf("config: metrics.namespace is required")
	}

	return nil
}
