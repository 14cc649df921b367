package config

import (
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Auth       AuthConfig       `yaml:"auth"`
	Allocation AllocationConfig `yaml:"allocation"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port" validate:"min=1,max=65535"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec" validate:"gt=0"`
	RateLimitBurst  int     `yaml:"rate_limit_burst" validate:"min=1"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds" validate:"min=0"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver" validate:"required,oneof=postgres sqlite"`
	DSN                    string `yaml:"dsn" validate:"required"`
	MaxOpenConns           int    `yaml:"max_open_conns" validate:"min=0"`
	MaxIdleConns           int    `yaml:"max_idle_conns" validate:"min=0"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes" validate:"min=0"`
	LogLevel               string `yaml:"log_level" validate:"oneof=silent error warn info"`
}

// AuthConfig holds the settings used to verify identity tokens issued by the
// session layer.
type AuthConfig struct {
	JWTSecret       string `yaml:"jwt_secret" validate:"required,min=16"`
	Issuer          string `yaml:"issuer"`
	TokenTTLMinutes int    `yaml:"token_ttl_minutes" validate:"min=1"`
}

// AllocationConfig toggles how the allocation engine treats booking rows.
type AllocationConfig struct {
	// SyncBookings keeps booking status in step with bunk occupancy on swap and
	// cancellation approval. When false, booking rows are left untouched.
	SyncBookings        *bool `yaml:"sync_bookings"`
	EnforceRoomCapacity bool  `yaml:"enforce_room_capacity"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// Enabled reports whether both VAPID keys are configured.
func (p PushConfig) Enabled() bool {
	return p.PublicKey != "" && p.PrivateKey != ""
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size      int `yaml:"size" validate:"min=1"`
	QueueSize int `yaml:"queue_size" validate:"min=1"`
}

// LogConfig controls the application logger.
type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
	File  string `yaml:"file"`
}

var validate = validator.New()

// Load reads the configuration from the given path, applies defaults and
// validates the result.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds == 0 {
		cfg.Server.CacheTTLSeconds = 30
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.LogLevel == "" {
		cfg.Database.LogLevel = "warn"
	}

	if cfg.Auth.TokenTTLMinutes <= 0 {
		cfg.Auth.TokenTTLMinutes = 60
	}
	if cfg.Auth.Issuer == "" {
		cfg.Auth.Issuer = "hostel-allocation"
	}

	if cfg.Allocation.SyncBookings == nil {
		sync := true
		cfg.Allocation.SyncBookings = &sync
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}
	if cfg.WorkerPool.QueueSize <= 0 {
		cfg.WorkerPool.QueueSize = 64
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// Validate runs struct validation over the configuration.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// SyncBookings reports the effective allocation.sync_bookings value.
func (c *Config) SyncBookings() bool {
	return c.Allocation.SyncBookings == nil || *c.Allocation.SyncBookings
}
