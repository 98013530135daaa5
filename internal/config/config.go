// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
)

const defaultServiceSecret = "dev-service-secret-change-in-production"

type Config struct {
	Server    ServerConfig
	Backend   BackendConfig
	Cache     CacheConfig
	Auth      AuthConfig
	Database  DatabaseConfig
	Upload    UploadConfig
	Telemetry TelemetryConfig
	DevAPI    DevAPIConfig
}

type ServerConfig struct {
	HTTPPort        string        `env:"HTTP_PORT" envDefault:"8080"`
	GRPCPort        string        `env:"GRPC_PORT" envDefault:"50051"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	// EnableReflection registers gRPC reflection on the health listener.
	EnableReflection bool `env:"GRPC_REFLECTION" envDefault:"false"`
}

// BackendConfig locates the task REST backend.
type BackendConfig struct {
	BaseURL     string        `env:"BACKEND_URL" envDefault:"http://localhost:8081"`
	Timeout     time.Duration `env:"BACKEND_TIMEOUT" envDefault:"10s"`
	ServiceName string        `env:"BACKEND_SERVICE_NAME" envDefault:"taskdesk-web"`
}

type CacheConfig struct {
	StaleTime     time.Duration `env:"CACHE_STALE_TIME" envDefault:"5m"`
	GCTime        time.Duration `env:"CACHE_GC_TIME" envDefault:"10m"`
	SweepInterval time.Duration `env:"CACHE_SWEEP_INTERVAL" envDefault:"1m"`
}

// AuthConfig holds the shared secret for service tokens.
type AuthConfig struct {
	ServiceSecret string        `env:"SERVICE_TOKEN_SECRET" envDefault:"dev-service-secret-change-in-production"`
	TokenDuration time.Duration `env:"SERVICE_TOKEN_DURATION" envDefault:"15m"`
}

type DatabaseConfig struct {
	Driver   string `env:"DB_DRIVER" envDefault:"postgres"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     int    `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
	DBName   string `env:"DB_NAME" envDefault:"taskdesk"`
	SSLMode  string `env:"DB_SSL_MODE" envDefault:"disable"`
	// Path is the database file when Driver is sqlite.
	Path string `env:"DB_PATH" envDefault:"taskdesk.db"`
}

type UploadConfig struct {
	MaxBytes int64  `env:"UPLOAD_MAX_BYTES" envDefault:"10485760"`
	Dir      string `env:"UPLOAD_DIR" envDefault:"data/uploads"`
}

type TelemetryConfig struct {
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"taskdesk"`
	// Endpoint is the OTLP/HTTP collector; empty disables export.
	Endpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// DevAPIConfig configures the development backend binary.
type DevAPIConfig struct {
	HTTPPort    string `env:"DEVAPI_HTTP_PORT" envDefault:"8081"`
	GRPCPort    string `env:"DEVAPI_GRPC_PORT" envDefault:"50052"`
	Seed        bool   `env:"DEVAPI_SEED" envDefault:"true"`
	AutoMigrate bool   `env:"DEVAPI_AUTO_MIGRATE" envDefault:"true"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// ValidateConfig checks settings that depend on each other.
func (c *Config) ValidateConfig() error {
	var errs []error

	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("BACKEND_URL must be an absolute URL, got %q", c.Backend.BaseURL))
	}
	if c.Auth.ServiceSecret == "" {
		errs = append(errs, errors.New("SERVICE_TOKEN_SECRET is required"))
	}
	if !c.IsDevelopment() && c.Auth.ServiceSecret == defaultServiceSecret {
		errs = append(errs, errors.New("SERVICE_TOKEN_SECRET must be changed outside development"))
	}
	if c.Auth.TokenDuration <= 0 {
		errs = append(errs, errors.New("SERVICE_TOKEN_DURATION must be positive"))
	}
	if c.Cache.StaleTime <= 0 || c.Cache.GCTime <= 0 {
		errs = append(errs, errors.New("cache stale and GC times must be positive"))
	}
	if c.Upload.MaxBytes <= 0 {
		errs = append(errs, errors.New("UPLOAD_MAX_BYTES must be positive"))
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.Database.Driver))
	}

	return errors.Join(errs...)
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// DSN returns the data source name for the configured driver.
func (d DatabaseConfig) DSN() string {
	if d.Driver == "sqlite" {
		return d.Path
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}
