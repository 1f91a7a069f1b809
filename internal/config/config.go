package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
)

// Prefix is the environment variable prefix, e.g. STOCKPDV_DATABASE_URL.
const Prefix = "stockpdv"

// Config holds every runtime setting of the API.
type Config struct {
	DatabaseURL       string        `envconfig:"DATABASE_URL" required:"true"`
	Port              string        `envconfig:"APP_PORT" default:"8080"`
	JWTSecret         string        `envconfig:"JWT_SECRET" required:"true"`
	JWTTTL            time.Duration `envconfig:"JWT_TTL" default:"12h"`
	BusinessTimezone  string        `envconfig:"BUSINESS_TIMEZONE" default:"America/Sao_Paulo"`
	NearExpiryDays    int           `envconfig:"NEAR_EXPIRY_DAYS" default:"30"`
	HistoryLimit      int           `envconfig:"MOVEMENT_HISTORY_LIMIT" default:"1000"`
	LogLevel          string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat         string        `envconfig:"LOG_FORMAT" default:"text"`
	DBMaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"30"`
	DBMaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"8"`
	DBConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"30m"`
	ShutdownTimeout   time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"20s"`

	location *time.Location
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	loc, err := time.LoadLocation(c.BusinessTimezone)
	if err != nil {
		return fmt.Errorf("invalid BUSINESS_TIMEZONE %q: %w", c.BusinessTimezone, err)
	}
	c.location = loc
	if c.NearExpiryDays < 0 {
		return fmt.Errorf("NEAR_EXPIRY_DAYS must be >= 0, got %d", c.NearExpiryDays)
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = 1000
	}
	return nil
}

// Location returns the business time zone used for date-based reports.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// ConfigureLogger applies level and formatter settings to the standard logrus logger.
func (c *Config) ConfigureLogger() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.WithField("level", c.LogLevel).Warn("unknown log level, falling back to info")
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if c.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
		return
	}
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
}
