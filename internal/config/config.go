package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Backends accepted by DATA_BACKEND.
const (
	BackendSheets   = "sheets"
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

var validBackends = []string{BackendSheets, BackendMemory, BackendSQLite, BackendPostgres}

type Config struct {
	// HTTP Server
	Port               string   `envconfig:"PORT" default:"8081"`
	RateLimitPerMinute int      `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120"`
	LogLevel           string   `envconfig:"LOG_LEVEL" default:"info"`
	// Empty disables CORS handling.
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS"`
	CookieSecure       bool     `envconfig:"COOKIE_SECURE" default:"false"`

	// Backend selection
	DataBackend string `envconfig:"DATA_BACKEND" default:"sheets"`

	// Google Sheets
	GoogleSpreadsheet        string `envconfig:"GOOGLE_SPREADSHEET"`
	GoogleWorksheet          string `envconfig:"GOOGLE_WORKSHEET" default:"sheet1"`
	GoogleServiceAccountJSON string `envconfig:"GOOGLE_SERVICE_ACCOUNT_JSON"`
	GoogleServiceAccountFile string `envconfig:"GOOGLE_SERVICE_ACCOUNT_FILE"`

	// Database
	SQLiteDBPath string `envconfig:"SQLITE_DB_PATH" default:"./data/fintrack.db"`
	DatabaseURL  string `envconfig:"DATABASE_URL"`

	// Memory backend seed, a CSV export
	SeedFile string `envconfig:"SEED_FILE"`

	// Sessions
	RedisURL   string        `envconfig:"REDIS_URL"`
	SessionTTL time.Duration `envconfig:"SESSION_TTL" default:"24h"`

	// AMQP
	AMQPURL        string `envconfig:"AMQP_URL"`
	AMQPExchange   string `envconfig:"AMQP_EXCHANGE" default:"fintrack"`
	AMQPRoutingKey string `envconfig:"AMQP_ROUTING_KEY" default:"ledger.saved"`

	// Categories and reports
	CategoriesFile string `envconfig:"CATEGORIES_FILE"`
	ReportCurrency string `envconfig:"REPORT_CURRENCY" default:"Rs."`
}

// Load binds the environment onto a Config with defaults applied. It does
// not validate; call Validate on the result.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	return &cfg, nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case BackendSheets:
		if c.GoogleSpreadsheet == "" {
			errors = append(errors, "GOOGLE_SPREADSHEET is required when using sheets backend")
		}
		if c.GoogleWorksheet == "" {
			errors = append(errors, "GOOGLE_WORKSHEET cannot be empty when using sheets backend")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required when using postgres backend")
		}
	case BackendMemory:
		if c.SeedFile != "" {
			if _, err := os.Stat(c.SeedFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("seed file does not exist: %s", c.SeedFile))
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPRoutingKey == "" {
			errors = append(errors, "AMQP routing key cannot be empty when AMQP URL is provided")
		}
	}

	if c.RedisURL != "" {
		if parsedURL, err := url.Parse(c.RedisURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid Redis URL '%s': %v", c.RedisURL, err))
		} else if parsedURL.Scheme != "redis" && parsedURL.Scheme != "rediss" {
			errors = append(errors, fmt.Sprintf("invalid Redis URL scheme '%s': must be 'redis' or 'rediss'", parsedURL.Scheme))
		}
	}

	if c.SessionTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 second", c.SessionTTL))
	}

	if c.RateLimitPerMinute < 0 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must not be negative", c.RateLimitPerMinute))
	}

	if c.CategoriesFile != "" {
		if _, err := os.Stat(c.CategoriesFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("categories file does not exist: %s", c.CategoriesFile))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}
