package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int

	// Database
	SQLiteDBPath string

	// AMQP, disabled when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Message source
	MessageSource        string
	GmailCredentialsFile string
	GmailCredentialsJSON string
	GmailUser            string
	GmailQuery           string
	GmailMaxResults      int

	// Ingestion
	SyncInterval  time.Duration
	SeenCacheSize int
	SeenCacheTTL  time.Duration

	// Categorization and entry
	RulesFile         string
	CategoryMatchMode string
	DefaultCurrency   string
	Timezone          string

	LogLevel string
}

// Load reads a local .env file when present, then the environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:               getEnv("PORT", "8081"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/wallet.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "wallet"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "inbound_messages"),

		MessageSource:        getEnv("MESSAGE_SOURCE", "mock"),
		GmailCredentialsFile: getEnv("GMAIL_CREDENTIALS_FILE", ""),
		GmailCredentialsJSON: getEnv("GMAIL_CREDENTIALS_JSON", ""),
		GmailUser:            getEnv("GMAIL_USER", "me"),
		GmailQuery:           getEnv("GMAIL_QUERY", ""),
		GmailMaxResults:      getEnvInt("GMAIL_MAX_RESULTS", 25),

		SyncInterval:  getEnvDuration("SYNC_INTERVAL", 0),
		SeenCacheSize: getEnvInt("SEEN_CACHE_SIZE", 1024),
		SeenCacheTTL:  getEnvDuration("SEEN_CACHE_TTL", 24*time.Hour),

		RulesFile:         getEnv("RULES_FILE", ""),
		CategoryMatchMode: getEnv("CATEGORY_MATCH_MODE", "exact"),
		DefaultCurrency:   strings.ToUpper(getEnv("DEFAULT_CURRENCY", "SGD")),
		Timezone:          getEnv("TIMEZONE", "Local"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.RateLimitPerMinute < 0 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be zero (disabled) or positive", c.RateLimitPerMinute))
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
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
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	switch c.MessageSource {
	case "mock":
	case "gmail":
		hasFile := c.GmailCredentialsFile != ""
		hasJSON := c.GmailCredentialsJSON != ""
		if !hasFile && !hasJSON {
			errors = append(errors, "either GMAIL_CREDENTIALS_FILE or GMAIL_CREDENTIALS_JSON must be provided for the gmail source")
		}
		if hasFile {
			if _, err := os.Stat(c.GmailCredentialsFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Gmail credentials file does not exist: %s", c.GmailCredentialsFile))
			}
		}
		if c.GmailMaxResults < 1 || c.GmailMaxResults > 500 {
			errors = append(errors, fmt.Sprintf("invalid Gmail max results %d: must be between 1 and 500", c.GmailMaxResults))
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid message source '%s': must be one of [mock gmail]", c.MessageSource))
	}

	if c.SyncInterval != 0 && c.SyncInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be 0 (disabled) or at least 1 second", c.SyncInterval))
	} else if c.SyncInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at most 24 hours", c.SyncInterval))
	}

	if c.SeenCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid seen cache size %d: must be at least 1", c.SeenCacheSize))
	}
	if c.SeenCacheTTL <= 0 {
		errors = append(errors, fmt.Sprintf("invalid seen cache TTL %v: must be positive", c.SeenCacheTTL))
	}

	if c.RulesFile != "" {
		if _, err := os.Stat(c.RulesFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("rules file does not exist: %s", c.RulesFile))
		}
	}

	if c.CategoryMatchMode != "exact" && c.CategoryMatchMode != "contains" {
		errors = append(errors, fmt.Sprintf("invalid category match mode '%s': must be one of [exact contains]", c.CategoryMatchMode))
	}

	if len(c.DefaultCurrency) != 3 {
		errors = append(errors, fmt.Sprintf("invalid default currency '%s': must be a 3-letter code", c.DefaultCurrency))
	}

	if _, err := c.Location(); err != nil {
		errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of [debug info warn error]", c.LogLevel))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// Location resolves Timezone, in which manual entry dates are read.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
