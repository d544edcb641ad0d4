// File path: internal/session/config.go
package session

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config controls the session database connection.
type Config struct {
	Path         string
	MaxOpenConns int
	MaxIdleConns int
	BusyTimeout  time.Duration
}

// LoadConfig builds the configuration from the environment, applying
// defaults for anything unset.
func LoadConfig() Config {
	cfg := Config{}
	if path := strings.TrimSpace(os.Getenv("SESSION_DB_PATH")); path != "" {
		cfg.Path = path
	}
	if raw := strings.TrimSpace(os.Getenv("SESSION_DB_MAX_OPEN_CONNS")); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.MaxOpenConns = value
		}
	}
	if raw := strings.TrimSpace(os.Getenv("SESSION_DB_MAX_IDLE_CONNS")); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.MaxIdleConns = value
		}
	}
	if raw := strings.TrimSpace(os.Getenv("SESSION_DB_BUSY_TIMEOUT")); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
			cfg.BusyTimeout = parsed
		}
	}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = 4
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = c.MaxOpenConns
	}
	if c.BusyTimeout <= 0 {
		c.BusyTimeout = 5 * time.Second
	}
}
