// Package config loads server settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"strconv"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

// Message store backends
const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
)

// Config is the server configuration
type Config struct {
	Host           string        `env:"HOST,default=0.0.0.0"`
	JWTSecret      string        `env:"JWT_SECRET,required=true"`
	DBPath         string        `env:"DB_PATH,default=gophchat.db"`
	MessageBackend string        `env:"MESSAGE_BACKEND,default=sqlite"`
	BadgerPath     string        `env:"BADGER_PATH,default=data/messages"`
	MediaDir       string        `env:"MEDIA_DIR,default=data/media"`
	MediaBaseURL   string        `env:"MEDIA_BASE_URL"` // пусто: относительные URL
	LogLevel       string        `env:"LOG_LEVEL,default=info"`
	TokenTTL       time.Duration `env:"TOKEN_TTL,default=168h"`
	RateWindow     time.Duration `env:"RATE_WINDOW,default=1m"`
	MaxUploadBytes int64         `env:"MAX_UPLOAD_BYTES,default=5242880"`
	Port           int           `env:"PORT,default=8080"`
	RateLimit      int           `env:"RATE_LIMIT,default=10"` // запросов на signup/login за окно с одного IP
	SendBuffer     int           `env:"SEND_BUFFER,default=64"`
	CookieSecure   bool          `env:"COOKIE_SECURE,default=false"`
}

// Load reads .env files (missing ones are skipped) and then the process environment.
// Variables already set in the environment win over .env values.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	es, err := env.EnvironToEnvSet(os.Environ())
	if err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	return Parse(es)
}

// Parse builds a Config from an explicit variable set and validates it
func Parse(es env.EnvSet) (*Config, error) {
	var cfg Config
	if err := env.Unmarshal(es, &cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks value ranges that struct tags cannot express
func (c *Config) Validate() error {
	var errs []error

	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET must not be empty"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT out of range: %d", c.Port))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL))
	}
	switch c.MessageBackend {
	case BackendSQLite, BackendBadger:
	default:
		errs = append(errs, fmt.Errorf("MESSAGE_BACKEND must be %q or %q, got %q", BackendSQLite, BackendBadger, c.MessageBackend))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.MaxUploadBytes))
	}
	if c.RateLimit <= 0 || c.RateWindow <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT and RATE_WINDOW must be positive"))
	}
	if c.SendBuffer <= 0 {
		errs = append(errs, fmt.Errorf("SEND_BUFFER must be positive, got %d", c.SendBuffer))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// SlogLevel parses LOG_LEVEL (debug, info, warn, error)
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// MaxBodyBytes is the request body limit for routes that carry images.
// Base64 inflates payloads by 4/3, plus room for the JSON envelope.
func (c *Config) MaxBodyBytes() int64 {
	return c.MaxUploadBytes*4/3 + 4096
}
