// Package config loads runtime settings from the environment.
//
// An optional .env file in the working directory is read first (values
// already present in the environment win), then each variable is parsed
// with a default. A value that is set but unparseable is an error rather
// than a silent fallback: a typo in PAGE_SIZE should stop the server, not
// quietly serve ten rows.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/sakif/user-directory/internal/usersource"
)

// Config holds settings for both binaries. Each reads the fields it needs.
type Config struct {
	// Directory web UI
	Port          int
	PageSize      int
	Debounce      time.Duration
	SessionTTL    time.Duration
	MaxSessions   int
	SourceURL     string
	SourceTimeout time.Duration
	SourceRate    float64
	SourceBurst   int

	// Local sample API
	SampleAPIPort int
	DBPath        string
	SampleUsers   int

	LogLevel slog.Level
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: reading .env: %w", err)
	}
	return FromEnv()
}

// FromEnv parses the environment without touching .env.
func FromEnv() (*Config, error) {
	p := &parser{}
	cfg := &Config{
		Port:          p.integer("PORT", 8080, 1),
		PageSize:      p.integer("PAGE_SIZE", 10, 1),
		Debounce:      p.duration("SEARCH_DEBOUNCE", 300*time.Millisecond),
		SessionTTL:    p.duration("SESSION_TTL", 30*time.Minute),
		MaxSessions:   p.integer("MAX_SESSIONS", 1000, 0),
		SourceURL:     p.str("USER_SOURCE_URL", usersource.DefaultBaseURL),
		SourceTimeout: p.duration("SOURCE_TIMEOUT", 10*time.Second),
		SourceRate:    p.float("SOURCE_RATE_LIMIT", 5),
		SourceBurst:   p.integer("SOURCE_RATE_BURST", 5, 1),
		SampleAPIPort: p.integer("SAMPLE_API_PORT", 8081, 1),
		DBPath:        p.str("DB_PATH", "data/users.db"),
		SampleUsers:   p.integer("SAMPLE_USERS", 1000, 0),
		LogLevel:      p.level("LOG_LEVEL", slog.LevelInfo),
	}
	if err := errors.Join(p.errs...); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// SourceConfig returns the settings for the remote user source client.
func (c *Config) SourceConfig() usersource.Config {
	return usersource.Config{
		BaseURL:   c.SourceURL,
		Timeout:   c.SourceTimeout,
		RateLimit: c.SourceRate,
		RateBurst: c.SourceBurst,
	}
}

// Logger builds the process-wide structured logger.
func (c *Config) Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: c.LogLevel,
	}))
}

// parser collects every bad variable so one run reports them all.
type parser struct {
	errs []error
}

func (p *parser) str(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func (p *parser) integer(key string, def, lo int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v) // Atoi = ASCII to Integer
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not an integer", key, v))
		return def
	}
	if n < lo {
		p.errs = append(p.errs, fmt.Errorf("%s: must be at least %d, got %d", key, lo, n))
		return def
	}
	return n
}

func (p *parser) float(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not a non-negative number", key, v))
		return def
	}
	return f
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not a positive duration", key, v))
		return def
	}
	return d
}

func (p *parser) level(key string, def slog.Level) slog.Level {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(v)); err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not a log level", key, v))
		return def
	}
	return lvl
}
