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
)

const DefaultTargetURL = "https://reviewscongty.me/company/cong-ty-tnhh-dich-vu-thuong-mai-yesall?sort_by=latest"

// Config holds the application configuration. It is read once at start-up.
type Config struct {
	TargetURL       string
	PollInterval    time.Duration
	FetchTimeout    time.Duration
	FetchRate       time.Duration
	FetchBurst      int
	UserAgent       string
	CounterSelector string
	DetailSelector  string
	NoisePatterns   []string

	StateBackend  string
	StateDir      string
	StateKey      string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string

	MailSubject     string
	MailFromName    string
	MailFromAddress string
	MailTo          []string
	MailCc          []string

	Port     string
	LogLevel slog.Level
}

// Load reads the environment, seeded from a .env file when one exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	pollInterval, err := strconv.Atoi(getEnv("POLL_INTERVAL", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid POLL_INTERVAL: %w", err)
	}
	fetchTimeout, err := strconv.Atoi(getEnv("FETCH_TIMEOUT", "15"))
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_TIMEOUT: %w", err)
	}
	fetchRate, err := strconv.Atoi(getEnv("FETCH_RATE", "1"))
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_RATE: %w", err)
	}
	fetchBurst, err := strconv.Atoi(getEnv("FETCH_BURST", "2"))
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_BURST: %w", err)
	}
	smtpPort, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}
	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	cfg := &Config{
		TargetURL:       getEnv("TARGET_URL", DefaultTargetURL),
		PollInterval:    time.Duration(pollInterval) * time.Second,
		FetchTimeout:    time.Duration(fetchTimeout) * time.Second,
		FetchRate:       time.Duration(fetchRate) * time.Second,
		FetchBurst:      fetchBurst,
		UserAgent:       getEnv("USER_AGENT", "review-monitor-bot/1.0"),
		CounterSelector: getEnv("COUNTER_SELECTOR", ""),
		DetailSelector:  getEnv("DETAIL_SELECTOR", ""),
		NoisePatterns:   splitLines(os.Getenv("NOISE_PATTERNS")),

		StateBackend:  strings.ToLower(getEnv("STATE_BACKEND", "file")),
		StateDir:      getEnv("STATE_DIR", "."),
		StateKey:      getEnv("STATE_KEY", "review_data"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,

		SMTPHost:     getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:     smtpPort,
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),

		MailSubject:     getEnv("MAIL_SUBJECT", "Có review mới của Yes4All"),
		MailFromName:    getEnv("MAIL_FROM_NAME", "Review Yes4All"),
		MailFromAddress: getEnv("MAIL_FROM_ADDRESS", "reviewyes4all@review.com"),
		MailTo:          splitList(os.Getenv("MAIL_TO")),
		MailCc:          splitList(os.Getenv("MAIL_CC")),

		Port:     getEnv("PORT", "8080"),
		LogLevel: level,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.TargetURL == "" {
		return errors.New("TARGET_URL is required")
	}
	if c.PollInterval <= 0 {
		return errors.New("POLL_INTERVAL must be positive")
	}
	if c.FetchRate <= 0 || c.FetchBurst <= 0 {
		return errors.New("FETCH_RATE and FETCH_BURST must be positive")
	}
	if len(c.MailTo) == 0 {
		return errors.New("MAIL_TO needs at least one recipient")
	}
	switch c.StateBackend {
	case "file":
	case "postgres", "sqlite":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for %s state", c.StateBackend)
		}
	case "redis":
		if c.RedisAddr == "" {
			return errors.New("REDIS_ADDR is required for redis state")
		}
	default:
		return fmt.Errorf("unknown STATE_BACKEND %q", c.StateBackend)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func splitLines(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
