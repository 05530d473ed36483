package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MAIL_TO", "a@example.com, b@example.com")
	t.Setenv("MAIL_CC", "c@example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultTargetURL, cfg.TargetURL)
	assert.Equal(t, time.Minute, cfg.PollInterval)
	assert.Equal(t, 15*time.Second, cfg.FetchTimeout)
	assert.Equal(t, time.Second, cfg.FetchRate)
	assert.Equal(t, 2, cfg.FetchBurst)
	assert.Equal(t, "file", cfg.StateBackend)
	assert.Equal(t, "review_data", cfg.StateKey)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.MailTo)
	assert.Equal(t, []string{"c@example.com"}, cfg.MailCc)
	assert.Equal(t, "Có review mới của Yes4All", cfg.MailSubject)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MAIL_TO", "a@example.com")
	t.Setenv("POLL_INTERVAL", "5")
	t.Setenv("STATE_BACKEND", "SQLite")
	t.Setenv("DATABASE_URL", "file:state.db")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("NOISE_PATTERNS", "foo\n  \nbar\\d+")
	t.Setenv("FETCH_RATE", "30")
	t.Setenv("FETCH_BURST", "1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.PollInterval)
	assert.Equal(t, "sqlite", cfg.StateBackend)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, []string{"foo", `bar\d+`}, cfg.NoisePatterns)
	assert.Equal(t, 30*time.Second, cfg.FetchRate)
	assert.Equal(t, 1, cfg.FetchBurst)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]map[string]string{
		"no recipients":       {},
		"bad interval":        {"MAIL_TO": "a@example.com", "POLL_INTERVAL": "soon"},
		"zero interval":       {"MAIL_TO": "a@example.com", "POLL_INTERVAL": "0"},
		"unknown backend":     {"MAIL_TO": "a@example.com", "STATE_BACKEND": "s3"},
		"postgres without db": {"MAIL_TO": "a@example.com", "STATE_BACKEND": "postgres"},
		"zero fetch burst":    {"MAIL_TO": "a@example.com", "FETCH_BURST": "0"},
		"bad fetch rate":      {"MAIL_TO": "a@example.com", "FETCH_RATE": "fast"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("MAIL_TO", "")
			t.Setenv("DATABASE_URL", "")
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
