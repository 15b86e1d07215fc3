package main

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "FORM_ENDPOINT", "VISITOR_DB", "LOG_LEVEL", "SESSION_IDLE", "MAX_SESSIONS", "VISITOR_RETENTION"} {
		t.Setenv(k, "")
	}

	cfg := loadConfig()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "https://formspree.io/f/myzjprgj", cfg.FormEndpoint)
	assert.Equal(t, "visitors.db", cfg.VisitorDB)
	assert.True(t, cfg.TrackingEnabled())
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, 24*time.Hour, cfg.SessionIdle)
	assert.Equal(t, defaultMaxSessions, cfg.MaxSessions)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("FORM_ENDPOINT", "http://localhost:1234/f/test")
	t.Setenv("VISITOR_DB", "off")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SESSION_IDLE", "30m")
	t.Setenv("MAX_SESSIONS", "500")
	t.Setenv("VISITOR_RETENTION", "nonsense")

	cfg := loadConfig()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "http://localhost:1234/f/test", cfg.FormEndpoint)
	assert.False(t, cfg.TrackingEnabled())
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdle)
	assert.Equal(t, 500, cfg.MaxSessions)
	assert.Equal(t, 365*24*time.Hour, cfg.Retention)
}
