package main

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultFormEndpoint = "https://formspree.io/f/myzjprgj"

type Config struct {
	Port         string
	FormEndpoint string
	VisitorDB    string // "off" disables visitor tracking
	LogLevel     slog.Level
	SessionIdle  time.Duration
	MaxSessions  int
	Retention    time.Duration
}

func loadConfig() *Config {
	// .env is optional; in production the environment is set directly.
	_ = godotenv.Load()

	return &Config{
		Port:         getEnv("PORT", "8080"),
		FormEndpoint: getEnv("FORM_ENDPOINT", defaultFormEndpoint),
		VisitorDB:    getEnv("VISITOR_DB", "visitors.db"),
		LogLevel:     parseLevel(os.Getenv("LOG_LEVEL")),
		SessionIdle:  getDuration("SESSION_IDLE", 24*time.Hour),
		MaxSessions:  getInt("MAX_SESSIONS", defaultMaxSessions),
		Retention:    getDuration("VISITOR_RETENTION", 365*24*time.Hour),
	}
}

func (c *Config) TrackingEnabled() bool {
	return c.VisitorDB != "" && c.VisitorDB != "off"
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("invalid duration, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return d
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		slog.Warn("invalid integer, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return n
}

func parseLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupLogging installs a JSON slog default. ERROR records carry a stack.
func setupLogging(level slog.Level) {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(&stackHandler{Handler: h}))
}

type stackHandler struct {
	slog.Handler
}

func (h *stackHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		buf := make([]byte, 4096)
		n := runtime.Stack(buf, false)
		r.AddAttrs(slog.String("stacktrace", string(buf[:n])))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *stackHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &stackHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *stackHandler) WithGroup(name string) slog.Handler {
	return &stackHandler{Handler: h.Handler.WithGroup(name)}
}
