package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

func main() {
	printStats := flag.Bool("stats", false, "print visitor statistics as JSON and exit")
	flag.Parse()

	cfg := loadConfig()
	setupLogging(cfg.LogLevel)
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	var visitors *VisitorStore
	if cfg.TrackingEnabled() {
		var err error
		visitors, err = OpenVisitorStore(context.Background(), cfg.VisitorDB)
		if err != nil {
			slog.Error("failed to open visitor store", "path", cfg.VisitorDB, "err", err)
			os.Exit(1)
		}
		defer visitors.Close()
	}

	if *printStats {
		if err := writeStats(visitors); err != nil {
			slog.Error("failed to export stats", "err", err)
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sessions := NewSessionStore(NewContactRelay(cfg.FormEndpoint, nil), cfg.MaxSessions)
	go sweepSessions(ctx, sessions, cfg.SessionIdle)
	if visitors != nil {
		go func() {
			// Privacy cleanup runs once at startup, like a cron on deploy.
			if _, err := visitors.Cleanup(ctx, cfg.Retention); err != nil {
				slog.Error("error cleaning up old visitor data", "err", err)
			}
		}()
	}

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: newRouter(&server{
			sessions: sessions,
			visitors: visitors,
			logger:   slog.Default(),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("listening", "addr", srv.Addr, "visitor_tracking", cfg.TrackingEnabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
	}
}

func sweepSessions(ctx context.Context, store *SessionStore, maxIdle time.Duration) {
	ticker := time.NewTicker(max(maxIdle/4, time.Second))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := store.Sweep(maxIdle); n > 0 {
				slog.Debug("swept idle sessions", "removed", n)
			}
		}
	}
}

func writeStats(visitors *VisitorStore) error {
	if visitors == nil {
		return errors.New("visitor tracking is disabled (VISITOR_DB=off)")
	}
	stats, err := visitors.Stats(context.Background())
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(stats)
}
