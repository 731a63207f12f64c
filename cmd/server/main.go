package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/1mb-dev/tunebox/internal/account"
	"github.com/1mb-dev/tunebox/internal/api"
	"github.com/1mb-dev/tunebox/internal/cache"
	"github.com/1mb-dev/tunebox/internal/catalog"
	"github.com/1mb-dev/tunebox/internal/config"
	"github.com/1mb-dev/tunebox/internal/engagement"
	"github.com/1mb-dev/tunebox/internal/feed"
	"github.com/1mb-dev/tunebox/internal/inventory"
	"github.com/1mb-dev/tunebox/internal/metrics"
	"github.com/1mb-dev/tunebox/internal/session"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	log.SetReportTimestamp(true)
	if err := run(); err != nil {
		log.Fatal("server exited", "err", err)
	}
}

func run() error {
	// Load configuration: defaults → config.yaml → config.local.yaml → env vars
	cfg, err := config.Load("config.yaml", "config.local.yaml")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	log.SetLevel(level)

	for _, dir := range []string{cfg.Media.SongsDir, cfg.Media.CoversDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create media dir %s: %w", dir, err)
		}
	}

	repo, err := inventory.NewRepository(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize repository: %w", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			log.Error("failed to close repository", "err", err)
		}
	}()

	shelfCache, err := cache.New(cache.DefaultTTL)
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	defer func() {
		if err := shelfCache.Close(); err != nil {
			log.Error("failed to close cache", "err", err)
		}
	}()

	sessionTTL, err := cfg.GetSessionTTL()
	if err != nil {
		return fmt.Errorf("invalid session ttl: %w", err)
	}
	sessions, err := session.NewManager(session.Config{
		Secret:     cfg.Session.Secret,
		CookieName: cfg.Session.CookieName,
		TTL:        sessionTTL,
		Secure:     cfg.Session.Secure,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize sessions: %w", err)
	}

	tracker := engagement.NewTracker(repo)
	styles := catalog.NewStyles(cfg.Display.Styles, cfg.Display.FallbackStyle)
	catalogSvc := catalog.NewService(repo, tracker, styles, shelfCache)

	handler, err := api.NewHandler(api.Options{
		Feed:         feed.NewAssembler(repo, catalogSvc, cfg.Feed.SearchLimit),
		Catalog:      catalogSvc,
		Engagement:   tracker,
		Accounts:     account.NewService(repo),
		Sessions:     sessions,
		Songs:        os.DirFS(cfg.Media.SongsDir),
		Covers:       os.DirFS(cfg.Media.CoversDir),
		MaxFormBytes: cfg.Media.MaxUploadBytes,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize handler: %w", err)
	}

	mux := http.NewServeMux()

	// Health check (liveness probe)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("ok " + version)); err != nil {
			log.Debug("failed to write health response", "err", err)
		}
	})

	// Readiness check (verifies database connectivity)
	mux.HandleFunc("GET /ready", func(w http.ResponseWriter, r *http.Request) {
		if err := repo.Ping(); err != nil {
			log.Warn("readiness check failed", "err", err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		if _, err := w.Write([]byte("ready")); err != nil {
			log.Debug("failed to write ready response", "err", err)
		}
	})

	// Metrics endpoint (runtime + application stats), localhost only
	mux.HandleFunc("GET /metrics", func(w http.ResponseWriter, r *http.Request) {
		host, _, _ := net.SplitHostPort(r.RemoteAddr)
		if host != "127.0.0.1" && host != "::1" {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)

		output := map[string]any{
			"version": version,
			"runtime": map[string]any{
				"goroutines":        runtime.NumGoroutine(),
				"memory_alloc_mb":   float64(mem.Alloc) / 1024 / 1024,
				"memory_sys_mb":     float64(mem.Sys) / 1024 / 1024,
				"gc_runs":           mem.NumGC,
				"gc_pause_total_ms": float64(mem.PauseTotalNs) / 1e6,
			},
			"app":   metrics.Get().Snapshot(),
			"cache": shelfCache.Stats(),
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(output); err != nil {
			log.Error("failed to encode metrics", "err", err)
		}
	})

	handler.RegisterRoutes(mux)

	// Stylesheet and player script from web/
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir("web"))))

	// Get parsed timeouts (validated during config.Load, errors should not occur)
	readTimeout, err := cfg.GetReadTimeout()
	if err != nil {
		return fmt.Errorf("invalid read timeout: %w", err)
	}
	writeTimeout, err := cfg.GetWriteTimeout()
	if err != nil {
		return fmt.Errorf("invalid write timeout: %w", err)
	}
	shutdownTimeout, err := cfg.GetShutdownTimeout()
	if err != nil {
		return fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           securityHeaders(metrics.Middleware(sessions.Middleware(mux))),
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout / 3,
		WriteTimeout:      writeTimeout * 4, // Long for audio streaming
		IdleTimeout:       writeTimeout * 8,
		MaxHeaderBytes:    1 << 20, // 1 MB
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("tunebox starting",
			"version", version,
			"addr", fmt.Sprintf("http://localhost:%d", cfg.Server.Port),
			"db", cfg.Database.Path,
			"songs", cfg.Media.SongsDir,
			"covers", cfg.Media.CoversDir,
		)

		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("server error: %w", err)
		}
		close(serverErr)
	}()

	// SIGHUP drops cached shelves so category edits from tuneboxctl show up
	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)
	defer signal.Stop(reload)
	go reloadShelves(reload, shelfCache)

	// Wait for shutdown signal or server error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-serverErr:
		if err != nil {
			return err
		}
	}

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", "err", err)
	}

	log.Info("server stopped")
	return nil
}

// reloadShelves invalidates the shelf cache once per received signal until
// sig is closed.
func reloadShelves(sig <-chan os.Signal, c *cache.Cache) {
	for range sig {
		n := c.InvalidateShelves()
		log.Info("category shelves invalidated", "entries", n)
	}
}

// securityHeaders adds standard security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}
