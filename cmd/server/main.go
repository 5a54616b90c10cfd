package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/streakly/internal/auth"
	"github.com/mmynk/streakly/internal/config"
	"github.com/mmynk/streakly/internal/middleware"
	"github.com/mmynk/streakly/internal/push"
	"github.com/mmynk/streakly/internal/reminder"
	"github.com/mmynk/streakly/internal/service"
	redisstore "github.com/mmynk/streakly/internal/storage/redis"
	"github.com/mmynk/streakly/internal/storage/sqlite"
	"github.com/mmynk/streakly/internal/tracker"
	"github.com/mmynk/streakly/pkg/logging"
)

const apiPrefix = "/streakly.v1."

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// redisPinger adapts a go-redis client to service.Pinger.
type redisPinger struct{ rdb *goredis.Client }

func (p redisPinger) Ping(ctx context.Context) error { return p.rdb.Ping(ctx).Err() }

func main() {
	cfg, err := config.Load(getEnv("STREAKLY_CONFIG", ""))
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	if err := run(cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Reminders.Location()
	if err != nil {
		return err
	}
	clock := func() time.Time { return time.Now().In(loc) }

	// Initialize SQLite storage
	store, err := sqlite.New(cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.Storage.DBPath)

	tr, err := tracker.New(ctx, store, tracker.WithClock(clock), tracker.WithLogger(slog.Default()))
	if err != nil {
		return fmt.Errorf("failed to load tracker state: %w", err)
	}

	pingers := []service.Pinger{store}

	// Push subscriptions and reminder dedupe
	var (
		subscriptions push.Repository
		deduper       reminder.Deduper = reminder.NewMemoryDeduper(cfg.Redis.DedupTTL, clock)
	)
	switch cfg.Push.Repository {
	case config.RepositoryRedis:
		rdb, err := redisstore.NewClient(ctx, redisstore.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()
		subscriptions = redisstore.NewSubscriptionRepository(rdb, cfg.Redis.Prefix)
		deduper = redisstore.NewDeduper(rdb, cfg.Redis.Prefix, cfg.Redis.DedupTTL)
		pingers = append(pingers, redisPinger{rdb: rdb})
	case config.RepositoryMemory:
		subscriptions = push.NewMemoryRepository()
	default:
		subscriptions = store.Subscriptions()
	}
	slog.Info("Push subscriptions initialized", "repository", cfg.Push.Repository, "enabled", cfg.Push.Enabled())

	sender := push.NewWebPushSender(push.VAPIDConfig{
		PublicKey:  cfg.Push.VAPIDPublicKey,
		PrivateKey: cfg.Push.VAPIDPrivateKey,
		Subscriber: cfg.Push.Subscriber,
		TTL:        cfg.Push.TTL,
		Urgency:    cfg.Push.Urgency,
	}, nil)
	relay := push.NewRelay(subscriptions, sender,
		push.WithIcon(cfg.Push.Icon),
		push.WithClock(clock),
		push.WithLogger(slog.Default()),
	)

	if cfg.Reminders.Enabled && cfg.Push.Enabled() {
		scheduler := reminder.NewScheduler(tr, relay, cfg.Reminders.Interval,
			reminder.WithClock(clock),
			reminder.WithDeduper(deduper),
			reminder.WithLogger(slog.Default()),
		)
		go scheduler.Run(ctx)
	} else {
		slog.Info("Reminder scheduler disabled", "reminders_enabled", cfg.Reminders.Enabled, "push_enabled", cfg.Push.Enabled())
	}

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authenticator := auth.NewPasswordAuthenticator(cfg.Auth.Username, cfg.Auth.PasswordHash)

	mux := http.NewServeMux()

	// Tracker procedures need a token when the API is protected
	publicOpts := connect.WithInterceptors(middleware.OptionalAuth(jwtManager), middleware.LoggingInterceptor())
	trackerOpts := publicOpts
	exportHandler := service.NewExportHandler(tr, clock)
	exportMux := http.NewServeMux()
	exportHandler.Register(exportMux)
	var downloads http.Handler = exportMux
	if cfg.Auth.ProtectAPI {
		trackerOpts = connect.WithInterceptors(middleware.RequireAuth(jwtManager), middleware.LoggingInterceptor())
		downloads = middleware.RequireAuthHTTP(jwtManager, exportMux)
	}

	// Register Connect services
	service.NewHabitService(tr).Register(mux, trackerOpts)
	service.NewAchievementService(tr).Register(mux, trackerOpts)
	service.NewTodoService(tr).Register(mux, trackerOpts)
	service.NewDataService(tr).Register(mux, trackerOpts)
	service.NewPushService(relay, cfg.Push.VAPIDPublicKey).Register(mux, jwtManager, publicOpts)
	service.NewAuthService(authenticator, jwtManager, slog.Default()).Register(mux, publicOpts)

	mux.Handle("/export/", downloads)
	mux.Handle(service.HealthPath, service.HealthHandler(pingers...))
	mux.Handle("/metrics", promhttp.Handler())

	staticHandler, err := newStaticHandler(cfg.Server.StaticDir)
	if err != nil {
		return err
	}
	mux.Handle("/", staticHandler)

	// Add logging and CORS middleware
	loggedHandler := loggingMiddleware(corsMiddleware(cfg.Server.CORSOrigin, mux))

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           h2c.NewHandler(loggedHandler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting", "address", cfg.Server.Addr, "protect_api", cfg.Auth.ProtectAPI)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Warn("Graceful shutdown failed", "error", err)
	}
	if err := tr.Save(shutdownCtx); err != nil {
		return fmt.Errorf("failed to flush pending writes: %w", err)
	}
	return nil
}

// newStaticHandler serves the frontend from dir, falling back to index.html.
func newStaticHandler(dir string) (http.Handler, error) {
	staticDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve static path: %w", err)
	}
	slog.Info("Serving static files", "path", staticDir)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Unknown Connect procedures must not fall through to index.html
		if strings.HasPrefix(r.URL.Path, apiPrefix) {
			http.NotFound(w, r)
			return
		}

		urlPath := r.URL.Path
		if urlPath == "/" {
			urlPath = "/index.html"
		}

		filePath := filepath.Join(staticDir, filepath.Clean(urlPath))

		// For SPA-like behavior, serve index.html for unknown paths
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
			return
		}

		http.ServeFile(w, r, filePath)
	}), nil
}

// loggingMiddleware logs all incoming requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		slog.Debug("Request received",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		)

		next.ServeHTTP(w, r)

		slog.Info("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(origin string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms, Content-Disposition")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
