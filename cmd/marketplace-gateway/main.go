package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pribylovaa/car-marketplace/internal/backend"
	"github.com/pribylovaa/car-marketplace/internal/cart"
	"github.com/pribylovaa/car-marketplace/internal/comments"
	"github.com/pribylovaa/car-marketplace/internal/config"
	gwhttp "github.com/pribylovaa/car-marketplace/internal/http"
	"github.com/pribylovaa/car-marketplace/internal/http/handlers"
	"github.com/pribylovaa/car-marketplace/internal/metrics"
	"github.com/pribylovaa/car-marketplace/internal/session"
	"github.com/pribylovaa/car-marketplace/internal/storage"
	"github.com/pribylovaa/car-marketplace/internal/storage/mongo"
	"github.com/pribylovaa/car-marketplace/internal/storage/postgres"
	"github.com/pribylovaa/car-marketplace/internal/storage/redis"
	"github.com/pribylovaa/car-marketplace/internal/storage/sqlite"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting marketplace-gateway", "env", cfg.Env, "storage", cfg.Storage.Driver)

	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	initCtx, initCancel := context.WithTimeout(rootCtx, 30*time.Second)
	st, err := openStorage(initCtx, cfg.Storage)
	initCancel()
	if err != nil {
		log.Error("storage_init_failed", slog.String("driver", cfg.Storage.Driver), slog.String("err", err.Error()))
		os.Exit(1)
	}

	defer func() {
		if cerr := st.Close(); cerr != nil {
			log.Warn("storage_close_failed", slog.String("err", cerr.Error()))
		}
	}()

	log.Info("storage_initialized", slog.String("driver", cfg.Storage.Driver))

	m := metrics.New(prometheus.DefaultRegisterer)

	bc, err := backend.New(backend.Options{
		BaseURL:   cfg.Backend.BaseURL,
		UserAgent: cfg.Backend.UserAgent,
		Timeout:   cfg.Timeouts.Backend,
		Metrics:   m,
	})
	if err != nil {
		log.Error("backend_client_init_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	svc := comments.New(bc, comments.Options{
		MaxDepth:     cfg.Comments.MaxDepth,
		MaxTextLen:   cfg.Comments.MaxTextLen,
		FetchTimeout: cfg.Comments.FetchTimeout,
	})

	carts := cart.NewCarts(st, cfg.Cart.KeyPrefix, m)

	parser := session.NewParser(cfg.Auth.JWTSecret, session.Claims{
		UserID: cfg.Auth.UserIDClaim,
		Name:   cfg.Auth.NameClaim,
		Role:   cfg.Auth.RoleClaim,
	})
	if cfg.Auth.JWTSecret == "" {
		log.Warn("jwt_secret_empty", slog.String("hint", "token signatures are not verified locally"))
	}

	apiHandler := gwhttp.NewRouter(handlers.New(carts, svc), gwhttp.Options{
		Logger:        log,
		Timeout:       cfg.Timeouts.Service,
		Parser:        parser,
		SecureCookies: cfg.Env == envProd,
	})

	var ready int32 // 0 — not ready; 1 — ready

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if atomic.LoadInt32(&ready) == 1 {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
			return
		}

		http.Error(w, "not ready", http.StatusServiceUnavailable)
	})

	mux.Handle("/metrics", promhttp.Handler())

	mux.Handle("/", apiHandler)

	httpAddr := cfg.HTTP.Addr()
	httpSrv := &http.Server{
		Addr:              httpAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", httpAddr)
	if err != nil {
		log.Error("http_listen_failed", slog.String("addr", httpAddr), slog.String("err", err.Error()))
		os.Exit(1)
	}

	log.Info("http_listen_start", slog.String("addr", httpAddr))

	serveErrCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
		}
		close(serveErrCh)
	}()

	atomic.StoreInt32(&ready, 1)
	log.Info("gateway_ready")

	select {
	case <-rootCtx.Done():
		log.Info("shutdown_requested")
	case err := <-serveErrCh:
		if err != nil {
			log.Error("http_serve_failed", slog.String("err", err.Error()))
		}
	}

	atomic.StoreInt32(&ready, 0)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http_shutdown_incomplete", slog.String("err", err.Error()))
	} else {
		log.Info("http_stopped")
	}

	log.Info("service_stopped")
}

// openStorage открывает хранилище корзин по выбранному драйверу.
func openStorage(ctx context.Context, cfg config.StorageConfig) (storage.Storage, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		if dir := filepath.Dir(cfg.SQLitePath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("sqlite dir: %w", err)
			}
		}
		return sqlite.New(ctx, cfg.SQLitePath)
	case config.DriverRedis:
		return redis.New(ctx, cfg.RedisURL, cfg.TTL)
	case config.DriverPostgres:
		return postgres.New(ctx, cfg.PostgresURL)
	case config.DriverMongo:
		return mongo.New(ctx, cfg.MongoURL)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}

func setupLogger(env string) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
