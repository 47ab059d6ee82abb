package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Clark-Hu/cinema-booking/db"
	"github.com/Clark-Hu/cinema-booking/internal/backend"
	"github.com/Clark-Hu/cinema-booking/internal/config"
	httpserver "github.com/Clark-Hu/cinema-booking/internal/http"
	"github.com/Clark-Hu/cinema-booking/internal/repository"
	"github.com/Clark-Hu/cinema-booking/internal/sessions"
	"github.com/Clark-Hu/cinema-booking/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatal(err)
	}
}

// run wires the storefront and blocks until shutdown.
func run(ctx context.Context) error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	logger := log.New(os.Stdout, "[storefront] ", log.LstdFlags|log.Lshortfile)

	var client backend.Client
	httpClient, err := backend.NewHTTPClient(cfg.BackendURL, time.Duration(cfg.BackendTimeoutSecs)*time.Second, logger)
	if err != nil {
		return fmt.Errorf("init backend client: %w", err)
	}
	client = httpClient

	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parse redis url: %w", err)
		}
		rdb := redis.NewClient(redisOpts)
		defer rdb.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		client = backend.NewCachedClient(httpClient, rdb, time.Duration(cfg.CatalogCacheTTLSecs)*time.Second, logger)
		logger.Printf("catalog cache enabled (ttl=%ds)", cfg.CatalogCacheTTLSecs)
	}

	var (
		st           *store.Store
		sessionStore sessions.Store
	)
	if cfg.DBURL != "" {
		dbCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		st, err = store.New(dbCtx, cfg.DBURL, store.Options{
			MaxConns:               int32(cfg.DBMaxConns),
			MinConns:               int32(cfg.DBMinConns),
			MaxConnIdleTime:        time.Duration(cfg.DBMaxIdleSecs) * time.Second,
			MaxConnLifetime:        time.Duration(cfg.DBMaxLifeSecs) * time.Second,
			ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
			StatementCacheCapacity: cfg.DBStatementCache,
			Logger:                 logger,
		})
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer st.Close()
		if err := st.Migrate(dbCtx, db.Migrations, "migrations"); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
		sessionStore = repository.New(st).Sessions
	} else {
		logger.Println("DB_URL not set, keeping booking sessions in memory")
		sessionStore = sessions.NewMemoryStore(nil)
	}

	sweeper, err := sessions.NewSweeper(sessionStore, sessions.SweeperOptions{
		Interval: time.Duration(cfg.SessionSweepSecs) * time.Second,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("init session sweeper: %w", err)
	}
	sweeper.Start()
	defer func() {
		if err := sweeper.Stop(); err != nil {
			logger.Printf("stop sweeper: %v", err)
		}
	}()

	server := httpserver.New(cfg, st, sessionStore, client, logger)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()
	logger.Printf("listening on :%s (backend %s)", cfg.Port, cfg.BackendURL)

	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, context.Canceled) {
			logger.Printf("server error: %v", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeoutSecs)*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Printf("graceful shutdown error: %v", err)
	}
	return nil
}
