package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"med-reminder/internal/adapters/auth/jwtauth"
	"med-reminder/internal/adapters/cache/rediscache"
	pg "med-reminder/internal/adapters/storage/postgres"
	"med-reminder/internal/config"
	"med-reminder/internal/domain/alerts"
	"med-reminder/internal/domain/doses"
	"med-reminder/internal/platform/logger"
	"med-reminder/internal/ports/auth"
	"med-reminder/internal/router"

	"go.uber.org/zap"
)

// @title med-reminder API
// @version 1.0
// @description Medicamentos, calendario de dosis y alertas a pantalla completa.
// @BasePath /
func main() {
	if err := config.LoadDotEnv(); err != nil {
		logger.NewFromEnv().Warn("load .env", zap.Error(err))
	}

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/base.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.NewFromEnv().Fatal("load config", zap.Error(err))
	}

	log, err := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: logger.ParseFormat(cfg.Log.Format),
		App:    cfg.App.Name,
	})
	if err != nil {
		log = zap.NewNop()
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Postgres opcional
	var db *sql.DB
	if cfg.DB.DSN != "" {
		db, err = pg.Open(cfg.DB.DSN, pg.PoolOptions{
			MaxOpenConns: cfg.DB.MaxOpenConns,
			MaxIdleConns: cfg.DB.MaxIdleConns,
		})
		if err != nil {
			log.Fatal("open postgres", zap.Error(err))
		}
		defer db.Close()

		if cfg.DB.EnsureSchema {
			if err := pg.EnsureSchema(ctx, db); err != nil {
				log.Fatal("ensure schema", zap.Error(err))
			}
		}
		log.Info("using postgres storage")
	} else {
		log.Warn("DB_DSN empty, using in-memory storage")
	}

	// Redis opcional
	var cache doses.DayCache
	if cfg.Redis.Addr != "" {
		rdb := rediscache.NewClient(rediscache.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unreachable, dose cache disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		} else {
			cache = rediscache.NewDayCache(rdb, cfg.Redis.TTL)
			log.Info("dose cache enabled", zap.String("addr", cfg.Redis.Addr))
		}
	}

	var verifier auth.AuthVerifier
	if cfg.JWT.Secret != "" {
		verifier = jwtauth.NewVerifier(cfg.JWT.Secret)
	} else {
		log.Warn("JWT_SECRET empty, dev mode: X-Debug-User-ID accepted")
	}

	app := router.Build(router.Options{
		AuthVerifier: verifier,
		DB:           db,
		Cache:        cache,
		Logger:       log,
		Location:     cfg.Location(),
		Alerts: alerts.Options{
			RefreshEvery:   cfg.Alerts.RefreshEvery,
			RequestTimeout: cfg.Alerts.RequestTimeout,
			SessionIdle:    cfg.Alerts.SessionIdle,
		},
	})

	go app.Alerts.Run(ctx, time.Minute)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      app.Handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown", zap.Error(err))
		}
	}()

	log.Info("starting server", zap.String("addr", srv.Addr), zap.String("timezone", cfg.App.Timezone))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("server error", zap.Error(err))
	}
	log.Info("server stopped")
}
