package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "hotel_reservations/internal/adapters/http_server"
	"hotel_reservations/internal/adapters/observability"
	redisad "hotel_reservations/internal/adapters/redis"
	"hotel_reservations/internal/app"
	"hotel_reservations/internal/domain"
	"hotel_reservations/internal/shared"
	"hotel_reservations/internal/storage/gormdb"
	mysqlrepo "hotel_reservations/internal/storage/mysql"
)

func main() {
	shared.LoadDotEnv()
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("store init failed")
	}
	defer closeStore()
	log.Info().Str("driver", cfg.StoreDriver).Msg("database connection ok")

	// cache is optional; the API serves straight from the store without it
	var cache domain.Cache
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rc.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, cache disabled")
			_ = rc.Close()
		} else {
			cache = rc
			defer rc.Close()
		}
		cancel()
	}

	catalog := app.NewCatalogService(store, cache, cfg.CacheTTL)
	engine := app.NewReservationEngine(store)

	// http
	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	srv := server.New(server.Options{RequestTimeout: cfg.RequestTimeout, CORSOrigins: cfg.CORSOrigins})
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(cfg.BasePath, &server.Handlers{Catalog: catalog, Engine: engine})

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("base_path", cfg.BasePath).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
		return
	}
	log.Info().Msg("server stopped")
}

// openStore picks the Store implementation for STORE_DRIVER. The plain mysql
// driver expects the schema from migrations/mysql; the gorm drivers migrate on start.
func openStore(cfg shared.Config) (domain.Store, func(), error) {
	if cfg.StoreDriver == shared.DriverMySQL {
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("sql.Open: %w", err)
		}
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(5 * time.Minute)
		if err := db.Ping(); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("db.Ping: %w", err)
		}
		return mysqlrepo.New(db), func() { _ = db.Close() }, nil
	}

	dialect, dsn := cfg.StoreDriver, ""
	switch cfg.StoreDriver {
	case shared.DriverPostgres:
		dsn = cfg.PostgresDSN
	case shared.DriverSQLite:
		dsn = cfg.SQLitePath
	case shared.DriverGormMySQL:
		dialect, dsn = "mysql", cfg.MySQLDSN
	}
	db, err := gormdb.Open(dialect, dsn)
	if err != nil {
		return nil, nil, err
	}
	if err := gormdb.Migrate(db); err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return gormdb.New(db), closeFn, nil
}
