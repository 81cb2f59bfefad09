// main.go — edu-platform user registration service.
//
// Startup order:
//
//  1. structured logger
//  2. configuration (.env + environment)
//  3. connection pool, built once and injected
//  4. router and HTTP server on 0.0.0.0:8000
//  5. graceful shutdown on SIGINT / SIGTERM
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Skryldev/edu-platform/config"
	"github.com/Skryldev/edu-platform/db"
	"github.com/Skryldev/edu-platform/handlers"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	// database/sql drivers self-register; package db maps their errors.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const listenAddr = "0.0.0.0:8000"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fatalf("load config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	dbCfg := cfg.DBConfig()
	dbCfg.Hooks = []db.Hook{
		db.NewLogHook(db.LogHookConfig{
			Logger:             logger,
			SlowQueryThreshold: 200 * time.Millisecond,
		}),
	}

	database, err := db.OpenWithDriver(cfg.DriverName, cfg.Driver, dbCfg)
	if err != nil {
		fatalf("open database: %v", err)
	}
	defer database.Close()

	stats := database.Stats()
	slog.Info("database connected",
		"driver", cfg.DriverName,
		"host", cfg.Driver.Host,
		"database", cfg.Driver.Database,
		"max_open", stats.MaxOpenConnections,
	)

	if os.Getenv(gin.EnvGinMode) == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handlers.NewRouter(handlers.NewUserHandler(database, logger), logger)

	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("API listening", "addr", listenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server stopped", "error", err)
		_ = database.Close()
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func fatalf(format string, args ...any) {
	slog.Error(fmt.Sprintf(format, args...))
	os.Exit(1)
}
