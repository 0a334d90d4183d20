package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Nagoor-Khan-P/FarmConnect-sub000/internal/assets"
	"github.com/Nagoor-Khan-P/FarmConnect-sub000/internal/backend"
	"github.com/Nagoor-Khan-P/FarmConnect-sub000/internal/config"
	"github.com/Nagoor-Khan-P/FarmConnect-sub000/internal/db"
	"github.com/Nagoor-Khan-P/FarmConnect-sub000/internal/httpserver"
	"github.com/Nagoor-Khan-P/FarmConnect-sub000/internal/localstore"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()

	var pool *pgxpool.Pool
	var local localstore.Store
	if cfg.DBConnString != "" {
		var err error
		pool, err = db.Connect(ctx, cfg.DBConnString)
		if err != nil {
			logger.Fatalf("connect to db: %v", err)
		}
		defer pool.Close()
		local = localstore.NewPostgres(pool, logger)
	} else {
		logger.Printf("DB_DSN not set, session state is in-memory only")
		local = localstore.NewMemory()
	}

	remote := backend.New(cfg.BackendBaseURL, cfg.BackendTimeout, logger)
	sessions := httpserver.NewRegistry(local, remote, logger, cfg.SessionIdleTTL)

	srv := httpserver.New(cfg.HTTPAddr, logger, pool, httpserver.Deps{
		Sessions: sessions,
		Backend:  remote,
		Assets:   assets.New(cfg.AssetBaseURL),
	}, cfg.CORSOrigins)

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s (backend %s)", cfg.HTTPAddr, cfg.BackendBaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
