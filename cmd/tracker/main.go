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

	"github.com/google/uuid"

	"github.com/example/shared-tracker/internal/application"
	"github.com/example/shared-tracker/internal/config"
	httptransport "github.com/example/shared-tracker/internal/http"
	"github.com/example/shared-tracker/internal/persistence/sqlite"
	"github.com/example/shared-tracker/internal/realtime"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	pool, err := sqlite.NewConnectionPool(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := pool.Ping(ctx); err != nil {
		logger.Error("storage not reachable", "error", err)
		os.Exit(1)
	}

	if err := sqlite.Migrate(context.Background(), pool); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	userRepo := sqlite.NewUserRepository(pool)
	roomRepo := sqlite.NewRoomRepository(pool)
	entryRepo := sqlite.NewEntryRepository(pool)

	registry := realtime.NewRegistry(logger)
	broadcaster := &realtime.EntryBroadcaster{Registry: registry}

	idGenerator := uuid.NewString
	now := time.Now

	entryService := application.NewEntryServiceWithLogger(entryRepo, broadcaster, now, logger)
	roomService := application.NewRoomServiceWithLogger(roomRepo, entryRepo, idGenerator, now, logger)
	userService := application.NewUserServiceWithLogger(userRepo, idGenerator, now, logger)

	entryHandler := realtime.NewHandler(registry, entryService, logger)
	roomHandler := httptransport.NewRoomHandler(roomService, logger)
	userHandler := httptransport.NewUserHandler(userService, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Rooms: roomHandler,
		Users: userHandler,
		Entry: entryHandler,
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("tracker API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}
