package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pacekeeper/internal/app/server/api"
	"pacekeeper/internal/app/server/config"
	"pacekeeper/internal/infrastructure/storage/postgres"
	"pacekeeper/internal/utils/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.MustLoad()
	log := logger.New(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, err := postgres.New(ctx, cfg)
	if err != nil {
		log.Error("Не удалось подключиться к базе", "error", err)
		os.Exit(1)
	}
	defer storage.Close()
	log.Info("Схема базы готова", "version", storage.SchemaVersion())

	srv := &http.Server{
		Addr:              cfg.Server.RunAddress,
		Handler:           api.New(ctx, cfg, api.NewServices(storage, log), log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("Сервер запущен", "address", cfg.Server.RunAddress, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Ошибка сервера", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Остановка сервера")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Ошибка остановки сервера", "error", err)
	}
}
