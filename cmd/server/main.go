package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/hongminglow/student-life-be/internal/config"
	"github.com/hongminglow/student-life-be/internal/events"
	"github.com/hongminglow/student-life-be/internal/logging"
	"github.com/hongminglow/student-life-be/internal/server"
	"github.com/hongminglow/student-life-be/internal/storage"
	"github.com/hongminglow/student-life-be/internal/storage/memory"
	"github.com/hongminglow/student-life-be/internal/storage/postgres"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(logger)
	if envErr != nil {
		logger.Info("no .env file found; relying on existing environment")
	}

	ctx := context.Background()
	store, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("init storage", "driver", cfg.StorageDriver, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	publisher := openPublisher(cfg, logger)
	defer publisher.Close()

	srv := server.New(cfg, store, publisher, logger)

	go func() {
		logger.Info("student-life backend listening", "addr", cfg.HTTPAddress(), "storage", cfg.StorageDriver, "chat", cfg.ChatEnabled())
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", "signal", sig.String())

	ctxShutdown, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Error("graceful shutdown error", "error", err)
	}
}

func openStore(ctx context.Context, cfg config.Config) (storage.Store, error) {
	if cfg.StorageDriver == config.DriverMemory {
		slog.Warn("using in-memory storage; data is lost on restart")
		return memory.NewStore(), nil
	}
	return postgres.NewStore(ctx, cfg.DatabaseURL)
}

// openPublisher falls back to logging events when RabbitMQ is not configured or unreachable.
func openPublisher(cfg config.Config, logger *slog.Logger) events.Publisher {
	if cfg.AMQPURL == "" {
		return events.NewLogPublisher(logger)
	}
	p, err := events.NewRabbitMQPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		logger.Warn("rabbitmq unavailable; logging events instead", "error", err)
		return events.NewLogPublisher(logger)
	}
	logger.Info("publishing events to rabbitmq", "exchange", cfg.AMQPExchange)
	return p
}
