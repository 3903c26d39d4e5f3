// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"student-records/internal/common/config"
	"student-records/internal/common/database"
	"student-records/internal/common/logger"
	"student-records/internal/common/observability"
	"student-records/internal/importer"
	"student-records/internal/matching"
	"student-records/internal/server"
	"student-records/internal/store"
	"student-records/internal/students"
	"student-records/pkg/registry"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting student-records server...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)

	ctx := context.Background()

	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	schemaRegistry, err := registry.Load(cfg.Registry.SchemaPath)
	if err != nil {
		zapLog.Fatal("schema registry load failed", zap.Error(err))
	}
	zapLog.Info("Schema registry loaded",
		zap.String("version", schemaRegistry.Version()),
	)

	candidateStore := store.NewPostgresCandidateStore(pg.DB)
	detector := matching.NewDetector(candidateStore, log)
	profiles := store.NewProfileStore(redis.Client, time.Duration(cfg.Matching.CriteriaCacheTTL)*time.Second)

	repo := students.NewRepository(pg.DB)
	service := students.NewService(repo, detector, profiles, students.ServiceConfig{
		DefaultPreset:     cfg.Matching.DefaultPreset,
		RejectOnHighMatch: cfg.Matching.RejectOnHighMatch,
	}, log)

	csvImporter := importer.New(service, schemaRegistry, log)

	handler := server.NewHandler(service, csvImporter, schemaRegistry, obs, log)
	health := server.NewHealthHandler(map[string]server.Pinger{
		"postgres": pg,
		"redis":    redis,
	}, log)

	srv := server.New(cfg.Server, server.NewRouter(handler, health), log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			zapLog.Fatal("server failed", zap.Error(err))
		}
	case sig := <-stop:
		zapLog.Info("Shutdown signal received", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("server shutdown failed", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("observability shutdown failed", zap.Error(err))
	}

	zapLog.Info("Server stopped")
}
