package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/partyplaylist/backend/src/app"
	postgresDriver "gorm.io/driver/postgres"
)

// The worker runs only the rotation monitor. Scale it out next to API servers
// that were started with their own monitor or with none at all.

func openPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return db, nil
}

func main() {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Overload(".env"); err != nil {
			log.Fatalf("Error loading .env file: %v", err)
		}
	}

	config := app.NewAppConfig()
	logger := app.InitLogger(*config.LogLevel).With().Str("worker", "rotation").Logger()

	rootCtx, rootCancel := context.WithCancel(context.Background())
	rootCtx = logger.WithContext(rootCtx)

	logger.Info().
		Str("environment", *config.Environment).
		Dur("interval", config.Rotation.Interval).
		Msg("Starting rotation worker")

	sqlDB, err := openPostgres(rootCtx, *config.DSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open database")
	}

	// gorm reuses the lib/pq pool instead of opening its own
	database, err := app.OpenDatabase(rootCtx, postgresDriver.New(postgresDriver.Config{Conn: sqlDB}))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize gorm")
	}

	if err := app.MigrationUp(*config.DSN, *config.MigrationPath); err != nil {
		logger.Fatal().Err(err).Msg("Failed to run migrations")
	}

	var rdb *redis.Client
	if config.RedisAddr != nil {
		rdb, err = app.OpenRedis(rootCtx, *config.RedisAddr)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to redis")
		}
	}

	application := app.NewWithConnections(*config, database, rdb)

	if err := application.StartRotation(rootCtx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start rotation monitor")
	}

	wg := sync.WaitGroup{}
	wg.Add(1)
	go application.RunRotationWorker(rootCtx, &wg)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	logger.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	rootCancel()

	waitChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitChan)
	}()

	select {
	case <-waitChan:
		logger.Info().Msg("Rotation worker shut down gracefully")
	case <-time.After(15 * time.Second):
		logger.Error().Msg("Timeout waiting for rotation worker to shut down")
	}

	application.Shutdown(rootCtx)

	logger.Info().Msg("Worker shutdown complete")
}
