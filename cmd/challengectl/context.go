package main

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/partyplaylist/backend/src/app"
	"github.com/rs/zerolog"
	postgresDriver "gorm.io/driver/postgres"
)

// commandContext lazily loads configuration and connections shared by subcommands
type commandContext struct {
	envFile  *string
	logLevel *string

	configOnce sync.Once
	config     *app.AppConfig
	configErr  error

	application *app.Application
}

func newCommandContext(envFile, logLevel *string) *commandContext {
	return &commandContext{envFile: envFile, logLevel: logLevel}
}

func (c *commandContext) ensureConfig() (*app.AppConfig, error) {
	c.configOnce.Do(func() {
		if c.envFile != nil && *c.envFile != "" {
			if _, err := os.Stat(*c.envFile); err == nil {
				if err := godotenv.Overload(*c.envFile); err != nil {
					c.configErr = fmt.Errorf("load %s: %w", *c.envFile, err)
					return
				}
			}
		}
		if os.Getenv("DB_URL") == "" {
			c.configErr = fmt.Errorf("DB_URL not set in environment")
			return
		}
		c.config = app.NewAppConfig()
	})
	return c.config, c.configErr
}

// withLogger returns ctx carrying a stderr logger at the requested level
func (c *commandContext) withLogger(ctx context.Context) context.Context {
	level, err := zerolog.ParseLevel(*c.logLevel)
	if err != nil {
		level = zerolog.WarnLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		Level(level).
		With().Timestamp().Logger()
	return logger.WithContext(ctx)
}

// ensureApplication connects to postgres (and redis when configured) and wires the rotation core
func (c *commandContext) ensureApplication(ctx context.Context) (*app.Application, error) {
	if c.application != nil {
		return c.application, nil
	}

	config, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	database, err := app.OpenDatabase(ctx, postgresDriver.Open(*config.DSN))
	if err != nil {
		return nil, err
	}

	var rdb *redis.Client
	if config.RedisAddr != nil {
		rdb, err = app.OpenRedis(ctx, *config.RedisAddr)
		if err != nil {
			return nil, err
		}
	}

	c.application = app.NewWithConnections(*config, database, rdb)
	return c.application, nil
}

func (c *commandContext) close() {
	if c.application == nil {
		return
	}
	c.application.Shutdown(context.Background())
	c.application = nil
}
