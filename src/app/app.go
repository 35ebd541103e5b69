package app

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/partyplaylist/backend/src/handler"
	"github.com/partyplaylist/backend/src/repository"
	"github.com/partyplaylist/backend/src/service"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"golang.org/x/time/rate"

	"github.com/rs/zerolog"
	postgresDriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

const rotationKeyPrefix = "challenge_rotation"

type Application struct {
	config           AppConfig
	database         *gorm.DB
	redis            *redis.Client
	RotationCache    *repository.RotationCacheRepository
	ChallengeService *service.ChallengeService
	Monitor          *service.RotationMonitor
}

// NewApplication connects to the database (and redis when configured), migrates the schema and wires the rotation core
func NewApplication(ctx context.Context, config AppConfig) (*Application, error) {
	logger := zerolog.Ctx(ctx).With().Str("function", "NewApplication").Logger()

	database, err := OpenDatabase(ctx, postgresDriver.Open(*config.DSN))
	if err != nil {
		return nil, err
	}
	logger.Info().Msg("Database connection established")

	if err := MigrationUp(*config.DSN, *config.MigrationPath); err != nil {
		closeDatabase(ctx, database)
		return nil, err
	}
	logger.Info().Str("migration_path", *config.MigrationPath).Msg("Database migrations applied")

	var rdb *redis.Client
	if config.RedisAddr != nil {
		rdb, err = OpenRedis(ctx, *config.RedisAddr)
		if err != nil {
			closeDatabase(ctx, database)
			return nil, err
		}
		logger.Info().Msg("Redis connection established")
	} else {
		logger.Warn().Msg("REDIS_URL not set, rotation runs without a cross-instance lease")
	}

	app := &Application{
		config:   config,
		database: database,
		redis:    rdb,
	}
	app.wireRotation(*config.Rotation)

	return app, nil
}

// OpenDatabase opens gorm on the given dialector and verifies the connection
func OpenDatabase(ctx context.Context, dialector gorm.Dialector) (*gorm.DB, error) {
	database, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connection to database failed: %w", err)
	}

	db, err := database.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying database connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("connection to database failed: %w", err)
	}

	return database, nil
}

// OpenRedis parses a redis URL and verifies the connection
func OpenRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connection to redis failed: %w", err)
	}

	return rdb, nil
}

// NewWithConnections wires the rotation core over already opened connections. rdb may be nil.
func NewWithConnections(config AppConfig, database *gorm.DB, rdb *redis.Client) *Application {
	app := &Application{
		config:   config,
		database: database,
		redis:    rdb,
	}
	app.wireRotation(*config.Rotation)
	return app
}

func (app *Application) wireRotation(settings RotationSettings) {
	store := service.WithStoreTimeout(repository.NewChallengeRepository(app.database), settings.StoreTimeout)
	initializer := service.NewScheduleInitializer(store)

	rotationConfig := service.RotationConfig{
		Interval: settings.Interval,
	}
	if app.redis != nil {
		app.RotationCache = repository.NewRotationCacheRepository(app.redis, rotationKeyPrefix, settings.LockTTL())
		rotationConfig.Lock = app.RotationCache
		rotationConfig.Publisher = app.RotationCache
	}

	app.Monitor = service.NewRotationMonitor(store, initializer, rotationConfig)
	app.ChallengeService = service.NewChallengeService(store, app.Monitor, nil)
}

func (app *Application) Shutdown(ctx context.Context) {
	closeDatabase(ctx, app.database)

	if app.redis != nil {
		logger := zerolog.Ctx(ctx).With().Str("function", "Shutdown").Logger()
		if err := app.redis.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close redis connection")
		} else {
			logger.Info().Msg("Redis connection closed")
		}
	}
}

func closeDatabase(ctx context.Context, database *gorm.DB) {
	if database == nil {
		return
	}

	logger := zerolog.Ctx(ctx).With().Str("function", "Shutdown").Logger()

	db, err := database.DB()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to get underlying database connection")
		return
	}
	if err := db.Close(); err != nil {
		logger.Error().Err(err).Msg("Failed to close database connection")
		return
	}
	logger.Info().Msg("Database connection closed")
}

func (app *Application) RunHTTPServer(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	logger := zerolog.Ctx(ctx).With().Str("function", "RunHTTPServer").Logger()

	// Set to release mode to disable Gin logger
	gin.SetMode(gin.ReleaseMode)

	ginRouter := gin.New()
	ginRouter.Use(gin.Recovery())

	app.registerRoutes(ctx, ginRouter)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", *app.config.Port),
		Handler: ginRouter,
	}

	go func() {
		logger.Info().Msgf("HTTP server is on http://localhost:%s/api/v1/health", *app.config.Port)
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			logger.Panic().Err(err).Msg("Failed to start HTTP server")
		}
	}()

	// Wait for context cancellation
	<-ctx.Done()

	logger.Info().Msg("Gracefully shutting down HTTP server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Failed to shutdown HTTP server gracefully")
	} else {
		logger.Info().Msg("HTTP server shutdown complete")
	}
}

// StartRotation runs the first rotation tick synchronously and schedules the rest
func (app *Application) StartRotation(ctx context.Context) error {
	return app.Monitor.Start(ctx)
}

// RunRotationWorker keeps the rotation monitor alive until ctx is cancelled.
// StartRotation must have been called first.
func (app *Application) RunRotationWorker(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	logger := zerolog.Ctx(ctx).With().Str("function", "RunRotationWorker").Logger()
	logger.Info().Dur("interval", app.config.Rotation.Interval).Msg("Rotation worker running")

	<-ctx.Done()
	logger.Info().Msg("Stopping rotation worker...")

	app.Monitor.Stop()

	logger.Info().Msg("Rotation worker stopped")
}

func (app *Application) registerRoutes(ctx context.Context, router *gin.Engine) {
	// Configure CORS
	config := cors.DefaultConfig()
	config.AllowOrigins = *app.config.AllowOrigins
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", "X-API-Secret"}
	config.AllowCredentials = true

	router.Use(cors.New(config))

	handler.SetMiddlewares(ctx, router)

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	challengeHandler := handler.NewChallengeHandler(app.ChallengeService)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handler.HandleHealthCheck)

		v1.GET("/challenges", challengeHandler.ListChallenges)
		v1.GET("/challenges/current", challengeHandler.GetCurrentChallenge)
		v1.GET("/challenges/upcoming", challengeHandler.GetUpcomingChallenges)
		v1.GET("/challenges/:id", challengeHandler.GetChallenge)
	}

	if app.config.APISecret == nil {
		zerolog.Ctx(ctx).Warn().Msg("API_SECRET not set, operator endpoints disabled")
		return
	}

	perMinute := app.config.Rotation.RefreshRatePerMinute
	refreshLimiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)

	operator := v1.Group("/challenges", handler.SharedSecretMiddleware(*app.config.APISecret))
	{
		operator.POST("/refresh", handler.RateLimitMiddleware(refreshLimiter), challengeHandler.ForceRefresh)
		operator.POST("/schedule", challengeHandler.InitializeSchedule)
	}
}
