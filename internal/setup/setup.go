package setup

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/rueidis"
	aiClient "github.com/robalyx/invitegate/internal/ai/client"
	"github.com/robalyx/invitegate/internal/database"
	"github.com/robalyx/invitegate/internal/database/migrations"
	"github.com/robalyx/invitegate/internal/redis"
	"github.com/robalyx/invitegate/internal/setup/config"
	"github.com/robalyx/invitegate/internal/setup/telemetry"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"
)

// ErrPendingMigrations is returned when the schema is behind and migrations
// were not requested.
var ErrPendingMigrations = errors.New("database migrations are pending")

// Options controls how the application is bootstrapped.
type Options struct {
	// ConfigPath is an explicit config file, empty to search the default locations.
	ConfigPath string
	// LogDir is the base directory of the log sessions.
	LogDir string
	// Component names the binary in the logs.
	Component string
	// Migrate applies pending migrations instead of failing.
	Migrate bool
}

// App bundles the core dependencies of the bot.
type App struct {
	Config       *config.Config     // Application configuration
	Logger       *zap.Logger        // Main application logger
	DBLogger     *zap.Logger        // Database-specific logger
	DB           database.Client    // Database connection pool
	AIClient     *aiClient.AIClient // Chat-completion client
	RedisManager *redis.Manager     // Redis connection manager, nil when Redis is disabled
	LogManager   *telemetry.Manager // Log management system
}

// InitializeApp bootstraps all application dependencies in order, each
// component getting the ones it needs.
func InitializeApp(ctx context.Context, opts Options) (*App, error) {
	cfg, configPath, err := config.LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	// Logging system is initialized next to capture setup issues
	logManager := telemetry.NewManager(opts.LogDir, opts.Component, &cfg.Debug)

	logger, dbLogger, err := logManager.GetLoggers()
	if err != nil {
		return nil, err
	}

	logger.Info("Configuration loaded", zap.String("path", configPath))

	db, err := checkAndRunMigrations(ctx, cfg, dbLogger.Named("database"), opts.Migrate)
	if err != nil {
		_ = logManager.Close()
		return nil, err
	}

	var redisManager *redis.Manager
	if cfg.Redis.Enabled() {
		redisManager = redis.NewManager(&cfg.Redis, logger)
	}

	return &App{
		Config:       cfg,
		Logger:       logger,
		DBLogger:     dbLogger.Named("database"),
		DB:           db,
		AIClient:     aiClient.NewClient(&cfg.OpenAI, &cfg.CircuitBreaker, logger),
		RedisManager: redisManager,
		LogManager:   logManager,
	}, nil
}

// ReplyLimiterClient returns the Redis client of the reply quota, or nil
// when Redis or the quota is disabled.
func (s *App) ReplyLimiterClient() (rueidis.Client, error) {
	if s.RedisManager == nil || s.Config.OpenAI.ReplyLimit <= 0 {
		return nil, nil //nolint:nilnil // disabled
	}

	return s.RedisManager.GetClient(redis.RatelimitDBIndex)
}

// RetentionWindow returns how long conversation turns are kept.
func (s *App) RetentionWindow() time.Duration {
	return time.Duration(s.Config.Retention.Days) * 24 * time.Hour
}

// Cleanup shuts components down in reverse initialization order. Errors are
// logged so every component gets a chance to close.
func (s *App) Cleanup() {
	if err := s.Logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	if err := s.DBLogger.Sync(); err != nil {
		log.Printf("Failed to sync DB logger: %v", err)
	}

	if err := s.DB.Close(); err != nil {
		log.Printf("Failed to close database connection: %v", err)
	}

	if s.RedisManager != nil {
		s.RedisManager.Close()
	}

	if err := s.LogManager.Close(); err != nil {
		log.Printf("Failed to close log files: %v", err)
	}
}

// checkAndRunMigrations connects to the database and makes sure the schema
// is current, applying pending migrations when allowed.
func checkAndRunMigrations(
	ctx context.Context, cfg *config.Config, dbLogger *zap.Logger, allowMigrate bool,
) (database.Client, error) {
	db, err := database.NewConnection(ctx, &cfg.PostgreSQL, cfg.Gate.DefaultRequired, dbLogger, false)
	if err != nil {
		return nil, err
	}

	migrator := migrate.NewMigrator(db.DB(), migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize migrations: %w", err)
	}

	ms, err := migrator.MigrationsWithStatus(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to check migration status: %w", err)
	}

	unapplied := ms.Unapplied()
	if len(unapplied) == 0 {
		return db, nil
	}

	if !allowMigrate {
		db.Close()
		return nil, fmt.Errorf("%w: %d unapplied, run the db migrate command or start with --migrate",
			ErrPendingMigrations, len(unapplied))
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	dbLogger.Info("Applied pending migrations", zap.String("group", group.String()))

	return db, nil
}
