package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/robalyx/invitegate/internal/database"
	"github.com/robalyx/invitegate/internal/database/migrations"
	"github.com/robalyx/invitegate/internal/setup/config"
	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

var (
	ErrNameRequired = errors.New("NAME argument required")
	ErrInvalidDays  = errors.New("days must be at least 1")
)

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

// tool holds the connections opened before a command runs.
type tool struct {
	db       database.Client
	migrator *migrate.Migrator
	config   *config.Config
	logger   *zap.Logger
}

func run() error {
	app := &cli.Command{
		Name:  "db",
		Usage: "Database management tool",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the config file",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Initialize migration tables",
				Action: withTool(func(t *tool, ctx context.Context, _ *cli.Command) error {
					return t.migrator.Init(ctx)
				}),
			},
			{
				Name:   "migrate",
				Usage:  "Run pending migrations",
				Action: withTool((*tool).migrate),
			},
			{
				Name:   "rollback",
				Usage:  "Rollback the last migration group",
				Action: withTool((*tool).rollback),
			},
			{
				Name:   "status",
				Usage:  "Show migration status",
				Action: withTool((*tool).status),
			},
			{
				Name:      "create",
				Usage:     "Create a new Go migration file",
				ArgsUsage: "NAME",
				Action:    withTool((*tool).create),
			},
			{
				Name:  "cleanup",
				Usage: "Delete assistant conversation turns older than the retention window",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "days",
						Usage: "Retention window in days, defaults to the configured one",
					},
				},
				Action: withTool((*tool).cleanup),
			},
		},
	}

	return app.Run(context.Background(), os.Args)
}

// withTool connects to the database before running a command and closes
// the connection afterwards.
func withTool(action func(*tool, context.Context, *cli.Command) error) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		t := &tool{}
		if err := t.open(ctx, c.String("config")); err != nil {
			return fmt.Errorf("failed to setup migrator: %w", err)
		}
		defer t.close() //nolint:errcheck

		return action(t, ctx, c)
	}
}

// open loads the database settings and connects.
func (t *tool) open(ctx context.Context, configPath string) error {
	cfg, _, err := config.LoadDatabaseConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	db, err := database.NewConnection(ctx, &cfg.PostgreSQL, cfg.Gate.DefaultRequired, logger, false)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	t.db = db
	t.migrator = migrate.NewMigrator(db.DB(), migrations.Migrations)
	t.config = cfg
	t.logger = logger

	return nil
}

func (t *tool) close() error {
	if t.db == nil {
		return nil
	}
	_ = t.logger.Sync()
	return t.db.Close()
}

func (t *tool) migrate(ctx context.Context, _ *cli.Command) error {
	if err := t.migrator.Init(ctx); err != nil {
		return err
	}

	if err := t.migrator.Lock(ctx); err != nil {
		return err
	}
	defer t.migrator.Unlock(ctx) //nolint:errcheck

	group, err := t.migrator.Migrate(ctx)
	if err != nil {
		return err
	}

	if group.IsZero() {
		t.logger.Info("No new migrations to run (database is up to date)")
		return nil
	}

	t.logger.Info("Successfully migrated", zap.String("group", group.String()))

	return nil
}

func (t *tool) rollback(ctx context.Context, _ *cli.Command) error {
	if err := t.migrator.Lock(ctx); err != nil {
		return err
	}
	defer t.migrator.Unlock(ctx) //nolint:errcheck

	group, err := t.migrator.Rollback(ctx)
	if err != nil {
		return err
	}

	if group.IsZero() {
		t.logger.Info("No groups to roll back")
		return nil
	}

	t.logger.Info("Successfully rolled back", zap.String("group", group.String()))

	return nil
}

func (t *tool) status(ctx context.Context, _ *cli.Command) error {
	ms, err := t.migrator.MigrationsWithStatus(ctx)
	if err != nil {
		return err
	}

	t.logger.Info("Migration status",
		zap.String("migrations", ms.String()),
		zap.String("unapplied", ms.Unapplied().String()),
		zap.String("last_group", ms.LastGroup().String()))

	return nil
}

func (t *tool) create(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() != 1 {
		return ErrNameRequired
	}

	mf, err := t.migrator.CreateGoMigration(ctx, c.Args().First())
	if err != nil {
		return err
	}

	t.logger.Info("Created Go migration",
		zap.String("name", mf.Name),
		zap.String("path", mf.Path))

	return nil
}

func (t *tool) cleanup(ctx context.Context, c *cli.Command) error {
	days := t.config.Retention.Days
	if c.IsSet("days") {
		days = int(c.Int("days"))
	}
	if days < 1 {
		return ErrInvalidDays
	}

	cutoff := time.Now().Add(-time.Duration(days) * 24 * time.Hour)

	deleted, err := t.db.Model().Conversation().DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}

	t.logger.Info("Deleted old conversation turns",
		zap.Int64("count", deleted),
		zap.Int("days", days),
		zap.Time("cutoff", cutoff))

	return nil
}
