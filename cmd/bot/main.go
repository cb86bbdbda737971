package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robalyx/invitegate/internal/ai"
	"github.com/robalyx/invitegate/internal/bot"
	"github.com/robalyx/invitegate/internal/bot/ratelimit"
	"github.com/robalyx/invitegate/internal/events"
	"github.com/robalyx/invitegate/internal/gate"
	"github.com/robalyx/invitegate/internal/locale"
	"github.com/robalyx/invitegate/internal/setup"
	"github.com/robalyx/invitegate/internal/telegram"
	"github.com/robalyx/invitegate/internal/worker/retention"
	"github.com/sourcegraph/conc"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// BotLogDir specifies where bot log files are stored.
const BotLogDir = "logs/bot_logs"

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	app := &cli.Command{
		Name:  "bot",
		Usage: "Run the invite gate bot",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the config file",
			},
			&cli.StringFlag{
				Name:  "log-dir",
				Value: BotLogDir,
				Usage: "Directory of the log sessions",
			},
			&cli.BoolFlag{
				Name:  "migrate",
				Usage: "Apply pending database migrations on startup",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return runBot(ctx, setup.Options{
				ConfigPath: c.String("config"),
				LogDir:     c.String("log-dir"),
				Component:  "bot",
				Migrate:    c.Bool("migrate"),
			})
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return app.Run(ctx, os.Args)
}

func runBot(ctx context.Context, opts setup.Options) error {
	app, err := setup.InitializeApp(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.Cleanup()

	cfg := app.Config
	logger := app.Logger

	texts, err := locale.New(cfg.Gate.Language)
	if err != nil {
		return err
	}

	platform, err := telegram.NewClient(&cfg.Telegram, logger)
	if err != nil {
		return err
	}

	conversations := app.DB.Model().Conversation()

	gatekeeper := gate.New(app.DB.Service().Member(), platform, texts, logger)
	responder := ai.NewResponder(
		app.AIClient.Chat(), conversations, texts, &cfg.OpenAI, &cfg.Retry, app.RetentionWindow(), logger,
	)

	limiter, err := replyLimiter(app)
	if err != nil {
		return err
	}

	dispatcher := bot.New(
		gatekeeper,
		platform,
		responder,
		limiter,
		texts,
		ai.RetryPolicy(&cfg.Retry),
		cfg.Telegram.MaxConcurrentUpdates,
		logger,
	)

	sweeper := retention.New(
		conversations,
		app.RetentionWindow(),
		time.Duration(cfg.Retention.SweepInterval)*time.Hour,
		logger,
	)

	logger.Info("Bot has been started",
		zap.Int64("botID", platform.BotID()),
		zap.String("language", texts.Language().String()))

	source := make(chan events.Event)

	var wg conc.WaitGroup
	wg.Go(func() { platform.Listen(ctx, source) })
	wg.Go(func() { sweeper.Start(ctx) })

	dispatcher.Run(ctx, source)
	wg.Wait()

	logger.Info("Bot stopped")

	return nil
}

// replyLimiter builds the assistant reply quota, unlimited when Redis is not
// configured.
func replyLimiter(app *setup.App) (bot.Limiter, error) {
	client, err := app.ReplyLimiterClient()
	if err != nil {
		return nil, err
	}

	if client == nil {
		return ratelimit.Unlimited{}, nil
	}

	window := time.Duration(app.Config.OpenAI.ReplyWindow) * time.Second

	return ratelimit.New(client, app.Config.OpenAI.ReplyLimit, window, app.Logger), nil
}
