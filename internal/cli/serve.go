package cli

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"taskboard/internal/bot"
	"taskboard/internal/config"
	"taskboard/internal/notify"
	"taskboard/internal/server"
	"taskboard/internal/service"
)

func newServeCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the REST API, the digest schedule and the Telegram bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, root)
		},
	}
	cmd.Flags().IntVar(&root.port, "port", 0, "listen port (overrides PORT)")
	return cmd
}

func runServe(ctx context.Context, cfg config.Config, root *rootOptions) error {
	a, err := openApp(cfg, root.logLevel())
	if err != nil {
		return err
	}
	defer a.Close()

	notifier, err := buildNotifier(cfg)
	if err != nil {
		return err
	}

	scheduler := service.NewSchedulerService(time.Local)
	id, err := scheduler.ScheduleReport(cfg.ReportAt, cfg.ReportInterval, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := sendDigest(jobCtx, a.summaries, notifier); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("[warn] digest: %v", err)
		}
	})
	switch {
	case errors.Is(err, service.ErrNoSchedule):
		log.Printf("[info] digest schedule disabled")
	case err != nil:
		return err
	default:
		scheduler.Start()
		defer scheduler.Stop()
		log.Printf("[info] next digest at %s", scheduler.Next(id).Format(time.RFC3339))
	}

	srv := server.New(server.Services{
		Tasks:      a.tasks,
		Categories: a.categories,
		Users:      a.users,
		Summaries:  a.summaries,
		Ping:       a.sqlDB.PingContext,
	}, server.Options{
		Prefix:      cfg.APIPrefix,
		AllowOrigin: cfg.FrontendOrigin,
		LogRequests: cfg.Development(),
	})

	var tgBot *bot.Bot
	if cfg.BotEnabled() {
		tgBot, err = bot.New(cfg.TelegramToken, bot.Services{
			Users:      a.users,
			Categories: a.categories,
			Tasks:      a.tasks,
			Summaries:  a.summaries,
		})
		if err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx, cfg.Addr()) })
	if tgBot != nil {
		g.Go(func() error { return tgBot.Start(gctx) })
	}

	log.Printf("[info] taskboard started (%s, db=%s, bot=%t)", cfg.Env, cfg.DBDriver, cfg.BotEnabled())
	if err := g.Wait(); err != nil {
		return err
	}
	log.Println("[info] shutdown complete")
	return nil
}

func buildNotifier(cfg config.Config) (notify.Notifier, error) {
	notifiers := notify.Multi{notify.NewLogNotifier(nil)}
	if cfg.TelegramEnabled() {
		tg, err := notify.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, tg)
	}
	return notifiers, nil
}

func sendDigest(ctx context.Context, summaries *service.SummaryService, n notify.Notifier) error {
	text, err := summaries.Digest(ctx, time.Now())
	if err != nil {
		return err
	}
	return n.Notify(ctx, text)
}
