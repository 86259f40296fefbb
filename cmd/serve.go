package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"ripeness-detector/internal/api/telegram"
	"ripeness-detector/internal/api/web"
	applog "ripeness-detector/internal/log"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the web UI, plus the Telegram bot when TELEGRAM_TOKEN is set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.serve(cmd.Context())
		},
	}
}

func (c *cli) serve(ctx context.Context) error {
	ct, err := c.container()
	if err != nil {
		return err
	}

	server := web.NewServer(c.cfg.HTTPAddr, ct.AnalysisService, c.cfg.MaxUploadBytes)

	var bot *telegram.Bot
	if c.cfg.TelegramToken != "" {
		bot, err = telegram.NewBot(c.cfg.TelegramToken, ct.SessionService, ct.AnalysisService)
		if err != nil {
			return err
		}
	} else {
		applog.Info("TELEGRAM_TOKEN not set, bot disabled")
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(server.Start)

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if bot != nil {
		g.Go(func() error {
			return bot.Run(gctx)
		})
	}

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
