package main

import (
	"errors"

	"github.com/spf13/cobra"

	"ripeness-detector/internal/api/telegram"
)

func newBotCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Run only the Telegram bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c.cfg.TelegramToken == "" {
				return errors.New("TELEGRAM_TOKEN is required")
			}

			ct, err := c.container()
			if err != nil {
				return err
			}

			bot, err := telegram.NewBot(c.cfg.TelegramToken, ct.SessionService, ct.AnalysisService)
			if err != nil {
				return err
			}

			return bot.Run(cmd.Context())
		},
	}
}
