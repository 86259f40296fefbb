package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ripeness-detector/config"
	"ripeness-detector/internal/container"
	"ripeness-detector/internal/infrastructure/storage"
	applog "ripeness-detector/internal/log"
)

// version is set at build time via -ldflags.
var version = "dev"

// cli holds state shared by the subcommands of one invocation.
type cli struct {
	configPath string
	analyzer   string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "ripeness",
		Short: "Banana ripeness detector",
		Long: "Counts unripe, ripe and overripe bananas in a photo.\n" +
			"Runs as a web app, a Telegram bot, or a one-shot command.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.load()
		},
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&c.analyzer, "analyzer", "", "analyzer to use: stub, remote or gemini (overrides ANALYZER)")

	root.AddCommand(newServeCmd(c))
	root.AddCommand(newBotCmd(c))
	root.AddCommand(newAnalyzeCmd(c))

	return root
}

func (c *cli) load() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if c.analyzer != "" {
		cfg.Analyzer = c.analyzer
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	applog.Init(cfg.LogLevel)
	c.cfg = cfg
	return nil
}

func (c *cli) container() (*container.Container, error) {
	return container.New(c.cfg, storage.NewMemorySessionRepository())
}
