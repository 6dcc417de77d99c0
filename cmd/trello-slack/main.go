package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gordonpn/trello-slack-relay/internal/config"
	"github.com/gordonpn/trello-slack-relay/internal/logging"
)

var (
	configPath string

	cfg    config.Config
	logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
)

var rootCmd = &cobra.Command{
	Use:           "trello-slack",
	Short:         "Relay Trello board activity to chat channels",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(); err != nil {
			return err
		}
		if configPath == "" {
			configPath = os.Getenv("CONFIG_FILE")
		}

		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded

		log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
		if err != nil {
			return err
		}
		logger = log
		return nil
	},
	RunE: runRelay,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the YAML config (default $CONFIG_FILE or config.yaml)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(bookmarkCmd)
	rootCmd.AddCommand(checkConfigCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error().Err(err).Msg("fatal")
		os.Exit(1)
	}
}
