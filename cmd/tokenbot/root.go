package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sipeed/tokenbot/pkg/config"
	"github.com/sipeed/tokenbot/pkg/logger"
)

// NewRootCmd creates the root command for tokenbot.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokenbot",
		Short: "Telegram bot that analyzes ERC-20 token contracts",
		Long: `tokenbot answers Telegram users with a security and market report for an
EVM contract address. Settings come from an optional YAML file and the
environment (TELEGRAM_BOT_TOKEN, MAX_MESSAGE_LENGTH, PORT, ...).`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML config file")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewCheckCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the --config file and environment and installs the
// configured logger.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	if err := logger.Init(level, cfg.Logging.Format); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, nil
}
