package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sipeed/tokenbot/pkg/address"
	"github.com/sipeed/tokenbot/pkg/chunker"
	"github.com/sipeed/tokenbot/pkg/formatter"
)

// NewCheckCmd creates the check command, which runs one analysis and prints
// the report the bot would send.
func NewCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <contract-address>",
		Short: "Analyze one contract address and print the report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !address.IsValid(args[0]) {
				return fmt.Errorf("invalid contract address %q: want 0x followed by 40 hex digits", args[0])
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Delivery.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			registry, err := loadChains(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Analyzer.Timeout)
			defer cancel()
			report, err := newAnalyzer(cfg, registry).Analyze(ctx, args[0])
			if err != nil {
				return fmt.Errorf("analyze %s: %w", address.Short(args[0]), err)
			}
			payload, err := formatter.New(registry).Format(report)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, payload.Text)
			fmt.Fprintln(out)
			if url, ok := registry.ExplorerURL(payload.Chain, payload.Address); ok {
				fmt.Fprintf(out, "Explorer: %s\n", url)
			}
			parts := 1
			if len([]rune(payload.Text)) > cfg.Delivery.MaxMessageLength {
				parts = len(chunker.Split(payload.Text, cfg.Delivery.ChunkLength()))
			}
			fmt.Fprintf(out, "Messages: %d (limit %d characters)\n", parts, cfg.Delivery.MaxMessageLength)
			return nil
		},
	}
}
