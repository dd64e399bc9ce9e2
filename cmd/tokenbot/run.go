package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sipeed/tokenbot/pkg/analyzer"
	"github.com/sipeed/tokenbot/pkg/bus"
	"github.com/sipeed/tokenbot/pkg/chains"
	"github.com/sipeed/tokenbot/pkg/channels"
	"github.com/sipeed/tokenbot/pkg/config"
	"github.com/sipeed/tokenbot/pkg/dispatch"
	"github.com/sipeed/tokenbot/pkg/formatter"
	"github.com/sipeed/tokenbot/pkg/guard"
	"github.com/sipeed/tokenbot/pkg/health"
	"github.com/sipeed/tokenbot/pkg/logger"
	"github.com/sipeed/tokenbot/pkg/metrics"
)

const (
	busBuffer       = 64
	shutdownTimeout = 5 * time.Second
)

func NewRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the Telegram bot",
		Long: `Start long polling Telegram and serve analysis requests until SIGINT or
SIGTERM. When health.enabled is set, /health, /ready, /live and /metrics are
served on PORT.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runBot(ctx, cfg)
		},
	}
}

func loadChains(cfg *config.Config) (*chains.Registry, error) {
	if cfg.ChainsFile == "" {
		return chains.Default(), nil
	}
	return chains.Load(cfg.ChainsFile)
}

func newAnalyzer(cfg *config.Config, registry *chains.Registry) *analyzer.Client {
	return analyzer.New(analyzer.Options{
		DexScreenerURL: cfg.Analyzer.DexScreenerURL,
		GoPlusURL:      cfg.Analyzer.GoPlusURL,
		Timeout:        cfg.Analyzer.Timeout,
		Chains:         registry,
	})
}

func runBot(ctx context.Context, cfg *config.Config) error {
	registry, err := loadChains(cfg)
	if err != nil {
		return err
	}

	m := metrics.New()
	b := bus.NewMessageBus(busBuffer)

	tg, err := channels.NewTelegramChannel(cfg.Telegram, b)
	if err != nil {
		return err
	}

	d, err := dispatch.New(dispatch.Options{
		Transport:        tg,
		Analyzer:         newAnalyzer(cfg, registry),
		Formatter:        formatter.New(registry),
		Chains:           registry,
		Networks:         registry.All(),
		Guard:            guard.New(),
		Metrics:          m,
		MaxMessageLength: cfg.Delivery.MaxMessageLength,
		ReservedMargin:   cfg.Delivery.ReservedMargin,
	})
	if err != nil {
		return err
	}
	router := dispatch.NewRouter(d)

	if err := tg.Start(ctx); err != nil {
		return err
	}
	router.RegisterCommands(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		router.Run(gctx, b)
		return nil
	})

	if cfg.Health.Enabled {
		hs := health.NewServer(fmt.Sprintf(":%d", cfg.Health.Port), m)
		hs.RegisterCheck("telegram", func() (bool, string) {
			if tg.IsRunning() {
				return true, "polling"
			}
			return false, "stopped"
		})
		hs.SetReady(true)

		g.Go(hs.Start)
		g.Go(func() error {
			<-gctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return hs.Shutdown(sctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.InfoC("tokenbot", "Shutting down")
		defer b.Close()
		return tg.Stop(context.Background())
	})

	logger.InfoCF("tokenbot", "Bot is running", map[string]any{
		"chains":         len(registry.All()),
		"max_length":     cfg.Delivery.MaxMessageLength,
		"health_enabled": cfg.Health.Enabled,
	})
	return g.Wait()
}
