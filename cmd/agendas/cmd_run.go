package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jasonatclarkey/council-meeting-agenda-scraper/internal/app"
	"github.com/jasonatclarkey/council-meeting-agenda-scraper/internal/config"
	"github.com/jasonatclarkey/council-meeting-agenda-scraper/internal/logger"
	"github.com/jasonatclarkey/council-meeting-agenda-scraper/pkg/scrapers"
)

var runFlags struct {
	councils string
	interval time.Duration
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the agenda pipeline for every (or the selected) council",
	Args:  cobra.NoArgs,
	RunE:  runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlags.councils, "councils", "", "Comma separated council names to run (default all)")
	f.DurationVar(&runFlags.interval, "interval", 0, "Repeat the run on this interval until interrupted (overrides RUN_INTERVAL_SECONDS)")
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cmd.Flags().Changed("interval") {
		cfg.RunInterval = runFlags.interval
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("agendas starting", "config", cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner, err := app.NewRunner(ctx, cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize runner", "error", err)
		return err
	}
	defer func() {
		if err := runner.Close(); err != nil {
			log.ErrorObj("runner close failed", "error", err)
		}
	}()

	if err := runner.Run(ctx, scrapers.ParseAllowList(runFlags.councils)); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("run interrupted: %w", err)
		}
		return fmt.Errorf("run: %w", err)
	}
	return nil
}

// background is used by commands that do not need signal handling.
func background(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
