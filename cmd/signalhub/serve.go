package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newthinker/signalhub/internal/api"
	"github.com/newthinker/signalhub/internal/auth"
	"github.com/newthinker/signalhub/internal/logger"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// purgeSchedule runs the reset token cleanup at minute 0 of every hour.
const purgeSchedule = "0 * * * *"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the signalhub API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, err := setup(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()
	cfg, log := rt.cfg, rt.log

	if cfg.Server.JWTSecret == "" {
		log.Warn("server.jwt_secret not set, signing tokens with the development secret")
	}

	analyzer, err := newAnalyzer(rt)
	if err != nil {
		return err
	}

	deps := api.Dependencies{
		Service:  rt.svc,
		Analyzer: analyzer,
		Tokens:   auth.NewTokenIssuer(cfg.Server.JWTSecret, cfg.Server.TokenTTL),
	}
	metricsPath := ""
	if cfg.Metrics.Enabled {
		deps.Metrics = rt.metrics
		metricsPath = cfg.Metrics.Path
	}

	server, err := api.NewServer(api.Config{
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		APIKey:      cfg.Server.APIKey,
		MetricsPath: metricsPath,
	}, deps, logger.Component(log, "api"))
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	scheduler := cron.New()
	if rt.svc.CanPurge() {
		_, err := scheduler.AddFunc(purgeSchedule, func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			n, err := rt.svc.PurgeExpiredResets(jobCtx)
			if err != nil {
				log.Error("reset token purge failed", zap.Error(err))
				return
			}
			rt.metrics.RecordResetsPurged(n)
		})
		if err != nil {
			return fmt.Errorf("scheduling reset purge: %w", err)
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	log.Info("starting signalhub server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.String("backend", rt.svc.Mode()),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	log.Info("shutting down signalhub server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}
