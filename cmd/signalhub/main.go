package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/newthinker/signalhub/internal/backend"
	"github.com/newthinker/signalhub/internal/config"
	"github.com/newthinker/signalhub/internal/logger"
	"github.com/newthinker/signalhub/internal/metrics"
	"github.com/newthinker/signalhub/internal/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile    string
	debug      bool
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "signalhub",
	Short: "signalhub - trading signals data service",
	Long: `signalhub serves trading signals, providers, accounts, simulated
backtests and AI chart analysis. Data comes from PostgreSQL or SQLite when
configured, and from the built-in demo dataset otherwise.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading .env: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// appEnv bundles what every data command needs.
type appEnv struct {
	cfg     *config.Config
	log     *zap.Logger
	svc     *service.Service
	metrics *metrics.Registry
}

func (rt *appEnv) Close() {
	if err := rt.svc.Close(); err != nil {
		rt.log.Warn("closing backend", zap.Error(err))
	}
	rt.log.Sync()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// setup loads configuration and connects the facade to the configured
// backend, or to the demo dataset when none is reachable.
func setup(ctx context.Context) (*appEnv, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if debug {
		level = "debug"
	}
	log := logger.Must(debug, level)

	reg := metrics.NewRegistry()
	primary := backend.Open(ctx, cfg.Backend, logger.Component(log, "backend"))
	svc := service.New(primary, nil, service.Options{
		Delay:          cfg.Mock.Delay,
		BacktestDelay:  cfg.Mock.BacktestDelay,
		DeleteIdentity: cfg.Admin.DeleteIdentity,
	}, logger.Component(log, "service"))
	svc.SetRecorder(reg)

	return &appEnv{cfg: cfg, log: log, svc: svc, metrics: reg}, nil
}
