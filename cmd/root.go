package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"dealradar/config"
	"dealradar/pipeline"
	"dealradar/source"
	"dealradar/utils"
)

const version = "0.1.0"

// Exit codes, one per failure class, so a cron wrapper can tell a bad
// config from a dead feed without parsing logs.
const (
	exitFailure     = 1
	exitConfig      = 2
	exitUnavailable = 3
	exitNoListings  = 4
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "dealradar",
	Short: "Finds and ranks underpriced real-estate listings",
	Long: `dealradar runs a periodic pipeline over real-estate listings:
fetch from a demo, seed or live source, normalize, deduplicate, score
against the market baseline, and publish alerts.json, top_deals.json and
last_run.json for a static page.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and maps failures onto exit codes.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, config.ErrInvalid), errors.Is(err, source.ErrSeedInvalid):
		return exitConfig
	case errors.Is(err, source.ErrUnavailable):
		return exitUnavailable
	case errors.Is(err, pipeline.ErrNoValidListings):
		return exitNoListings
	default:
		return exitFailure
	}
}

// loadConfig reads configuration and applies command-line overrides on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	if v, _ := cmd.Flags().GetString("mode"); v != "" {
		cfg.Mode = v
	}
	if v, _ := cmd.Flags().GetString("seed-file"); v != "" {
		cfg.Seed.File = v
	}
	if v, _ := cmd.Flags().GetString("out"); v != "" {
		cfg.OutputDir = v
	}
	if v, _ := cmd.Flags().GetInt("top"); v > 0 {
		cfg.TopN = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *utils.Logger {
	level := cfg.Log.Level
	if debug {
		level = "debug"
	}
	return utils.NewLogger(level, cfg.Log.Format)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}
