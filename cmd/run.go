package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"dealradar/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one pipeline run",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		logger := newLogger(cfg)
		defer logger.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		p, err := pipeline.New(cfg, logger)
		if err != nil {
			return err
		}

		summary, err := p.Run(ctx)
		if err != nil {
			logger.Error("Run failed: %v", err)
			return err
		}

		fmt.Printf("OK — %d listings, %d alerts, %d top deals → %s\n",
			summary.ListingCount, summary.AlertCount, summary.TopCount, cfg.OutputDir)
		return nil
	},
}

func init() {
	runCmd.Flags().String("mode", "", "source mode: demo, seed or live")
	runCmd.Flags().String("seed-file", "", "seed records file (json or yaml)")
	runCmd.Flags().String("out", "", "output directory for the artifacts")
	runCmd.Flags().Int("top", 0, "number of top deals to publish")
	rootCmd.AddCommand(runCmd)
}
