package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"dealradar/config"
	"dealradar/pipeline"
	"dealradar/utils"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the pipeline on a cron schedule",
	Long: `schedule keeps the process alive and executes a pipeline run on the
configured cron expression. A failed run is logged and the next one still
fires; overlapping runs are skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		logger := newLogger(cfg)
		defer logger.Sync()

		p, err := pipeline.New(cfg, logger)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cl := cronLogger{logger}
		c := cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cl),
			cron.Recover(cl),
		))

		entryID, err := c.AddFunc(cfg.Schedule.Cron, func() {
			if _, err := p.Run(ctx); err != nil {
				logger.Error("[schedule] Run failed: %v", err)
			}
		})
		if err != nil {
			return fmt.Errorf("%w: schedule.cron %q: %v", config.ErrInvalid, cfg.Schedule.Cron, err)
		}

		c.Start()
		logger.Info("[schedule] Started — cron %q, next run at %s",
			cfg.Schedule.Cron, c.Entry(entryID).Next.Format(time.RFC3339))

		<-ctx.Done()
		logger.Info("[schedule] Shutting down — waiting for any running job")
		<-c.Stop().Done()
		return nil
	},
}

// cronLogger adapts utils.Logger to the cron.Logger interface.
type cronLogger struct {
	l *utils.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug("[schedule] %s %v", msg, keysAndValues)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error("[schedule] %s: %v %v", msg, err, keysAndValues)
}

func init() {
	scheduleCmd.Flags().String("mode", "", "source mode: demo, seed or live")
	rootCmd.AddCommand(scheduleCmd)
}
