package main

import (
	"context"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lead-agent/internal/config"
)

var daemonNow bool

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run cycles on the configured cron schedule",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initAgent(ctx, agentOptions{})
		if err != nil {
			return err
		}
		defer env.Close()

		c, err := newScheduler(ctx, cfg.Schedule.Cron, func(ctx context.Context) {
			printCycle(env.Agent.RunCycle(ctx))
		})
		if err != nil {
			return err
		}

		if daemonNow {
			c.runNow(ctx)
		}

		c.cron.Start()
		logger.Info("daemon started", zap.String("schedule", cfg.Schedule.Cron))
		<-ctx.Done()

		logger.Info("daemon stopping, waiting for the running cycle")
		<-c.cron.Stop().Done()
		return nil
	},
}

func init() {
	daemonCmd.Flags().BoolVar(&daemonNow, "now", false, "run a cycle immediately before waiting for the schedule")
	rootCmd.AddCommand(daemonCmd)
}

// scheduler runs job on a cron spec, skipping a tick while a previous run
// is still going.
type scheduler struct {
	cron    *cron.Cron
	job     func(ctx context.Context)
	running atomic.Bool
}

func newScheduler(ctx context.Context, spec string, job func(ctx context.Context)) (*scheduler, error) {
	s := &scheduler{cron: cron.New(cron.WithParser(config.CronParser)), job: job}
	if _, err := s.cron.AddFunc(spec, func() { s.runNow(ctx) }); err != nil {
		return nil, eris.Wrapf(err, "daemon: parse schedule %q", spec)
	}
	return s, nil
}

// runNow runs the job unless one is in flight. It reports whether it ran.
func (s *scheduler) runNow(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	if !s.running.CompareAndSwap(false, true) {
		logger.Warn("daemon: previous cycle still running, skipping tick")
		return false
	}
	defer s.running.Store(false)
	s.job(ctx)
	return true
}
