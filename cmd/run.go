package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lead-agent/internal/agent"
)

var (
	runNoOutreach bool
	runDryRun     bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one discovery, outreach, and report cycle",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initAgent(ctx, agentOptions{NoOutreach: runNoOutreach, DryRun: runDryRun})
		if err != nil {
			return err
		}
		defer env.Close()

		res := env.Agent.RunCycle(ctx)
		printCycle(res)
		if !res.OK() {
			return eris.Wrap(res.Err, "run cycle")
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&runNoOutreach, "no-outreach", false, "skip outreach for this cycle")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "score, merge, and report without contacting or saving")
	rootCmd.AddCommand(runCmd)
}

// printCycle writes the cycle report to stdout and the counters to the log.
func printCycle(res *agent.CycleResult) {
	logger.Info("cycle summary",
		zap.String("run_id", res.RunID),
		zap.Int("loaded", res.Loaded),
		zap.Int("discovered", res.Discovered),
		zap.Int("added", res.Added),
		zap.Int("duplicates", res.Duplicates),
		zap.Int("pruned", res.Pruned),
		zap.Int("truncated", res.Truncated),
		zap.Int("contacted", res.Contacted),
		zap.Int("outreach_failed", res.OutreachFailed),
		zap.Duration("duration", res.Duration),
	)
	if res.Report != nil {
		formatReport(os.Stdout, *res.Report)
		fmt.Fprintln(os.Stdout)
	}
}
