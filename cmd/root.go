package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lead-agent/internal/config"
)

var (
	cfg    *config.Config
	logger = zap.NewNop()

	configPath string
	dataDir    string
	logLevel   string
)

// skipConfig marks commands that must run without a valid config.
const skipConfig = "skip-config"

var rootCmd = &cobra.Command{
	Use:   "lead-agent",
	Short: "Lead discovery and outreach agent for a fitness business",
	Long: "Discovers prospects in social posts, scores them against the business's target " +
		"keywords and locations, keeps a deduplicated lead database, contacts the best " +
		"leads, and reports daily activity.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if cmd.Annotations[skipConfig] == "true" {
			return nil
		}

		c, err := config.Load(configPath)
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		if dataDir != "" {
			c.Store.DataDir = dataDir
		}
		if logLevel != "" {
			c.Log.Level = logLevel
		}
		cfg = c

		l, err := config.InitLogger(cfg.Log)
		if err != nil {
			return eris.Wrap(err, "init logger")
		}
		logger = l

		for _, w := range cfg.Warnings {
			logger.Warn("config: " + w)
		}
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "directory for leads, reports, and the lock file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
