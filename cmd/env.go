package main

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-agent/internal/agent"
	"github.com/sells-group/lead-agent/internal/discovery"
	"github.com/sells-group/lead-agent/internal/outreach"
	"github.com/sells-group/lead-agent/internal/report"
	"github.com/sells-group/lead-agent/internal/resilience"
	"github.com/sells-group/lead-agent/internal/scorer"
	"github.com/sells-group/lead-agent/internal/store"
)

type agentOptions struct {
	NoOutreach bool
	DryRun     bool
}

// agentEnv holds the agent and the resources it owns.
type agentEnv struct {
	Agent    *agent.Agent
	Store    store.LeadStore
	Reports  *report.FileStore
	Breakers *resilience.Breakers
	lock     *store.Lock
}

// Close releases the store and the data dir lock.
func (e *agentEnv) Close() {
	if err := e.Store.Close(); err != nil {
		logger.Warn("close store", zap.Error(err))
	}
	if err := e.lock.Release(); err != nil {
		logger.Warn("release lock", zap.Error(err))
	}
}

// initAgent wires an agent from cfg. Unless opts.DryRun is set it takes the
// data dir lock so that only one process writes the store.
func initAgent(ctx context.Context, opts agentOptions) (*agentEnv, error) {
	if err := os.MkdirAll(cfg.Store.DataDir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "create data dir %s", cfg.Store.DataDir)
	}

	env := &agentEnv{}
	if !opts.DryRun {
		lock, err := store.AcquireLock(cfg.Store.DataDir)
		if err != nil {
			return nil, err
		}
		env.lock = lock
	}

	st, err := store.Open(ctx, cfg.Store, logger)
	if err != nil {
		_ = env.lock.Release()
		return nil, eris.Wrap(err, "open store")
	}
	env.Store = st

	env.Breakers = resilience.NewBreakers(resilience.BreakerConfig{
		OnStateChange: func(name string, from, to resilience.CircuitState) {
			logger.Warn("source circuit changed",
				zap.String("source", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
		},
	})

	a := cfg.Automation
	collector := discovery.NewCollector(discovery.SampleSources(nil), discovery.CollectorConfig{
		MaxPosts: a.MaxLeadsPerDay,
		Retry:    resilience.NewRetryConfig(a.SourceRetries, a.RetryBackoff),
		Breakers: env.Breakers,
	}, logger)

	sender := outreach.NewSimulatedSender(outreach.SimulatedConfig{
		MinDelay:    a.SendDelayMin,
		MaxDelay:    a.SendDelayMax,
		SuccessRate: a.SuccessRate,
	}, nil, logger)
	runner := outreach.NewRunner(outreach.Config{
		Enabled:        a.OutreachEnabled && !opts.NoOutreach,
		MinScore:       a.MinOutreachScore,
		MaxPerDay:      a.MaxOutreachPerDay,
		RateLimitDelay: a.RateLimitDelay,
	}, outreach.Templates(cfg.Templates), sender, logger)

	env.Reports = report.NewFileStore(cfg.ReportPath(), cfg.Report.MaxReports, logger)

	env.Agent = agent.New(agent.Deps{
		Store:     st,
		Collector: collector,
		Scorer:    scorer.New(cfg.Scoring),
		Outreach:  runner,
		Reports:   env.Reports,
		Policy:    store.PolicyFromConfig(cfg.Store),
		Logger:    logger,
		DryRun:    opts.DryRun,
	})
	return env, nil
}

// openStore opens the lead store read-only, without taking the lock.
func openStore(ctx context.Context) (store.LeadStore, error) {
	st, err := store.Open(ctx, cfg.Store, logger)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	return st, nil
}
