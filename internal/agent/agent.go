// Package agent runs one discovery, dedup, outreach, and report cycle.
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-agent/internal/discovery"
	"github.com/sells-group/lead-agent/internal/model"
	"github.com/sells-group/lead-agent/internal/outreach"
	"github.com/sells-group/lead-agent/internal/report"
	"github.com/sells-group/lead-agent/internal/scorer"
	"github.com/sells-group/lead-agent/internal/store"
)

// Collector gathers posts from every configured source.
type Collector interface {
	Collect(ctx context.Context) (*discovery.Collection, error)
}

// Outreach contacts eligible leads in place.
type Outreach interface {
	Run(ctx context.Context, leads []model.Lead) outreach.Summary
}

// ReportStore keeps the report history.
type ReportStore interface {
	Append(r model.DailyReport) error
}

// Deps wires an Agent. Outreach and Reports may be nil to skip those steps.
type Deps struct {
	Store     store.LeadStore
	Collector Collector
	Scorer    *scorer.Scorer
	Outreach  Outreach
	Reports   ReportStore
	Policy    store.Policy
	Logger    *zap.Logger
	Now       func() time.Time
	// DryRun scores, merges, and reports without contacting or saving.
	DryRun bool
}

// CycleResult describes one finished cycle.
type CycleResult struct {
	RunID          string
	StartedAt      time.Time
	Duration       time.Duration
	Loaded         int
	Discovered     int
	Added          int
	Duplicates     int
	Pruned         int
	Truncated      int
	Contacted      int
	OutreachFailed int
	Report         *model.DailyReport
	Err            error
}

// OK reports whether the cycle completed.
func (r *CycleResult) OK() bool { return r.Err == nil }

// Agent runs cycles. It is not safe for concurrent RunCycle calls; the CLI
// serializes them with a lock file.
type Agent struct {
	deps Deps
	log  *zap.Logger
}

// New returns an Agent.
func New(deps Deps) *Agent {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Agent{deps: deps, log: deps.Logger}
}

// RunCycle loads the store, collects and scores new leads, merges them, runs
// outreach, saves, and records a daily report. It never panics; any failure
// is returned in CycleResult.Err.
func (a *Agent) RunCycle(ctx context.Context) (res *CycleResult) {
	start := time.Now()
	res = &CycleResult{RunID: uuid.NewString(), StartedAt: a.deps.Now()}
	log := a.log.With(zap.String("run_id", res.RunID))
	log.Info("agent: starting cycle", zap.Bool("dry_run", a.deps.DryRun))

	defer func() {
		if r := recover(); r != nil {
			res.Err = eris.Errorf("agent: cycle panicked: %v", r)
			log.Error("agent: cycle panicked", zap.String("panic", fmt.Sprint(r)))
		}
		res.Duration = time.Since(start)
		if res.Err != nil {
			log.Error("agent: cycle failed", zap.Duration("duration", res.Duration), zap.Error(res.Err))
			return
		}
		log.Info("agent: cycle complete",
			zap.Duration("duration", res.Duration),
			zap.Int("added", res.Added),
			zap.Int("contacted", res.Contacted),
		)
	}()

	res.Err = a.run(ctx, res, log)
	return res
}

func (a *Agent) run(ctx context.Context, res *CycleResult, log *zap.Logger) error {
	existing, err := a.deps.Store.Load(ctx)
	if err != nil {
		return eris.Wrap(err, "agent: load leads")
	}
	res.Loaded = len(existing)

	col, err := a.deps.Collector.Collect(ctx)
	if err != nil {
		return eris.Wrap(err, "agent: collect")
	}
	now := a.deps.Now()
	incoming := col.Leads(a.deps.Scorer, now)
	res.Discovered = len(incoming)
	log.Info("agent: discovered leads",
		zap.Int("posts", col.Total()),
		zap.Int("count", len(incoming)),
		zap.Int("failed_sources", len(col.Failed)),
		zap.Int("capped", col.Capped),
	)

	merged := store.Apply(existing, incoming, now, a.deps.Policy)
	res.Added = merged.Added
	res.Duplicates = merged.Duplicates
	res.Pruned = merged.Pruned
	res.Truncated = merged.Truncated
	leads := merged.Leads

	if a.deps.Outreach != nil && !a.deps.DryRun {
		sum := a.deps.Outreach.Run(ctx, leads)
		res.Contacted = sum.Contacted
		res.OutreachFailed = sum.Failed
	}

	if !a.deps.DryRun {
		if err := a.deps.Store.Save(ctx, leads); err != nil {
			return eris.Wrap(err, "agent: save leads")
		}
	}

	rep := report.Generate(leads, a.deps.Now(), res.RunID)
	res.Report = &rep
	if a.deps.Reports != nil && !a.deps.DryRun {
		if err := a.deps.Reports.Append(rep); err != nil {
			log.Warn("agent: save report failed", zap.Error(err))
		}
	}
	return nil
}
