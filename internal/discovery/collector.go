package discovery

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/lead-agent/internal/model"
	"github.com/sells-group/lead-agent/internal/resilience"
	"github.com/sells-group/lead-agent/internal/scorer"
)

// Batch is the posts fetched from one source.
type Batch struct {
	Platform model.Platform
	Posts    []Post
}

// Collection is the outcome of one Collect call. Batches follow source
// order; Failed holds the error of every source that was skipped.
type Collection struct {
	Batches []Batch
	Failed  map[model.Platform]error
	Capped  int
}

// Total returns the number of posts across all batches.
func (c *Collection) Total() int {
	n := 0
	for _, b := range c.Batches {
		n += len(b.Posts)
	}
	return n
}

// CollectorConfig tunes a Collector.
type CollectorConfig struct {
	// MaxPosts caps the posts kept per Collect, in source order. Zero means no cap.
	MaxPosts int
	Retry    resilience.RetryConfig
	// Breakers persists across Collect calls so a source that keeps failing
	// is skipped until its cooldown passes. Nil disables circuit breaking.
	Breakers *resilience.Breakers
}

// Collector fetches from all sources concurrently.
type Collector struct {
	sources []Source
	cfg     CollectorConfig
	log     *zap.Logger
}

// NewCollector returns a Collector over sources.
func NewCollector(sources []Source, cfg CollectorConfig, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{sources: sources, cfg: cfg, log: logger}
}

// Collect fetches every source in parallel and waits for all of them. A
// failing source is logged and left out. Only ctx cancellation is an error.
func (c *Collector) Collect(ctx context.Context) (*Collection, error) {
	results := make([][]Post, len(c.sources))
	errs := make([]error, len(c.sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range c.sources {
		g.Go(func() error {
			posts, err := c.fetch(gctx, src)
			if err != nil {
				errs[i] = err
				return nil // one source must not abort the others
			}
			results[i] = posts
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "discovery: collect")
	}

	col := &Collection{Failed: map[model.Platform]error{}}
	remaining := c.cfg.MaxPosts
	for i, src := range c.sources {
		if errs[i] != nil {
			col.Failed[src.Platform()] = errs[i]
			c.log.Warn("discovery: source failed, skipping",
				zap.String("platform", string(src.Platform())),
				zap.Error(errs[i]),
			)
			continue
		}
		posts := results[i]
		if c.cfg.MaxPosts > 0 {
			if remaining < len(posts) {
				col.Capped += len(posts) - remaining
				posts = posts[:remaining]
			}
			remaining -= len(posts)
		}
		c.log.Info("discovery: fetched posts",
			zap.String("platform", string(src.Platform())),
			zap.Int("count", len(posts)),
		)
		col.Batches = append(col.Batches, Batch{Platform: src.Platform(), Posts: posts})
	}
	return col, nil
}

func (c *Collector) fetch(ctx context.Context, src Source) ([]Post, error) {
	name := string(src.Platform())
	retry := c.cfg.Retry
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger(c.log, name)
	}

	fetch := func(ctx context.Context) ([]Post, error) {
		return resilience.DoVal(ctx, retry, src.Fetch)
	}
	if c.cfg.Breakers == nil {
		posts, err := fetch(ctx)
		return posts, eris.Wrapf(err, "discovery: fetch %s", name)
	}

	posts, err := resilience.ExecuteVal(ctx, c.cfg.Breakers.Get(name), fetch)
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return nil, err
	}
	return posts, eris.Wrapf(err, "discovery: fetch %s", name)
}

// BuildLeads scores posts from platform and returns them as new leads.
func BuildLeads(posts []Post, platform model.Platform, sc *scorer.Scorer, now time.Time) []model.Lead {
	leads := make([]model.Lead, 0, len(posts))
	for _, p := range posts {
		location := sc.ExtractLocation(p.Content)
		score, tags := sc.Score(p.Content, platform, location, "")
		leads = append(leads, model.NewLead(p.Name, platform, p.ProfileURL, p.Content, location, score, tags, now))
	}
	return leads
}

// Leads flattens a collection into scored leads in source order.
func (c *Collection) Leads(sc *scorer.Scorer, now time.Time) []model.Lead {
	var leads []model.Lead
	for _, b := range c.Batches {
		leads = append(leads, BuildLeads(b.Posts, b.Platform, sc, now)...)
	}
	return leads
}
