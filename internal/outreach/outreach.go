// Package outreach renders personalised messages and sends them to the
// highest scoring new leads, one at a time.
package outreach

import (
	"context"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/lead-agent/internal/model"
)

// ErrDeliveryFailed is returned by a Sender when the platform did not accept the message.
var ErrDeliveryFailed = eris.New("outreach: delivery failed")

// Sender delivers one message to one lead.
type Sender interface {
	Send(ctx context.Context, lead model.Lead, message string) error
}

// SimulatedConfig controls SimulatedSender.
type SimulatedConfig struct {
	MinDelay    time.Duration
	MaxDelay    time.Duration
	SuccessRate float64
}

// SimulatedSender pretends to call a platform API: it waits a random delay
// and then succeeds with probability SuccessRate.
type SimulatedSender struct {
	cfg SimulatedConfig
	log *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulatedSender returns a SimulatedSender. A nil rng is seeded randomly.
func NewSimulatedSender(cfg SimulatedConfig, rng *rand.Rand, logger *zap.Logger) *SimulatedSender {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SimulatedSender{cfg: cfg, rng: rng, log: logger}
}

// Send implements Sender.
func (s *SimulatedSender) Send(ctx context.Context, lead model.Lead, message string) error {
	s.mu.Lock()
	delay := s.cfg.MinDelay
	if span := s.cfg.MaxDelay - s.cfg.MinDelay; span > 0 {
		delay += time.Duration(s.rng.Int64N(int64(span) + 1))
	}
	ok := s.rng.Float64() < s.cfg.SuccessRate
	s.mu.Unlock()

	s.log.Debug("outreach: sending",
		zap.String("profile_url", lead.ProfileURL),
		zap.String("platform", string(lead.Platform)),
		zap.String("preview", preview(message, 100)),
	)

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return eris.Wrap(ctx.Err(), "outreach: send cancelled")
		case <-timer.C:
		}
	}

	if !ok {
		return eris.Wrapf(ErrDeliveryFailed, "%s", lead.ProfileURL)
	}
	return nil
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// Config controls which leads are contacted and how fast.
type Config struct {
	Enabled        bool
	MinScore       int
	MaxPerDay      int
	RateLimitDelay time.Duration
}

// Summary reports what one Run did.
type Summary struct {
	Eligible  int
	Attempted int
	Contacted int
	Failed    int
	Cancelled bool
}

// Runner contacts eligible leads sequentially, pacing sends with a limiter.
type Runner struct {
	cfg       Config
	templates Templates
	sender    Sender
	log       *zap.Logger
	now       func() time.Time
}

// NewRunner returns a Runner.
func NewRunner(cfg Config, templates Templates, sender Sender, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{cfg: cfg, templates: templates, sender: sender, log: logger, now: time.Now}
}

// Select returns the indexes of the leads to contact: new leads at or above
// the minimum score, highest score first, capped at MaxPerDay.
func (r *Runner) Select(leads []model.Lead) []int {
	idx := make([]int, 0)
	for i := range leads {
		if leads[i].IsNew() && leads[i].Score >= r.cfg.MinScore {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return leads[idx[a]].Score > leads[idx[b]].Score
	})
	if len(idx) > r.cfg.MaxPerDay {
		idx = idx[:r.cfg.MaxPerDay]
	}
	return idx
}

// Run sends outreach to the selected leads and marks each successful one as
// contacted in place. A failed send leaves the lead new for a later cycle.
func (r *Runner) Run(ctx context.Context, leads []model.Lead) Summary {
	if !r.cfg.Enabled {
		r.log.Info("outreach: disabled, skipping")
		return Summary{}
	}

	selected := r.Select(leads)
	sum := Summary{Eligible: len(selected)}
	r.log.Info("outreach: processing high priority leads", zap.Int("count", len(selected)))

	limit := rate.Inf
	if r.cfg.RateLimitDelay > 0 {
		limit = rate.Every(r.cfg.RateLimitDelay)
	}
	limiter := rate.NewLimiter(limit, 1)

	for _, i := range selected {
		if err := limiter.Wait(ctx); err != nil {
			sum.Cancelled = true
			break
		}

		lead := &leads[i]
		msg := r.templates.Message(*lead)
		sum.Attempted++

		if err := r.sender.Send(ctx, *lead, msg); err != nil {
			sum.Failed++
			r.log.Warn("outreach: send failed",
				zap.String("name", lead.Name),
				zap.String("profile_url", lead.ProfileURL),
				zap.Error(err),
			)
			if ctx.Err() != nil {
				sum.Cancelled = true
				break
			}
			continue
		}

		if err := lead.MarkContacted(r.now()); err != nil {
			r.log.Warn("outreach: mark contacted", zap.Error(err))
			continue
		}
		sum.Contacted++
		r.log.Info("outreach: contacted lead",
			zap.String("name", lead.Name),
			zap.String("platform", string(lead.Platform)),
			zap.Int("score", lead.Score),
		)
	}
	return sum
}
