// Package store persists leads and applies the dedup, retention, and size
// policy that keeps the lead database bounded.
package store

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-agent/internal/config"
	"github.com/sells-group/lead-agent/internal/model"
)

// LeadStore loads and saves the full lead set. Save replaces what was stored
// before; a failed Save leaves the previous contents in place.
type LeadStore interface {
	Load(ctx context.Context) ([]model.Lead, error)
	Save(ctx context.Context, leads []model.Lead) error
	Close() error
}

// Policy bounds the lead database.
type Policy struct {
	// MaxLeads keeps only the most recently added leads. Zero disables it.
	MaxLeads int
	// Retention drops leads created before now-Retention. Zero disables it.
	Retention time.Duration
}

// PolicyFromConfig builds the policy described by the store config.
func PolicyFromConfig(cfg config.StoreConfig) Policy {
	return Policy{MaxLeads: cfg.MaxLeads, Retention: cfg.Retention()}
}

// Result is the outcome of applying a batch to the existing leads.
type Result struct {
	Leads      []model.Lead
	Added      int
	Duplicates int
	Pruned     int
	Truncated  int
}

// Merge appends the incoming leads whose profile URL is not already present.
// Existing records are never modified and the first occurrence of a URL wins,
// including repeats inside incoming. It returns a new slice and the number of
// leads added.
func Merge(existing, incoming []model.Lead) ([]model.Lead, int) {
	merged := make([]model.Lead, 0, len(existing)+len(incoming))
	merged = append(merged, existing...)

	seen := make(map[string]struct{}, len(merged))
	for _, l := range existing {
		seen[l.ProfileURL] = struct{}{}
	}

	added := 0
	for _, l := range incoming {
		if _, dup := seen[l.ProfileURL]; dup {
			continue
		}
		seen[l.ProfileURL] = struct{}{}
		merged = append(merged, l)
		added++
	}
	return merged, added
}

// Prune drops leads created before now-retention, preserving order.
func Prune(leads []model.Lead, now time.Time, retention time.Duration) []model.Lead {
	if retention <= 0 {
		return leads
	}
	cutoff := now.Add(-retention)
	kept := make([]model.Lead, 0, len(leads))
	for _, l := range leads {
		if l.CreatedAt.Before(cutoff) {
			continue
		}
		kept = append(kept, l)
	}
	return kept
}

// Truncate keeps the last limit leads, which are the most recently added.
func Truncate(leads []model.Lead, limit int) []model.Lead {
	if limit <= 0 || len(leads) <= limit {
		return leads
	}
	return leads[len(leads)-limit:]
}

// Apply merges incoming into existing, then prunes and truncates per p.
func Apply(existing, incoming []model.Lead, now time.Time, p Policy) Result {
	merged, added := Merge(existing, incoming)

	pruned := Prune(merged, now, p.Retention)
	truncated := Truncate(pruned, p.MaxLeads)

	return Result{
		Leads:      truncated,
		Added:      added,
		Duplicates: len(incoming) - added,
		Pruned:     len(merged) - len(pruned),
		Truncated:  len(pruned) - len(truncated),
	}
}

// Open returns the LeadStore selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (LeadStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Driver {
	case "", "json":
		return NewFileStore(cfg.LeadsPath(), cfg.MaxLeads, logger), nil
	case "sqlite":
		st, err := NewSQLite(sqlitePath(cfg), cfg.MaxLeads)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close() //nolint:errcheck
			return nil, err
		}
		return st, nil
	case "postgres":
		st, err := NewPostgres(ctx, cfg.DatabaseURL, cfg.MaxLeads)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close() //nolint:errcheck
			return nil, err
		}
		return st, nil
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}

// sqlitePath swaps the leads file extension for .db so the JSON and SQLite
// backends can share a data dir.
func sqlitePath(cfg config.StoreConfig) string {
	p := cfg.LeadsPath()
	return strings.TrimSuffix(p, filepath.Ext(p)) + ".db"
}
