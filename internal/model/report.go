package model

import (
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
)

// Performance buckets a day's lead volume.
type Performance string

const (
	PerformanceExcellent        Performance = "excellent"
	PerformanceGood             Performance = "good"
	PerformanceNeedsImprovement Performance = "needs_improvement"
)

// DailyReport summarizes one agent cycle against the full lead store.
type DailyReport struct {
	RunID             string                   `json:"run_id,omitempty"`
	Date              string                   `json:"date"`
	GeneratedAt       time.Time                `json:"generated_at"`
	Metrics           ReportMetrics            `json:"metrics"`
	PlatformBreakdown map[string]PlatformStats `json:"platform_breakdown"`
	LocationBreakdown map[string]int           `json:"location_breakdown"`
	TopTags           []TagCount               `json:"top_tags"`
	Summary           ReportSummary            `json:"summary"`
}

// ReportMetrics holds the headline counts of a daily report.
type ReportMetrics struct {
	NewLeads           int     `json:"new_leads"`
	HighPriority       int     `json:"high_priority"`
	MediumPriority     int     `json:"medium_priority"`
	ContactedToday     int     `json:"contacted_today"`
	TotalLeadsDatabase int     `json:"total_leads_database"`
	ConversionRate     float64 `json:"conversion_rate"`
}

// PlatformStats holds per-platform counts for leads created on the report date.
type PlatformStats struct {
	Count    int     `json:"count"`
	AvgScore float64 `json:"avg_score"`
}

// TagCount is a tag and how many of the day's leads carry it.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// ReportSummary is the qualitative part of a daily report.
type ReportSummary struct {
	Performance     Performance `json:"performance"`
	Recommendations []string    `json:"recommendations"`
}

// UnmarshalJSON also accepts the pair form ["tag", 3].
func (t *TagCount) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err == nil {
		if len(pair) != 2 {
			return eris.Errorf("model: tag count pair has %d elements", len(pair))
		}
		if err := json.Unmarshal(pair[0], &t.Tag); err != nil {
			return eris.Wrap(err, "model: decode tag")
		}
		if err := json.Unmarshal(pair[1], &t.Count); err != nil {
			return eris.Wrap(err, "model: decode tag count")
		}
		return nil
	}

	type tagCountAlias TagCount
	var obj tagCountAlias
	if err := json.Unmarshal(data, &obj); err != nil {
		return eris.Wrap(err, "model: decode tag count")
	}
	*t = TagCount(obj)
	return nil
}
