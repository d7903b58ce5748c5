// Package report builds the daily activity report and keeps a capped history
// of past reports.
package report

import (
	"math"
	"sort"
	"time"

	"github.com/sells-group/lead-agent/internal/model"
)

// Score thresholds for the priority metrics.
const (
	HighPriorityScore   = 20
	MediumPriorityScore = 10
)

const topTagCount = 5

// Recommendations added by Generate.
const (
	RecExpandKeywords   = "Consider expanding target keywords"
	RecFocusContent     = "Focus on tattoo-friendly and expat-specific content"
	RecIncreaseOutreach = "Increase outreach automation"
)

// Generate summarizes leads for the calendar day of now, in now's location.
// Totals cover the whole store; breakdowns cover leads created that day.
func Generate(leads []model.Lead, now time.Time, runID string) model.DailyReport {
	var today []model.Lead
	contacted := 0
	for _, l := range leads {
		if sameDay(l.CreatedAt, now) {
			today = append(today, l)
		}
		if l.LastContact != nil && sameDay(*l.LastContact, now) {
			contacted++
		}
	}

	m := model.ReportMetrics{
		NewLeads:           len(today),
		ContactedToday:     contacted,
		TotalLeadsDatabase: len(leads),
	}
	for _, l := range today {
		switch {
		case l.Score >= HighPriorityScore:
			m.HighPriority++
		case l.Score >= MediumPriorityScore:
			m.MediumPriority++
		}
	}
	if m.NewLeads > 0 {
		m.ConversionRate = round1(float64(contacted) / float64(m.NewLeads) * 100)
	}

	return model.DailyReport{
		RunID:             runID,
		Date:              now.Format(time.DateOnly),
		GeneratedAt:       now,
		Metrics:           m,
		PlatformBreakdown: platformBreakdown(today),
		LocationBreakdown: locationBreakdown(today),
		TopTags:           topTags(today, topTagCount),
		Summary: model.ReportSummary{
			Performance:     performance(m.NewLeads),
			Recommendations: recommendations(m),
		},
	}
}

func sameDay(t, now time.Time) bool {
	y1, m1, d1 := t.In(now.Location()).Date()
	y2, m2, d2 := now.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}

func platformBreakdown(leads []model.Lead) map[string]model.PlatformStats {
	totals := map[string]int{}
	out := map[string]model.PlatformStats{}
	for _, l := range leads {
		p := string(l.Platform)
		st := out[p]
		st.Count++
		out[p] = st
		totals[p] += l.Score
	}
	for p, st := range out {
		st.AvgScore = round1(float64(totals[p]) / float64(st.Count))
		out[p] = st
	}
	return out
}

func locationBreakdown(leads []model.Lead) map[string]int {
	out := map[string]int{}
	for _, l := range leads {
		out[l.Location]++
	}
	return out
}

// topTags returns the n most frequent tags, ties broken alphabetically.
func topTags(leads []model.Lead, n int) []model.TagCount {
	counts := map[string]int{}
	for _, l := range leads {
		for _, t := range l.Tags {
			counts[t]++
		}
	}

	out := make([]model.TagCount, 0, len(counts))
	for tag, c := range counts {
		out = append(out, model.TagCount{Tag: tag, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func performance(newLeads int) model.Performance {
	switch {
	case newLeads >= 10:
		return model.PerformanceExcellent
	case newLeads >= 5:
		return model.PerformanceGood
	default:
		return model.PerformanceNeedsImprovement
	}
}

func recommendations(m model.ReportMetrics) []string {
	recs := []string{}
	if m.NewLeads < 5 {
		recs = append(recs, RecExpandKeywords)
	}
	if m.HighPriority < 2 {
		recs = append(recs, RecFocusContent)
	}
	if float64(m.ContactedToday) < float64(m.NewLeads)*0.5 {
		recs = append(recs, RecIncreaseOutreach)
	}
	return recs
}
