package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-agent/internal/config"
	"github.com/sells-group/lead-agent/internal/export"
	"github.com/sells-group/lead-agent/internal/model"
	"github.com/sells-group/lead-agent/internal/scorer"
)

func TestLeadFilter(t *testing.T) {
	leads := fixtureLeads(t)

	assert.Len(t, leadFilter{}.apply(leads), 3)
	assert.Len(t, leadFilter{Status: model.StatusContacted}.apply(leads), 1)
	assert.Len(t, leadFilter{MinScore: 20, Limit: 1}.apply(leads), 1)
	assert.NotNil(t, leadFilter{MinScore: 100}.apply(leads))
}

func TestParseStatus(t *testing.T) {
	st, err := parseStatus("contacted")
	require.NoError(t, err)
	assert.Equal(t, model.StatusContacted, st)

	_, err = parseStatus("lost")
	assert.Error(t, err)
}

func TestFormatLeadsList(t *testing.T) {
	var buf bytes.Buffer
	formatLeadsList(&buf, fixtureLeads(t))

	out := buf.String()
	assert.Contains(t, out, "SCORE")
	assert.Contains(t, out, "PROFILE")
	assert.Contains(t, out, "https://facebook.com/hot")
	assert.Contains(t, out, "contacted")
	assert.Contains(t, out, "2026-05-20 09:00")
}

func TestWriteExport_CSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.csv")
	require.NoError(t, writeExport(export.FormatCSV, path, fixtureLeads(t)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "name,platform,profile_url")
	assert.Contains(t, string(data), "https://reddit.com/user/warm")
}

func TestWriteExport_XLSXNeedsOutput(t *testing.T) {
	err := writeExport(export.FormatXLSX, "", fixtureLeads(t))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "leads.xlsx")
	require.NoError(t, writeExport(export.FormatXLSX, path, fixtureLeads(t)))
	assert.FileExists(t, path)
}

func TestFormatReport(t *testing.T) {
	r := model.DailyReport{
		Date: "2026-05-20",
		Metrics: model.ReportMetrics{
			NewLeads: 6, HighPriority: 2, MediumPriority: 1,
			ContactedToday: 3, TotalLeadsDatabase: 40, ConversionRate: 50,
		},
		PlatformBreakdown: map[string]model.PlatformStats{"reddit": {Count: 4, AvgScore: 21.5}},
		LocationBreakdown: map[string]int{"zama": 2},
		TopTags:           []model.TagCount{{Tag: "location_zama", Count: 2}},
		Summary: model.ReportSummary{
			Performance:     model.PerformanceNeedsImprovement,
			Recommendations: []string{"Increase outreach automation"},
		},
	}

	var buf bytes.Buffer
	formatReport(&buf, r)
	out := buf.String()

	assert.Contains(t, out, "DAILY REPORT")
	assert.Contains(t, out, "2026-05-20")
	assert.Contains(t, out, "NEEDS IMPROVEMENT")
	assert.Contains(t, out, "Total Leads Database")
	assert.Contains(t, out, "50.0%")
	assert.Contains(t, out, "Reddit")
	assert.Contains(t, out, "21.5")
	assert.Contains(t, out, "Zama")
	assert.Contains(t, out, "location_zama")
	assert.Contains(t, out, "- Increase outreach automation")
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Contacted Today", label("contacted_today"))
	assert.Equal(t, "Linkedin", label("linkedin"))
}

func TestScoreContent(t *testing.T) {
	sc := scorer.New(config.Default().Scoring)

	res := scoreContent(sc, "Looking for a tattoo friendly gym in Kanagawa, I'm American", model.PlatformReddit, "", "")
	assert.Equal(t, "kanagawa", res.Location)
	assert.Equal(t, 48, res.Score)
	assert.Contains(t, res.Tags, "location_kanagawa")

	hinted := scoreContent(sc, "any gym", model.PlatformLinkedIn, "zama", "military")
	assert.Equal(t, "zama", hinted.Location)
	assert.Contains(t, hinted.Tags, "demographic_military")

	var buf bytes.Buffer
	formatScore(&buf, scoreContent(sc, "nothing", model.PlatformFacebook, "", ""))
	assert.Contains(t, buf.String(), "Tags:     -")
}

func TestScheduler_RejectsBadSpec(t *testing.T) {
	_, err := newScheduler(context.Background(), "every day", func(context.Context) {})
	assert.Error(t, err)
}

func TestScheduler_SkipsOverlappingRuns(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	runs := 0
	var mu sync.Mutex

	s, err := newScheduler(context.Background(), "0 9 * * *", func(context.Context) {
		mu.Lock()
		runs++
		mu.Unlock()
		close(started)
		<-release
	})
	require.NoError(t, err)

	done := make(chan bool)
	go func() { done <- s.runNow(context.Background()) }()
	<-started

	assert.False(t, s.runNow(context.Background()), "second run must be skipped while the first is in flight")
	close(release)
	assert.True(t, <-done)

	mu.Lock()
	assert.Equal(t, 1, runs)
	mu.Unlock()
}

func TestScheduler_SkipsAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	s, err := newScheduler(ctx, "@every 1h", func(context.Context) { called = true })
	require.NoError(t, err)

	assert.False(t, s.runNow(ctx))
	assert.False(t, called)
}

func TestCronParser_AcceptsSeconds(t *testing.T) {
	sched, err := config.CronParser.Parse("30 0 9 * * *")
	require.NoError(t, err)
	next := sched.Next(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 1, 1, 9, 0, 30, 0, time.UTC), next)
}

func TestWriteDefaultConfig_RoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, writeDefaultConfig(path, false))

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Empty(t, loaded.Warnings)

	want := config.Default()
	assert.Equal(t, want.Scoring, loaded.Scoring)
	assert.Equal(t, want.Automation, loaded.Automation)
	assert.Equal(t, want.Templates, loaded.Templates)
	assert.Equal(t, want.Schedule, loaded.Schedule)
}

func TestWriteDefaultConfig_RefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o644))

	err := writeDefaultConfig(path, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	require.NoError(t, writeDefaultConfig(path, true))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "scoring:")
}
