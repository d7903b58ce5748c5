package scorer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-agent/internal/config"
	"github.com/sells-group/lead-agent/internal/model"
)

func defaultTestScorer() *Scorer {
	return New(config.Default().Scoring)
}

func TestScore_KanagawaScenario(t *testing.T) {
	s := defaultTestScorer()
	w := config.Default().Scoring.Weights

	content := "Looking for a tattoo friendly gym in Kanagawa, I'm American"
	score, tags := s.Score(content, model.PlatformReddit, s.ExtractLocation(content), "")

	assert.GreaterOrEqual(t, score, w.HighPriority+w.LocationMatch+w.DemographicMatch)
	assert.Equal(t, 15+10+12+3+8, score)
	assert.Equal(t, []string{
		"high_priority_tattoo_friendly_gym",
		"location_kanagawa",
		"demographic_american",
		TagUrgent,
	}, tags)
}

func TestScore_IrrelevantContent(t *testing.T) {
	s := defaultTestScorer()

	score, tags := s.Score("nice weather today", model.PlatformReddit, "", "")
	assert.Equal(t, 3, score, "only the platform bonus applies")
	assert.Empty(t, tags)

	score, _ = s.Score("nice weather today", model.Platform("unknown"), "", "")
	assert.Equal(t, 0, score)
}

func TestScore_HighPriorityIncrementPerKeyword(t *testing.T) {
	cfg := config.Default().Scoring
	s := New(cfg)

	base := "quiet afternoon"
	baseScore, _ := s.Score(base, model.PlatformFacebook, "", "")

	for i, kw := range cfg.HighPriorityKeywords {
		t.Run(kw, func(t *testing.T) {
			content := base + " " + strings.ToUpper(kw)
			score, tags := s.Score(content, model.PlatformFacebook, "", "")

			// Other tiers may also contain the phrase (e.g. "expat" demographic);
			// the high-priority delta itself is exact.
			highTags := 0
			for _, tag := range tags {
				if strings.HasPrefix(tag, "high_priority_") {
					highTags++
				}
			}
			assert.Equal(t, 1, highTags, "keyword %d", i)
			assert.Contains(t, tags, "high_priority_"+strings.ReplaceAll(kw, " ", "_"))
			assert.GreaterOrEqual(t, score-baseScore, cfg.Weights.HighPriority)
		})
	}
}

func TestScore_TwoDistinctHighPriorityKeywords(t *testing.T) {
	cfg := config.ScoringConfig{
		HighPriorityKeywords: []string{"alpha gym", "beta gym"},
		UnknownLocation:      "nowhere",
		Weights:              config.WeightsConfig{HighPriority: 15},
	}
	s := New(cfg)

	one, _ := s.Score("alpha gym", model.PlatformReddit, "", "")
	two, tags := s.Score("alpha gym and beta gym", model.PlatformReddit, "", "")

	assert.Equal(t, 15, one)
	assert.Equal(t, 30, two)
	assert.Equal(t, []string{"high_priority_alpha_gym", "high_priority_beta_gym"}, tags)
}

func TestScore_ClampedAt100(t *testing.T) {
	cfg := config.Default().Scoring
	s := New(cfg)

	var all []string
	all = append(all, cfg.HighPriorityKeywords...)
	all = append(all, cfg.MediumPriorityKeywords...)
	all = append(all, cfg.TargetLocations...)
	all = append(all, cfg.TargetDemographics...)
	all = append(all, cfg.UrgencyWords...)
	all = append(all, "anyone know?")

	score, tags := s.Score(strings.Join(all, " "), model.PlatformLinkedIn, "", "")
	assert.Equal(t, 100, score)
	assert.Greater(t, len(tags), 20)
}

func TestScore_NeverNegative(t *testing.T) {
	s := New(config.ScoringConfig{UnknownLocation: "x"})
	score, tags := s.Score("", model.PlatformReddit, "", "")
	assert.Equal(t, 0, score)
	assert.Empty(t, tags)
}

func TestScore_UrgencyAppliedOnce(t *testing.T) {
	s := defaultTestScorer()

	score, tags := s.Score("need help asap, urgent, just moved", model.Platform(""), "", "")
	assert.Equal(t, 8, score)
	assert.Equal(t, []string{TagUrgent}, tags)
}

func TestScore_HelpSeeking(t *testing.T) {
	s := defaultTestScorer()

	tests := []struct {
		content string
		want    bool
	}{
		{"where do people train?", true},
		{"Anyone know a place", true},
		{"does anyone lift here", true},
		{"please help me out", true},
		{"I train daily", false},
	}

	for _, tt := range tests {
		t.Run(tt.content, func(t *testing.T) {
			_, tags := s.Score(tt.content, model.PlatformReddit, "", "")
			if tt.want {
				assert.Contains(t, tags, TagAskingForHelp)
			} else {
				assert.NotContains(t, tags, TagAskingForHelp)
			}
		})
	}
}

func TestScore_HelpMeCountsAsUrgencyAndHelp(t *testing.T) {
	s := defaultTestScorer()

	// "help me" triggers both the urgency word "help" and the help indicator.
	score, tags := s.Score("help me", model.Platform(""), "", "")
	assert.Equal(t, 8+5, score)
	assert.Equal(t, []string{TagUrgent, TagAskingForHelp}, tags)
}

func TestScore_HintsMatchLocationAndDemographics(t *testing.T) {
	s := defaultTestScorer()

	score, tags := s.Score("great gains today", model.Platform(""), "Yokohama", "British")
	assert.Equal(t, 10+12, score)
	assert.Equal(t, []string{"location_yokohama", "demographic_british"}, tags)
}

func TestScore_MultiWordLocationTag(t *testing.T) {
	s := defaultTestScorer()

	_, tags := s.Score("anywhere in the Tokyo Bay Area", model.Platform(""), "", "")
	assert.Contains(t, tags, "location_tokyo_bay_area")
}

func TestScore_Deterministic(t *testing.T) {
	s := defaultTestScorer()
	content := "New to Kawasaki and need gym recommendations. HIIT and boxing. Any foreigner-friendly places?"

	s1, t1 := s.Score(content, model.PlatformReddit, "kawasaki", "")
	s2, t2 := s.Score(content, model.PlatformReddit, "kawasaki", "")
	assert.Equal(t, s1, s2)
	assert.Equal(t, t1, t2)
}

func TestExtractLocation(t *testing.T) {
	s := defaultTestScorer()

	tests := []struct {
		content string
		want    string
	}{
		{"Does anyone know good CrossFit gyms near Zama?", "zama"},
		{"I'm in the YOKOHAMA area", "yokohama"},
		{"Moving from Yokohama to Kanagawa", "kanagawa"},
		{"Relocated to Osaka", "japan"},
		{"", "japan"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, s.ExtractLocation(tt.content))
		})
	}
}

func TestNew_NormalizesKeywords(t *testing.T) {
	s := New(config.ScoringConfig{
		HighPriorityKeywords: []string{"  Expat Gym ", ""},
		UnknownLocation:      "unknown",
		Weights:              config.WeightsConfig{HighPriority: 15},
		PlatformBonus:        map[string]int{"Reddit": 4},
	})
	require.Len(t, s.high, 1)

	score, tags := s.Score("EXPAT GYM", model.PlatformReddit, "", "")
	assert.Equal(t, 19, score)
	assert.Equal(t, []string{"high_priority_expat_gym"}, tags)
}
