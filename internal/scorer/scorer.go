// Package scorer implements keyword-heuristic lead scoring for social posts.
package scorer

import (
	"strings"

	"github.com/sells-group/lead-agent/internal/config"
	"github.com/sells-group/lead-agent/internal/model"
)

// Fixed tags for categories that fire at most once.
const (
	TagUrgent        = "urgent"
	TagAskingForHelp = "asking_for_help"
)

// Tag prefixes for per-term categories.
const (
	prefixHighPriority   = "high_priority_"
	prefixMediumPriority = "medium_priority_"
	prefixLocation       = "location_"
	prefixDemographic    = "demographic_"
)

// Scorer turns post content into a 0-100 priority score with explanatory tags.
// It is stateless after construction and safe for concurrent use.
type Scorer struct {
	high         []string
	medium       []string
	locations    []string
	demographics []string
	urgency      []string
	help         []string
	unknown      string
	weights      config.WeightsConfig
	bonus        map[model.Platform]int
}

// New builds a Scorer from a validated scoring config. Keywords are
// lowercased once here so that matching is case-insensitive.
func New(cfg config.ScoringConfig) *Scorer {
	bonus := make(map[model.Platform]int, len(cfg.PlatformBonus))
	for name, pts := range cfg.PlatformBonus {
		bonus[model.Platform(strings.ToLower(name))] = pts
	}
	return &Scorer{
		high:         lowerAll(cfg.HighPriorityKeywords),
		medium:       lowerAll(cfg.MediumPriorityKeywords),
		locations:    lowerAll(cfg.TargetLocations),
		demographics: lowerAll(cfg.TargetDemographics),
		urgency:      lowerAll(cfg.UrgencyWords),
		help:         lowerAll(cfg.HelpIndicators),
		unknown:      cfg.UnknownLocation,
		weights:      cfg.Weights,
		bonus:        bonus,
	}
}

// Score rates content for the given platform. The location and demographics
// hints are matched alongside the content for their categories. Tags follow
// category evaluation order and may repeat.
func (s *Scorer) Score(content string, platform model.Platform, location, demographics string) (int, []string) {
	text := strings.ToLower(content)
	locHint := strings.ToLower(location)
	demoHint := strings.ToLower(demographics)

	score := 0
	tags := []string{}

	for _, kw := range s.high {
		if strings.Contains(text, kw) {
			score += s.weights.HighPriority
			tags = append(tags, prefixHighPriority+tagTerm(kw))
		}
	}

	for _, kw := range s.medium {
		if strings.Contains(text, kw) {
			score += s.weights.MediumPriority
			tags = append(tags, prefixMediumPriority+tagTerm(kw))
		}
	}

	for _, loc := range s.locations {
		if strings.Contains(text, loc) || strings.Contains(locHint, loc) {
			score += s.weights.LocationMatch
			tags = append(tags, prefixLocation+tagTerm(loc))
		}
	}

	for _, demo := range s.demographics {
		if strings.Contains(text, demo) || strings.Contains(demoHint, demo) {
			score += s.weights.DemographicMatch
			tags = append(tags, prefixDemographic+tagTerm(demo))
		}
	}

	score += s.bonus[platform]

	if containsAny(text, s.urgency) {
		score += s.weights.Urgency
		tags = append(tags, TagUrgent)
	}

	if containsAny(text, s.help) {
		score += s.weights.HelpSeeking
		tags = append(tags, TagAskingForHelp)
	}

	return model.ClampScore(score), tags
}

// ExtractLocation returns the first target location mentioned in content,
// in configured order, or the unknown-location fallback.
func (s *Scorer) ExtractLocation(content string) string {
	text := strings.ToLower(content)
	for _, loc := range s.locations {
		if strings.Contains(text, loc) {
			return loc
		}
	}
	return s.unknown
}

func containsAny(text string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}

// tagTerm joins the words of a matched term with underscores.
func tagTerm(term string) string {
	return strings.Join(strings.Fields(term), "_")
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
