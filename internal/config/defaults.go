package config

import "time"

var defaultHighPriorityKeywords = []string{
	"tattoo friendly gym", "foreigner gym", "english gym",
	"expat gym", "international gym", "gaijin gym",
	"english speaking trainer", "tattoo ok gym",
}

var defaultMediumPriorityKeywords = []string{
	"gym recommendation", "fitness", "workout", "exercise",
	"crossfit", "boxing", "hiit", "personal trainer",
	"strength training", "muscle building",
}

// Order matters: ExtractLocation returns the first hit.
var defaultTargetLocations = []string{
	"kanagawa", "kawasaki", "yokohama", "zama", "sagamihara",
	"atsugi", "yamato", "ebina", "machida", "fujisawa",
	"tokyo bay area", "kanto region",
}

var defaultTargetDemographics = []string{
	"american", "canadian", "british", "australian", "european",
	"expat", "foreigner", "gaijin", "english teacher", "military",
	"international student", "english speaker",
}

var defaultUrgencyWords = []string{
	"need", "looking for", "help", "recommend", "urgent", "asap", "new to", "just moved",
}

var defaultHelpIndicators = []string{"?", "anyone know", "does anyone", "help me"}

var defaultTemplates = map[string]string{
	"reddit_comment": `Hey! Finding a good gym in Japan as a foreigner is a real struggle.

I run Resolve Fitness in Kanagawa. We're tattoo-friendly, our staff speak English, and the community is international. We do CrossFit, boxing, HIIT, and personal training.

If you're nearby I'd be happy to set you up with a free trial session. Feel free to DM me!`,

	"facebook_message": `Hi {name}!

I saw your post about {topic}. Helping the international community in Kanagawa get fit is what we do, and I know how tough it is to find the right gym in Japan.

Resolve Fitness & Training Center is tattoo-friendly and English-speaking. I'd love to invite you for a complimentary trial session.

Best regards,
Maurice Shelton
Resolve Fitness & Training Center`,

	"linkedin_message": `Hello {name},

I'm Maurice Shelton, owner of Resolve Fitness & Training Center in Kanagawa. We specialise in English-speaking, inclusive training for busy professionals.

If you'd like to talk about your fitness goals, I'd be glad to offer a complimentary consultation.

Best regards,
Maurice Shelton`,

	"general_outreach": `Hi {name},

I came across your {platform} post about {topic}. I'm Maurice and I run Resolve Fitness & Training Center in Kanagawa, a tattoo-friendly, English-speaking gym built for the international community.

Since you're in the {location} area, I'd love to offer you a free trial session. Happy to answer any questions!

Cheers,
Maurice`,
}

// defaults maps every config key to its built-in value. Load registers each
// entry with viper so that env overrides and partial files both resolve.
func defaults() map[string]any {
	return map[string]any{
		"business.name":     "Resolve Fitness & Training Center",
		"business.owner":    "Maurice Shelton",
		"business.location": "Kanagawa, Japan",

		"store.driver":         "json",
		"store.data_dir":       ".",
		"store.leads_file":     "leads.json",
		"store.database_url":   "",
		"store.max_leads":      1000,
		"store.retention_days": 90,

		"scoring.high_priority_keywords":    defaultHighPriorityKeywords,
		"scoring.medium_priority_keywords":  defaultMediumPriorityKeywords,
		"scoring.target_locations":          defaultTargetLocations,
		"scoring.target_demographics":       defaultTargetDemographics,
		"scoring.urgency_words":             defaultUrgencyWords,
		"scoring.help_indicators":           defaultHelpIndicators,
		"scoring.unknown_location":          "japan",
		"scoring.weights.high_priority":     15,
		"scoring.weights.medium_priority":   8,
		"scoring.weights.location_match":    10,
		"scoring.weights.demographic_match": 12,
		"scoring.weights.urgency":           8,
		"scoring.weights.help_seeking":      5,
		"scoring.platform_bonus.reddit":     3,
		"scoring.platform_bonus.facebook":   5,
		"scoring.platform_bonus.linkedin":   7,

		"templates.reddit_comment":   defaultTemplates["reddit_comment"],
		"templates.facebook_message": defaultTemplates["facebook_message"],
		"templates.linkedin_message": defaultTemplates["linkedin_message"],
		"templates.general_outreach": defaultTemplates["general_outreach"],

		"automation.outreach_enabled":     true,
		"automation.max_leads_per_day":    20,
		"automation.max_outreach_per_day": 10,
		"automation.min_outreach_score":   20,
		"automation.rate_limit_delay":     30 * time.Second,
		"automation.send_delay_min":       time.Second,
		"automation.send_delay_max":       3 * time.Second,
		"automation.success_rate":         0.95,
		"automation.source_retries":       3,
		"automation.retry_backoff":        500 * time.Millisecond,

		"report.file":        "daily_reports.json",
		"report.max_reports": 30,

		"schedule.cron": "0 9 * * *",

		"server.port": 8080,

		"log.level":  "info",
		"log.format": "json",
	}
}
