// Package model defines the lead entity and the report records persisted by the agent.
package model

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Platform identifies the social platform a lead was discovered on.
type Platform string

const (
	PlatformReddit   Platform = "reddit"
	PlatformFacebook Platform = "facebook"
	PlatformLinkedIn Platform = "linkedin"
)

// GeneralOutreach is the template key used when no platform-specific template applies.
const GeneralOutreach = "general_outreach"

// Platforms lists every supported platform in discovery order.
var Platforms = []Platform{PlatformReddit, PlatformFacebook, PlatformLinkedIn}

var contactMethods = map[Platform]string{
	PlatformReddit:   "reddit_comment",
	PlatformFacebook: "facebook_message",
	PlatformLinkedIn: "linkedin_message",
}

// ErrUnknownPlatform is returned by ParsePlatform for values outside the supported set.
var ErrUnknownPlatform = eris.New("model: unknown platform")

// ParsePlatform converts a case-insensitive platform name into a Platform.
func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", eris.Wrapf(ErrUnknownPlatform, "%q", s)
	}
	return p, nil
}

// ContactMethod returns the template key used for outreach on this platform.
func (p Platform) ContactMethod() string {
	if m, ok := contactMethods[p]; ok {
		return m
	}
	return GeneralOutreach
}

// Valid reports whether p is one of the supported platforms.
func (p Platform) Valid() bool {
	_, ok := contactMethods[p]
	return ok
}

// Status is the outreach state of a lead.
type Status string

const (
	StatusNew       Status = "new"
	StatusContacted Status = "contacted"
)

// ErrAlreadyContacted is returned when marking a lead that was already contacted.
var ErrAlreadyContacted = eris.New("model: lead already contacted")

// Lead is one prospect discovered from social content.
type Lead struct {
	Name          string     `json:"name"`
	Platform      Platform   `json:"platform"`
	ProfileURL    string     `json:"profile_url"`
	Content       string     `json:"content"`
	Location      string     `json:"location"`
	Score         int        `json:"score"`
	ContactMethod string     `json:"contact_method"`
	Status        Status     `json:"status"`
	Tags          []string   `json:"tags"`
	CreatedAt     time.Time  `json:"created_at"`
	LastContact   *time.Time `json:"last_contact,omitempty"`
}

// NewLead builds a lead in the new state. The score is clamped to [0, 100]
// and the contact method is derived from the platform.
func NewLead(name string, platform Platform, profileURL, content, location string, score int, tags []string, now time.Time) Lead {
	if tags == nil {
		tags = []string{}
	}
	return Lead{
		Name:          name,
		Platform:      platform,
		ProfileURL:    profileURL,
		Content:       content,
		Location:      location,
		Score:         ClampScore(score),
		ContactMethod: platform.ContactMethod(),
		Status:        StatusNew,
		Tags:          tags,
		CreatedAt:     now,
	}
}

// ClampScore bounds a raw score to [0, 100].
func ClampScore(score int) int {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return score
	}
}

// MarkContacted advances the lead from new to contacted. It is the only
// status transition; a contacted lead is left untouched.
func (l *Lead) MarkContacted(now time.Time) error {
	if l.Status == StatusContacted {
		return eris.Wrapf(ErrAlreadyContacted, "%s", l.ProfileURL)
	}
	l.Status = StatusContacted
	t := now
	l.LastContact = &t
	return nil
}

// IsNew reports whether the lead has not been contacted yet.
func (l *Lead) IsNew() bool {
	return l.Status != StatusContacted
}

// legacyTimeLayout matches timestamps written without a zone offset.
const legacyTimeLayout = "2006-01-02T15:04:05.999999999"

// UnmarshalJSON accepts RFC 3339 timestamps as well as zone-less timestamps
// and an empty last_contact string.
func (l *Lead) UnmarshalJSON(data []byte) error {
	type leadAlias Lead
	var raw struct {
		leadAlias
		CreatedAt   string `json:"created_at"`
		LastContact string `json:"last_contact"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return eris.Wrap(err, "model: decode lead")
	}

	*l = Lead(raw.leadAlias)
	if raw.CreatedAt != "" {
		t, err := parseTimestamp(raw.CreatedAt)
		if err != nil {
			return eris.Wrapf(err, "model: lead %s created_at", l.ProfileURL)
		}
		l.CreatedAt = t
	}
	l.LastContact = nil
	if raw.LastContact != "" {
		t, err := parseTimestamp(raw.LastContact)
		if err != nil {
			return eris.Wrapf(err, "model: lead %s last_contact", l.ProfileURL)
		}
		l.LastContact = &t
	}
	if l.Status == "" {
		l.Status = StatusNew
	}
	if l.Tags == nil {
		l.Tags = []string{}
	}
	return nil
}

func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(legacyTimeLayout, s, time.Local)
	if err != nil {
		return time.Time{}, eris.Wrapf(err, "parse timestamp %q", s)
	}
	return t, nil
}
