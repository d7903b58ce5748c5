package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePlatform(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Platform
		wantErr bool
	}{
		{"reddit", PlatformReddit, false},
		{"Facebook", PlatformFacebook, false},
		{" LINKEDIN ", PlatformLinkedIn, false},
		{"myspace", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParsePlatform(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrUnknownPlatform)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlatformContactMethod(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "reddit_comment", PlatformReddit.ContactMethod())
	assert.Equal(t, "facebook_message", PlatformFacebook.ContactMethod())
	assert.Equal(t, "linkedin_message", PlatformLinkedIn.ContactMethod())
	assert.Equal(t, GeneralOutreach, Platform("other").ContactMethod())
	assert.False(t, Platform("other").Valid())
	assert.True(t, PlatformLinkedIn.Valid())
}

func TestNewLead_ClampsScoreAndDefaults(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	l := NewLead("n", PlatformFacebook, "https://fb/x", "content", "zama", 140, nil, now)

	assert.Equal(t, 100, l.Score)
	assert.Equal(t, StatusNew, l.Status)
	assert.Equal(t, "facebook_message", l.ContactMethod)
	assert.NotNil(t, l.Tags)
	assert.Equal(t, now, l.CreatedAt)
	assert.Nil(t, l.LastContact)

	assert.Equal(t, 0, NewLead("n", PlatformReddit, "u", "", "", -5, nil, now).Score)
}

func TestMarkContacted_OnlyForward(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	first := created.Add(time.Hour)
	l := NewLead("n", PlatformReddit, "u", "", "", 30, nil, created)

	require.NoError(t, l.MarkContacted(first))
	assert.Equal(t, StatusContacted, l.Status)
	require.NotNil(t, l.LastContact)
	assert.Equal(t, first, *l.LastContact)

	err := l.MarkContacted(first.Add(time.Hour))
	assert.ErrorIs(t, err, ErrAlreadyContacted)
	assert.Equal(t, StatusContacted, l.Status)
	assert.Equal(t, first, *l.LastContact)
	assert.False(t, l.IsNew())
}

func TestLeadJSON_RoundTripShape(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	l := NewLead("Mike", PlatformFacebook, "https://facebook.com/mike", "hi", "kanagawa", 42, []string{"urgent"}, now)

	data, err := json.Marshal(l)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "last_contact")
	assert.Contains(t, string(data), `"profile_url":"https://facebook.com/mike"`)

	var back Lead
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, l.ProfileURL, back.ProfileURL)
	assert.True(t, l.CreatedAt.Equal(back.CreatedAt))
	assert.Equal(t, []string{"urgent"}, back.Tags)
}

func TestLeadUnmarshal_LegacyTimestamps(t *testing.T) {
	t.Parallel()

	data := `{
		"name": "FitnessSeeker_Tokyo",
		"platform": "reddit",
		"profile_url": "https://reddit.com/user/FitnessSeeker_Tokyo",
		"content": "Looking for a gym",
		"location": "kanagawa",
		"score": 71,
		"contact_method": "reddit_comment",
		"status": "new",
		"created_at": "2025-06-01T10:11:12.123456",
		"last_contact": "",
		"tags": null
	}`

	var l Lead
	require.NoError(t, json.Unmarshal([]byte(data), &l))
	assert.Equal(t, 2025, l.CreatedAt.Year())
	assert.Equal(t, 12, l.CreatedAt.Second())
	assert.Nil(t, l.LastContact)
	assert.Equal(t, []string{}, l.Tags)
}

func TestLeadUnmarshal_BadTimestamp(t *testing.T) {
	t.Parallel()

	var l Lead
	err := json.Unmarshal([]byte(`{"profile_url":"u","created_at":"yesterday"}`), &l)
	assert.Error(t, err)
}
