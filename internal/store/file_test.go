package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sells-group/lead-agent/internal/model"
)

func TestFileStore_LoadMissingFile(t *testing.T) {
	st := NewFileStore(filepath.Join(t.TempDir(), "leads.json"), 0, nil)

	leads, err := st.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, leads)
	assert.Empty(t, leads)
}

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "leads.json")
	st := NewFileStore(path, 0, nil)
	ctx := context.Background()

	contacted := testLead("https://facebook.com/sarah", 42, baseTime)
	require.NoError(t, contacted.MarkContacted(baseTime.Add(time.Hour)))
	in := []model.Lead{testLead("https://reddit.com/u/a", 30, baseTime), contacted}

	require.NoError(t, st.Save(ctx, in))

	out, err := st.Load(ctx)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, in[0].ProfileURL, out[0].ProfileURL)
	assert.True(t, in[0].CreatedAt.Equal(out[0].CreatedAt))
	assert.Nil(t, out[0].LastContact)
	assert.Equal(t, model.StatusContacted, out[1].Status)
	require.NotNil(t, out[1].LastContact)
	assert.True(t, baseTime.Add(time.Hour).Equal(*out[1].LastContact))
}

func TestFileStore_SaveEmptyWritesArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.json")
	st := NewFileStore(path, 0, nil)

	require.NoError(t, st.Save(context.Background(), nil))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestFileStore_SaveTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.json")
	st := NewFileStore(path, 2, nil)
	ctx := context.Background()

	in := []model.Lead{
		testLead("a", 1, baseTime),
		testLead("b", 1, baseTime),
		testLead("c", 1, baseTime),
	}
	require.NoError(t, st.Save(ctx, in))

	out, err := st.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, urls(out))
}

func TestFileStore_CorruptFileLoadsEmptyWithWarning(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name": "trunc`), 0o644))

	core, logs := observer.New(zap.WarnLevel)
	st := NewFileStore(path, 0, zap.New(core))

	leads, err := st.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, leads)
	require.Equal(t, 1, logs.Len())
	assert.Contains(t, logs.All()[0].Message, "corrupt")
}

func TestFileStore_LoadsLegacyRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.json")
	legacy := `[
  {
    "name": "FitnessSeeker_Tokyo",
    "platform": "reddit",
    "profile_url": "https://reddit.com/u/FitnessSeeker_Tokyo",
    "content": "Looking for a tattoo-friendly gym",
    "location": "kanagawa",
    "score": 41,
    "contact_method": "reddit_comment",
    "status": "new",
    "tags": ["location_kanagawa", "urgent"],
    "created_at": "2025-06-01T09:30:00.123456",
    "last_contact": ""
  }
]`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	leads, err := NewFileStore(path, 0, nil).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, model.PlatformReddit, leads[0].Platform)
	assert.Equal(t, 2025, leads[0].CreatedAt.Year())
	assert.Nil(t, leads[0].LastContact)
}

func TestFileStore_FailedSaveKeepsPreviousFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "leads.json")
	st := NewFileStore(path, 0, nil)
	ctx := context.Background()

	require.NoError(t, st.Save(ctx, []model.Lead{testLead("keep", 10, baseTime)}))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	renameFile = func(string, string) error { return errors.New("disk full") }
	t.Cleanup(func() { renameFile = os.Rename })

	err = st.Save(ctx, []model.Lead{testLead("lost", 10, baseTime)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must be cleaned up")
}

func TestFileStore_SaveNoHTMLEscaping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.json")
	l := testLead("https://reddit.com/r/japan?x=1&y=2", 10, baseTime)
	l.Content = "Fitness & Training <Center>"

	require.NoError(t, NewFileStore(path, 0, nil).Save(context.Background(), []model.Lead{l}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Fitness & Training <Center>")
	assert.Contains(t, string(data), "?x=1&y=2")
}

func TestEncodeJSON(t *testing.T) {
	data, err := EncodeJSON(map[string]string{"q": "a&b <c>"})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"q\": \"a&b <c>\"\n}\n", string(data))
}
