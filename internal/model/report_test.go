package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagCount_UnmarshalForms(t *testing.T) {
	var tags []TagCount
	require.NoError(t, json.Unmarshal([]byte(`[["urgent", 4], {"tag": "location_zama", "count": 2}]`), &tags))
	assert.Equal(t, []TagCount{{Tag: "urgent", Count: 4}, {Tag: "location_zama", Count: 2}}, tags)
}

func TestTagCount_UnmarshalBadPair(t *testing.T) {
	var tc TagCount
	assert.Error(t, json.Unmarshal([]byte(`["urgent"]`), &tc))
	assert.Error(t, json.Unmarshal([]byte(`["urgent", "four"]`), &tc))
}

func TestTagCount_MarshalsAsObject(t *testing.T) {
	data, err := json.Marshal(TagCount{Tag: "urgent", Count: 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"tag": "urgent", "count": 1}`, string(data))
}
