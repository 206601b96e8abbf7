package diff

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiffAddedRemovedChanged(t *testing.T) {
	old := json.RawMessage(`{"name":"alice","age":30,"city":"nyc"}`)
	updated := json.RawMessage(`{"name":"alice","age":31,"country":"us"}`)

	result, err := Diff(old, updated)
	require.NoError(t, err)

	assert.Equal(t, map[string]interface{}{"country": "us"}, result.Added)
	assert.Equal(t, map[string]interface{}{"city": "nyc"}, result.Removed)
	require.Contains(t, result.Changed, "age")
	assert.EqualValues(t, 30, result.Changed["age"].Old)
	assert.EqualValues(t, 31, result.Changed["age"].New)
}

func TestDiffIgnoresNumericFormattingAndKeyOrder(t *testing.T) {
	old := json.RawMessage(`{"score":30.0,"nested":{"a":1,"b":2}}`)
	updated := json.RawMessage(`{"nested":{"b":2,"a":1},"score":30}`)

	result, err := Diff(old, updated)
	require.NoError(t, err)

	assert.Empty(t, result.Added)
	assert.Empty(t, result.Removed)
	assert.Empty(t, result.Changed)
}

func TestDiffEmptyDocuments(t *testing.T) {
	result, err := Diff(nil, json.RawMessage(`{"a":1}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"a": float64(1)}, result.Added)
}

func TestDiffDetectsArrayChanges(t *testing.T) {
	old := json.RawMessage(`{"tags":["a","b"]}`)
	updated := json.RawMessage(`{"tags":["a","c"]}`)

	result, err := Diff(old, updated)
	require.NoError(t, err)
	assert.Contains(t, result.Changed, "tags")
}
