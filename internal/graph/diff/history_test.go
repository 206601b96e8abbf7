package diff

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChainSynthesizesInitialVersion(t *testing.T) {
	versions := []int{1, 2}
	docs := []json.RawMessage{
		json.RawMessage(`{"name":"alice"}`),
		json.RawMessage(`{"name":"alice","age":30}`),
	}

	entries, err := Chain(versions, docs)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, VersionSentinel, entries[0].Label)
	assert.Equal(t, map[string]interface{}{"name": "alice"}, entries[0].Diff.Added)

	assert.Empty(t, entries[1].Label)
	assert.Equal(t, map[string]interface{}{"age": float64(30)}, entries[1].Diff.Added)
}

func TestChainEmpty(t *testing.T) {
	entries, err := Chain(nil, nil)
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestChainMismatchedLengthsPanics(t *testing.T) {
	assert.Panics(t, func() {
		_, _ = Chain([]int{1, 2}, []json.RawMessage{json.RawMessage(`{}`)})
	})
}
