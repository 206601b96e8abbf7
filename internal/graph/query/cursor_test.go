package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCursorRoundTrip(t *testing.T) {
	c := Cursor{CreatedAt: 1700000000, ID: "abc-123"}
	parsed, ok := ParseCursor(c.String())
	assert.True(t, ok)
	assert.Equal(t, c, parsed)
}

func TestParseCursorMalformedTolerated(t *testing.T) {
	cases := []string{"", "no-colon-here", ":missing-ts", "123:", "notanumber:id"}
	for _, raw := range cases {
		_, ok := ParseCursor(raw)
		assert.False(t, ok, "expected %q to be rejected", raw)
	}
}
