package query

import (
	"fmt"
	"strconv"
	"strings"
)

// Cursor is the decoded form of the opaque "<created_at>:<id>" pagination
// token (§4.5).
type Cursor struct {
	CreatedAt int64
	ID        string
}

// String encodes the cursor back to its wire form.
func (c Cursor) String() string {
	return fmt.Sprintf("%d:%s", c.CreatedAt, c.ID)
}

// ParseCursor decodes a cursor token. A malformed cursor is reported via ok
// = false rather than an error: §4.5 requires malformed cursors to be
// ignored with a warning, not rejected.
func ParseCursor(raw string) (cursor Cursor, ok bool) {
	if raw == "" {
		return Cursor{}, false
	}
	idx := strings.LastIndex(raw, ":")
	if idx <= 0 || idx == len(raw)-1 {
		return Cursor{}, false
	}
	ts, err := strconv.ParseInt(raw[:idx], 10, 64)
	if err != nil {
		return Cursor{}, false
	}
	return Cursor{CreatedAt: ts, ID: raw[idx+1:]}, true
}
