package diff

import "encoding/json"

// VersionSentinel is the label synthesized for v1's "previous" state, which
// has no real predecessor to diff against (§4.6).
const VersionSentinel = "Initial version"

// Entry pairs a diff with the version number it transitions into, and the
// sentinel label when there is no real predecessor.
type Entry struct {
	Version int    `json:"version"`
	Label   string `json:"label,omitempty"`
	Diff    Result `json:"diff"`
}

// Chain computes the pairwise diffs along an ascending-version-ordered
// sequence of property documents, one diff per row after the first. Row
// one gets a synthesized entry against an empty document, labeled with
// VersionSentinel.
func Chain(versions []int, docs []json.RawMessage) ([]Entry, error) {
	if len(versions) != len(docs) {
		panic("diff.Chain: versions and docs must have equal length")
	}
	if len(versions) == 0 {
		return nil, nil
	}

	entries := make([]Entry, 0, len(versions))

	first, err := Diff(json.RawMessage("{}"), docs[0])
	if err != nil {
		return nil, err
	}
	entries = append(entries, Entry{Version: versions[0], Label: VersionSentinel, Diff: first})

	for i := 1; i < len(versions); i++ {
		d, err := Diff(docs[i-1], docs[i])
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Version: versions[i], Diff: d})
	}

	return entries, nil
}
