// Package diff implements C6: structural diffing of two property bags, and
// pairwise diffing of a full version chain for history endpoints.
package diff

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Change is a single changed key's before/after values.
type Change struct {
	Old interface{} `json:"old"`
	New interface{} `json:"new"`
}

// Result is the outcome of diffing two property documents (§4.6).
type Result struct {
	Added   map[string]interface{} `json:"added"`
	Removed map[string]interface{} `json:"removed"`
	Changed map[string]Change      `json:"changed"`
}

// Diff compares old and new JSON documents and returns the added, removed,
// and changed top-level keys. Values are compared via canonical JSON so
// key order and numeric formatting differences don't register as changes.
func Diff(oldDoc, newDoc json.RawMessage) (Result, error) {
	oldMap, err := toMap(oldDoc)
	if err != nil {
		return Result{}, fmt.Errorf("decode old document: %w", err)
	}
	newMap, err := toMap(newDoc)
	if err != nil {
		return Result{}, fmt.Errorf("decode new document: %w", err)
	}

	result := Result{
		Added:   map[string]interface{}{},
		Removed: map[string]interface{}{},
		Changed: map[string]Change{},
	}

	for k, nv := range newMap {
		ov, existed := oldMap[k]
		if !existed {
			result.Added[k] = nv
			continue
		}
		oc, err := canonicalize(ov)
		if err != nil {
			return Result{}, err
		}
		nc, err := canonicalize(nv)
		if err != nil {
			return Result{}, err
		}
		if oc != nc {
			result.Changed[k] = Change{Old: ov, New: nv}
		}
	}
	for k, ov := range oldMap {
		if _, stillPresent := newMap[k]; !stillPresent {
			result.Removed[k] = ov
		}
	}

	return result, nil
}

func toMap(doc json.RawMessage) (map[string]interface{}, error) {
	if len(doc) == 0 {
		return map[string]interface{}{}, nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = map[string]interface{}{}
	}
	return m, nil
}

// canonicalize renders v as JSON with sorted object keys and normalized
// number formatting, so that e.g. 30 and 30.0 compare equal.
func canonicalize(v interface{}) (string, error) {
	var buf []byte
	var err error
	buf, err = canonicalizeValue(v)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

func canonicalizeValue(v interface{}) ([]byte, error) {
	switch t := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := []byte("{")
		for i, k := range keys {
			if i > 0 {
				out = append(out, ',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			out = append(out, kb...)
			out = append(out, ':')
			vb, err := canonicalizeValue(t[k])
			if err != nil {
				return nil, err
			}
			out = append(out, vb...)
		}
		out = append(out, '}')
		return out, nil
	case []interface{}:
		out := []byte("[")
		for i, item := range t {
			if i > 0 {
				out = append(out, ',')
			}
			vb, err := canonicalizeValue(item)
			if err != nil {
				return nil, err
			}
			out = append(out, vb...)
		}
		out = append(out, ']')
		return out, nil
	case float64:
		return []byte(normalizeNumber(t)), nil
	default:
		return json.Marshal(t)
	}
}

// normalizeNumber renders a float64 without a trailing ".0" for integral
// values, so that JSON's 30 and 30.0 decode to the same canonical string.
func normalizeNumber(f float64) string {
	if f == math.Trunc(f) && !math.IsInf(f, 0) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}
