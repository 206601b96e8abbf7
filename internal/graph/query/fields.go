package query

import (
	"encoding/json"
	"strings"
)

// allowedFields is the per-resource-kind fields projection allow-list
// (§6 query params). Unknown names are dropped rather than erroring,
// matching the cursor's "ignored with a warning" tolerance policy.
var allowedFields = map[string]map[string]bool{
	"entity": fieldSet("id", "type_id", "properties", "version", "created_at", "created_by", "is_deleted"),
	"link":   fieldSet("id", "type_id", "properties", "version", "created_at", "created_by", "is_deleted", "source_entity_id", "target_entity_id"),
}

func fieldSet(names ...string) map[string]bool {
	s := make(map[string]bool, len(names))
	for _, n := range names {
		s[n] = true
	}
	return s
}

// ParseFields splits a comma-separated fields query param and drops any
// name not on kind's allow-list. A raw value of "" yields a nil slice,
// meaning "no projection, return the full resource".
func ParseFields(raw, kind string) []string {
	if raw == "" {
		return nil
	}
	allowed := allowedFields[kind]
	var out []string
	seen := map[string]bool{}
	for _, f := range strings.Split(raw, ",") {
		f = strings.TrimSpace(f)
		if f == "" || seen[f] || !allowed[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// Project reduces row to only the requested fields by round-tripping it
// through JSON so the same struct tags the full response uses also drive
// the projected one. Callers should only invoke this when len(fields) > 0.
func Project(row interface{}, fields []string) (map[string]interface{}, error) {
	raw, err := json.Marshal(row)
	if err != nil {
		return nil, err
	}
	var full map[string]interface{}
	if err := json.Unmarshal(raw, &full); err != nil {
		return nil, err
	}
	out := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		if v, ok := full[f]; ok {
			out[f] = v
		}
	}
	return out, nil
}

// ProjectAll maps Project over a slice of rows, used for list/page
// responses.
func ProjectAll(rows interface{}, fields []string) ([]map[string]interface{}, error) {
	raw, err := json.Marshal(rows)
	if err != nil {
		return nil, err
	}
	var full []map[string]interface{}
	if err := json.Unmarshal(raw, &full); err != nil {
		return nil, err
	}
	out := make([]map[string]interface{}, len(full))
	for i, row := range full {
		projected := make(map[string]interface{}, len(fields))
		for _, f := range fields {
			if v, ok := row[f]; ok {
				projected[f] = v
			}
		}
		out[i] = projected
	}
	return out, nil
}
