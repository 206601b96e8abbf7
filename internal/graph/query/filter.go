// Package query implements C5: cursor pagination and structured property
// filtering for entity/link listings and the /search endpoint.
package query

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	platformerrors "github.com/propgraph/propgraph/internal/platform/errors"
)

// Operator enumerates the rich-filter comparison operators (§4.5).
type Operator string

const (
	OpEq         Operator = "eq"
	OpNe         Operator = "ne"
	OpGt         Operator = "gt"
	OpGte        Operator = "gte"
	OpLt         Operator = "lt"
	OpLte        Operator = "lte"
	OpLike       Operator = "like"
	OpIlike      Operator = "ilike"
	OpStartsWith Operator = "starts_with"
	OpEndsWith   Operator = "ends_with"
	OpContains   Operator = "contains"
	OpExists     Operator = "exists"
	OpNotExists  Operator = "not_exists"
	OpIn         Operator = "in"
	OpNotIn      Operator = "not_in"
)

var validOperators = map[Operator]bool{
	OpEq: true, OpNe: true, OpGt: true, OpGte: true, OpLt: true, OpLte: true,
	OpLike: true, OpIlike: true, OpStartsWith: true, OpEndsWith: true,
	OpContains: true, OpExists: true, OpNotExists: true, OpIn: true, OpNotIn: true,
}

// jsonPathPattern whitelists the restricted JSON-Path dialect ($.a.b, §9)
// accepted before any SQL composition.
var jsonPathPattern = regexp.MustCompile(`^\$(\.[a-zA-Z_][a-zA-Z0-9_]*)+$`)

// identifierPattern whitelists column/sort identifiers.
var identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// RichFilter is one (json_path, operator, value) property filter entry.
type RichFilter struct {
	Path     string
	Operator Operator
	Value    string
}

// Filter is the structured description the query builder composes a SELECT
// from (§4.5).
type Filter struct {
	TypeID          string
	CreatedBy       string
	CreatedAfter    *int64
	CreatedBefore   *int64
	IncludeDeleted  bool
	ShowAllVersions bool
	PropertyEquals  map[string]string
	PropertyFilters []RichFilter
	Cursor          string
	Limit           int
	SortColumn      string
}

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ParseListFilter builds a Filter from GET /entities-style query params.
// Malformed cursors and malformed property_<key> names are tolerated per
// §4.5 ("ignored with a warning, not an error") — they come back in the
// warnings slice for the caller to log. ParseListFilter itself only returns
// an error for hard validation failures (bad limit, bad created_after or
// created_before).
func ParseListFilter(values url.Values) (Filter, []string, error) {
	warnings := []string{}
	f := Filter{
		TypeID:          values.Get("type_id"),
		CreatedBy:       values.Get("created_by"),
		IncludeDeleted:  values.Get("include_deleted") == "true",
		ShowAllVersions: values.Get("show_all_versions") == "true",
		Cursor:          values.Get("cursor"),
		Limit:           DefaultLimit,
		SortColumn:      "created_at",
		PropertyEquals:  map[string]string{},
	}

	if f.Cursor != "" {
		if _, ok := ParseCursor(f.Cursor); !ok {
			warnings = append(warnings, fmt.Sprintf("ignoring malformed cursor %q", f.Cursor))
		}
	}

	if v := values.Get("created_after"); v != "" {
		ts, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Filter{}, nil, platformerrors.NewInvalidFilter("created_after", v)
		}
		f.CreatedAfter = &ts
	}
	if v := values.Get("created_before"); v != "" {
		ts, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Filter{}, nil, platformerrors.NewInvalidFilter("created_before", v)
		}
		f.CreatedBefore = &ts
	}

	if v := values.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Filter{}, nil, platformerrors.NewInvalidFilter("limit", v)
		}
		if n > MaxLimit {
			n = MaxLimit
		}
		f.Limit = n
	}

	for key, vals := range values {
		if !strings.HasPrefix(key, "property_") || len(vals) == 0 {
			continue
		}
		propKey := strings.TrimPrefix(key, "property_")
		if !identifierPattern.MatchString(propKey) {
			warnings = append(warnings, fmt.Sprintf("ignoring malformed property filter key %q", key))
			continue
		}
		f.PropertyEquals[propKey] = vals[0]
	}

	return f, warnings, nil
}

// ValidateRichFilters checks each filter's path against the JSON-Path
// whitelist and operator against the enum, returning InvalidFilter on the
// first violation (§4.5 injection guarantee).
func ValidateRichFilters(filters []RichFilter) error {
	for _, rf := range filters {
		if !jsonPathPattern.MatchString(rf.Path) {
			return platformerrors.NewInvalidFilter("json_path", rf.Path)
		}
		if !validOperators[rf.Operator] {
			return platformerrors.NewInvalidFilter("operator", string(rf.Operator))
		}
	}
	return nil
}

// ValidateSortColumn checks a caller-supplied sort column against an
// allow-list, never the raw identifier regex alone — a strict identifier
// match isn't sufficient to guarantee the column actually exists and is
// sortable.
func ValidateSortColumn(column string, allowed []string) error {
	for _, a := range allowed {
		if column == a {
			return nil
		}
	}
	return platformerrors.NewInvalidFilter("sort", column)
}

// CoerceScalar mirrors the scalar equality coercion rule shared by
// property_<key> filters and rich filters: try bool, then number, else
// leave as a string (§4.5, §8 scenario 5).
func CoerceScalar(raw string) interface{} {
	if raw == "true" {
		return true
	}
	if raw == "false" {
		return false
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return n
	}
	return raw
}
