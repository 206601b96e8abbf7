package query

import "strings"

// jsonExtractText returns a driver-specific SQL expression extracting path
// (already validated against jsonPathPattern, e.g. "$.a.b") from column as
// text. sqlite's json1 extension and postgres's jsonb operators use
// different syntax for the same operation (§9: "parse only at the API
// boundary", the store never materializes the JSON in Go otherwise).
func jsonExtractText(driver, column, path string) string {
	switch driver {
	case "sqlite":
		return "json_extract(" + column + ", '" + path + "')"
	default:
		return column + "::jsonb" + postgresArrowChain(path)
	}
}

// postgresArrowChain turns "$.a.b.c" into `->'a'->'b'->>'c'`, using the
// text-returning `->>` only on the final hop.
func postgresArrowChain(path string) string {
	segments := strings.Split(strings.TrimPrefix(path, "$."), ".")
	var b strings.Builder
	for i, seg := range segments {
		if i == len(segments)-1 {
			b.WriteString("->>'")
		} else {
			b.WriteString("->'")
		}
		b.WriteString(seg)
		b.WriteString("'")
	}
	return b.String()
}
