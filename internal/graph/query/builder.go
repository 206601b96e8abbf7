package query

import (
	"fmt"

	"gorm.io/gorm"
)

// Apply scopes db with every non-ACL condition in f: scalar/range/boolean
// filters, property equality, rich property filters, and cursor
// positioning. ACL conditions are layered on separately by the caller
// (store/traversal), since the decision shape (in-query vs post-query)
// depends on the resolved principal, not the filter itself.
func Apply(db *gorm.DB, driver string, f Filter) (*gorm.DB, error) {
	if f.TypeID != "" {
		db = db.Where("type_id = ?", f.TypeID)
	}
	if f.CreatedBy != "" {
		db = db.Where("created_by = ?", f.CreatedBy)
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at > ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	if !f.IncludeDeleted {
		db = db.Where("is_deleted = ?", false)
	}
	if !f.ShowAllVersions {
		db = db.Where("is_latest = ?", true)
	}

	for key, raw := range f.PropertyEquals {
		expr := jsonExtractText(driver, "properties", "$."+key)
		db = applyEquality(db, expr, CoerceScalar(raw))
	}

	for _, rf := range f.PropertyFilters {
		var err error
		db, err = applyRichFilter(db, driver, rf)
		if err != nil {
			return nil, err
		}
	}

	if cursor, ok := ParseCursor(f.Cursor); ok {
		db = db.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	return db.Order("created_at DESC, id DESC"), nil
}

func applyEquality(db *gorm.DB, expr string, value interface{}) *gorm.DB {
	switch value.(type) {
	case bool:
		return db.Where(fmt.Sprintf("%s = ?", expr), boolLiteral(value.(bool)))
	case float64:
		return db.Where(fmt.Sprintf("CAST(%s AS REAL) = ?", expr), value)
	default:
		return db.Where(fmt.Sprintf("%s = ?", expr), value)
	}
}

func applyRichFilter(db *gorm.DB, driver string, rf RichFilter) (*gorm.DB, error) {
	expr := jsonExtractText(driver, "properties", rf.Path)

	if rf.Operator == OpExists {
		return db.Where(fmt.Sprintf("%s IS NOT NULL", expr)), nil
	}
	if rf.Operator == OpNotExists {
		return db.Where(fmt.Sprintf("%s IS NULL", expr)), nil
	}

	coerced := CoerceScalar(rf.Value)
	numeric, isNumeric := coerced.(float64)

	switch rf.Operator {
	case OpEq:
		return applyEquality(db, expr, coerced), nil
	case OpNe:
		if isNumeric {
			return db.Where(fmt.Sprintf("CAST(%s AS REAL) != ?", expr), numeric), nil
		}
		return db.Where(fmt.Sprintf("%s != ?", expr), coerced), nil
	case OpGt, OpGte, OpLt, OpLte:
		if !isNumeric {
			return nil, fmt.Errorf("operator %s requires a numeric value, got %q", rf.Operator, rf.Value)
		}
		return db.Where(fmt.Sprintf("CAST(%s AS REAL) %s ?", expr, sqlComparator(rf.Operator)), numeric), nil
	case OpLike:
		return db.Where(fmt.Sprintf("%s LIKE ?", expr), rf.Value), nil
	case OpIlike:
		return db.Where(fmt.Sprintf("LOWER(%s) LIKE LOWER(?)", expr), rf.Value), nil
	case OpStartsWith:
		return db.Where(fmt.Sprintf("%s LIKE ?", expr), rf.Value+"%"), nil
	case OpEndsWith:
		return db.Where(fmt.Sprintf("%s LIKE ?", expr), "%"+rf.Value), nil
	case OpContains:
		return db.Where(fmt.Sprintf("%s LIKE ?", expr), "%"+rf.Value+"%"), nil
	case OpIn:
		return db.Where(fmt.Sprintf("%s IN ?", expr), splitCSV(rf.Value)), nil
	case OpNotIn:
		return db.Where(fmt.Sprintf("%s NOT IN ?", expr), splitCSV(rf.Value)), nil
	default:
		return nil, fmt.Errorf("unsupported operator %q", rf.Operator)
	}
}

func sqlComparator(op Operator) string {
	switch op {
	case OpGt:
		return ">"
	case OpGte:
		return ">="
	case OpLt:
		return "<"
	default:
		return "<="
	}
}

func splitCSV(raw string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(raw); i++ {
		if i == len(raw) || raw[i] == ',' {
			if i > start {
				out = append(out, raw[start:i])
			}
			start = i + 1
		}
	}
	return out
}

func boolLiteral(b bool) interface{} {
	if b {
		return true
	}
	return false
}
