package query

import (
	"net/url"
	"testing"

	domainerrors "github.com/propgraph/propgraph/internal/domain/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseListFilterDefaults(t *testing.T) {
	f, warnings, err := ParseListFilter(url.Values{})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, DefaultLimit, f.Limit)
	assert.Equal(t, "created_at", f.SortColumn)
}

func TestParseListFilterLimitClampedToMax(t *testing.T) {
	f, _, err := ParseListFilter(url.Values{"limit": {"10000"}})
	require.NoError(t, err)
	assert.Equal(t, MaxLimit, f.Limit)
}

func TestParseListFilterInvalidLimitRejected(t *testing.T) {
	_, _, err := ParseListFilter(url.Values{"limit": {"not-a-number"}})
	require.Error(t, err)
	appErr := domainerrors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, domainerrors.KindValidation, appErr.Kind)
}

func TestParseListFilterMalformedPropertyKeyWarns(t *testing.T) {
	f, warnings, err := ParseListFilter(url.Values{"property_$bad": {"x"}, "property_ok": {"y"}})
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, "y", f.PropertyEquals["ok"])
	assert.NotContains(t, f.PropertyEquals, "$bad")
}

func TestValidateRichFiltersRejectsBadPath(t *testing.T) {
	err := ValidateRichFilters([]RichFilter{{Path: "$.a; DROP TABLE entities", Operator: OpEq, Value: "1"}})
	require.Error(t, err)
}

func TestValidateRichFiltersRejectsBadOperator(t *testing.T) {
	err := ValidateRichFilters([]RichFilter{{Path: "$.a.b", Operator: "exec", Value: "1"}})
	require.Error(t, err)
}

func TestValidateRichFiltersAcceptsValid(t *testing.T) {
	err := ValidateRichFilters([]RichFilter{{Path: "$.a.b", Operator: OpGte, Value: "1"}})
	assert.NoError(t, err)
}

func TestValidateSortColumnAllowList(t *testing.T) {
	assert.NoError(t, ValidateSortColumn("created_at", []string{"created_at", "id"}))
	assert.Error(t, ValidateSortColumn("properties->>'secret'", []string{"created_at", "id"}))
}

func TestCoerceScalar(t *testing.T) {
	assert.Equal(t, true, CoerceScalar("true"))
	assert.Equal(t, false, CoerceScalar("false"))
	assert.Equal(t, 42.0, CoerceScalar("42"))
	assert.Equal(t, "hello", CoerceScalar("hello"))
}
