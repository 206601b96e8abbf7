package schema

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const personSchema = `{
	"type": "object",
	"properties": {
		"name": {"type": "string"},
		"age": {"type": "integer", "minimum": 0}
	},
	"required": ["name"]
}`

func TestValidateAcceptsConformingDocument(t *testing.T) {
	v := New()
	result, err := v.Validate(context.Background(), "person", []byte(personSchema), []byte(`{"name":"alice","age":30}`))
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
}

func TestValidateRejectsMissingRequiredField(t *testing.T) {
	v := New()
	result, err := v.Validate(context.Background(), "person", []byte(personSchema), []byte(`{"age":30}`))
	require.NoError(t, err)
	assert.False(t, result.Valid)
	require.NotEmpty(t, result.Errors)
	assert.Equal(t, "required", result.Errors[0].Keyword)
}

func TestValidateRejectsWrongType(t *testing.T) {
	v := New()
	result, err := v.Validate(context.Background(), "person", []byte(personSchema), []byte(`{"name":"alice","age":"old"}`))
	require.NoError(t, err)
	assert.False(t, result.Valid)
	require.NotEmpty(t, result.Errors)
}

func TestValidateNilSchemaAlwaysValid(t *testing.T) {
	v := New()
	result, err := v.Validate(context.Background(), "untyped", nil, []byte(`{"anything":"goes"}`))
	require.NoError(t, err)
	assert.True(t, result.Valid)
}

func TestValidateCachesCompiledSchema(t *testing.T) {
	v := New()
	_, err := v.Validate(context.Background(), "person", []byte(personSchema), []byte(`{"name":"a"}`))
	require.NoError(t, err)
	assert.Contains(t, v.compiled, "person")

	v.Invalidate("person")
	assert.NotContains(t, v.compiled, "person")
}

func TestValidateInvalidDocumentJSON(t *testing.T) {
	v := New()
	result, err := v.Validate(context.Background(), "person", []byte(personSchema), []byte(`not json`))
	require.NoError(t, err)
	assert.False(t, result.Valid)
}
