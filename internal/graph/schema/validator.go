// Package schema implements C1, validation of property bags against a
// per-type JSON Schema Draft-07 document.
package schema

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// FieldError is one validation failure, pointing at the failing location
// with a JSON Pointer.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Keyword string `json:"keyword"`
}

// Result is the outcome of validating a document against a schema.
type Result struct {
	Valid  bool         `json:"valid"`
	Errors []FieldError `json:"errors"`
}

// Validator compiles and caches JSON Schema documents by type id so that a
// hot create/update path does not recompile the schema on every call.
type Validator struct {
	compiled map[string]*jsonschema.Schema
}

// New returns an empty Validator. Schemas are compiled lazily on first use
// via Validate, keyed by the caller-supplied cache key (the type id).
func New() *Validator {
	return &Validator{compiled: make(map[string]*jsonschema.Schema)}
}

// Validate checks doc against the schema registered under cacheKey, which
// is typically a type id. When rawSchema is nil, validation succeeds
// unconditionally, per §4.1.
func (v *Validator) Validate(_ context.Context, cacheKey string, rawSchema []byte, doc []byte) (Result, error) {
	if len(rawSchema) == 0 || string(rawSchema) == "null" {
		return Result{Valid: true}, nil
	}

	compiled, ok := v.compiled[cacheKey]
	if !ok {
		c, err := compile(cacheKey, rawSchema)
		if err != nil {
			return Result{}, fmt.Errorf("compile schema %s: %w", cacheKey, err)
		}
		v.compiled[cacheKey] = c
		compiled = c
	}

	var instance interface{}
	if err := json.Unmarshal(doc, &instance); err != nil {
		return Result{Valid: false, Errors: []FieldError{{
			Path:    "",
			Message: fmt.Sprintf("invalid JSON document: %v", err),
			Keyword: "type",
		}}}, nil
	}

	if err := compiled.Validate(instance); err != nil {
		return Result{Valid: false, Errors: flattenValidationError(err)}, nil
	}

	return Result{Valid: true}, nil
}

// Invalidate drops a cached compiled schema, forcing recompilation on next
// use. Types are immutable in steady state, but tests reuse cache keys
// across schema edits.
func (v *Validator) Invalidate(cacheKey string) {
	delete(v.compiled, cacheKey)
}

func compile(cacheKey string, rawSchema []byte) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft7

	resourceURL := "mem://" + cacheKey
	if err := compiler.AddResource(resourceURL, bytes.NewReader(rawSchema)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}

	return compiler.Compile(resourceURL)
}

// flattenValidationError walks a jsonschema.ValidationError's Causes tree
// and collects one FieldError per leaf, which is where the actual
// constraint violation occurred.
func flattenValidationError(err error) []FieldError {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []FieldError{{Path: "", Message: err.Error(), Keyword: "unknown"}}
	}

	var out []FieldError
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			out = append(out, FieldError{
				Path:    e.InstanceLocation,
				Message: e.Message,
				Keyword: keywordOf(e.KeywordLocation),
			})
			return
		}
		for _, cause := range e.Causes {
			walk(cause)
		}
	}
	walk(ve)
	return out
}

func keywordOf(keywordLocation string) string {
	if keywordLocation == "" {
		return "unknown"
	}
	for i := len(keywordLocation) - 1; i >= 0; i-- {
		if keywordLocation[i] == '/' {
			return keywordLocation[i+1:]
		}
	}
	return keywordLocation
}
