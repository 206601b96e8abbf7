// Package errors holds the graph store's domain-specific error codes and the
// constructors controllers and services use to build them. It mirrors the
// generic AppError machinery in internal/domain/errors, the same way the
// platform/errors package has always layered resource-specific codes on top
// of the kind taxonomy.
package errors

import (
	stderrors "errors"
	"strings"

	domainerrors "github.com/propgraph/propgraph/internal/domain/errors"
	"gorm.io/gorm"
)

// Error codes, grouped by the component of the spec that raises them.
const (
	// Database / repository plumbing
	CodeDatabaseConnectionFailed = "DATABASE_CONNECTION_FAILED"
	CodeDatabaseQueryFailed      = "DATABASE_QUERY_FAILED"
	CodeDatabaseTxFailed         = "DATABASE_TRANSACTION_FAILED"

	// C1 Schema Validator
	CodeSchemaValidationFailed = "SCHEMA_VALIDATION_FAILED"
	CodeSchemaInvalid          = "SCHEMA_INVALID"

	// C2 Version Chain Engine
	CodeChainNotFound    = "CHAIN_NOT_FOUND"
	CodeInvalidVersion   = "INVALID_VERSION"
	CodeChainHopOverflow = "CHAIN_HOP_OVERFLOW"

	// C3 Resource Store
	CodeTypeNotFound       = "TYPE_NOT_FOUND"
	CodeEntityNotFound     = "ENTITY_NOT_FOUND"
	CodeLinkNotFound       = "LINK_NOT_FOUND"
	CodeAlreadyDeleted     = "ALREADY_DELETED"
	CodeNotDeleted         = "NOT_DELETED"
	CodeEntityDeleted      = "ENTITY_DELETED"
	CodeInvalidAcl         = "INVALID_ACL"
	CodeInvalidPrincipals  = "INVALID_PRINCIPALS"
	CodeDanglingEndpoint   = "DANGLING_LINK_ENDPOINT"
	CodePreconditionFailed = "PRECONDITION_FAILED"
	CodeDuplicateEntry     = "DUPLICATE_ENTRY"

	// C4 ACL Engine
	CodeForbidden = "FORBIDDEN"
	CodeAclCycle  = "ACL_CYCLE"

	// C5 Query Builder
	CodeInvalidFilter = "INVALID_FILTER"
	CodeInvalidCursor = "INVALID_CURSOR"

	// Auth
	CodeUnauthorized = "UNAUTHORIZED"
)

// NewDatabaseConnectionFailed wraps a connection-level failure.
func NewDatabaseConnectionFailed(cause error) *domainerrors.AppError {
	return domainerrors.Wrap(cause, CodeDatabaseConnectionFailed, domainerrors.KindInternal, "failed to connect to database")
}

// NewDatabaseQueryFailed wraps a failed SQL statement.
func NewDatabaseQueryFailed(op string, cause error) *domainerrors.AppError {
	return domainerrors.Wrap(cause, CodeDatabaseQueryFailed, domainerrors.KindInternal, "database query failed").WithOp(op)
}

// NewSchemaValidationFailed builds a validation AppError carrying the
// per-field errors produced by the schema validator.
func NewSchemaValidationFailed(details []map[string]string) *domainerrors.AppError {
	return domainerrors.New(CodeSchemaValidationFailed, domainerrors.KindValidation, "property document failed schema validation").
		WithMeta("errors", details)
}

// NewTypeNotFound signals an unknown type_id.
func NewTypeNotFound(typeID string) *domainerrors.AppError {
	return domainerrors.New(CodeTypeNotFound, domainerrors.KindNotFound, "type not found").WithMeta("type_id", typeID)
}

// NewEntityNotFound signals a chain with no resolvable row.
func NewEntityNotFound(chainID string) *domainerrors.AppError {
	return domainerrors.New(CodeEntityNotFound, domainerrors.KindNotFound, "entity not found").WithMeta("chain_id", chainID)
}

// NewLinkNotFound signals a link chain with no resolvable row.
func NewLinkNotFound(chainID string) *domainerrors.AppError {
	return domainerrors.New(CodeLinkNotFound, domainerrors.KindNotFound, "link not found").WithMeta("chain_id", chainID)
}

// NewInvalidVersion signals an out-of-range or non-existent version number.
func NewInvalidVersion(chainID string, version int) *domainerrors.AppError {
	return domainerrors.New(CodeInvalidVersion, domainerrors.KindValidation, "version does not exist in this chain").
		WithMeta("chain_id", chainID).WithMeta("version", version)
}

// NewAlreadyDeleted signals a delete on an already-deleted chain.
func NewAlreadyDeleted(chainID string) *domainerrors.AppError {
	return domainerrors.New(CodeAlreadyDeleted, domainerrors.KindConflict, "resource is already deleted").WithMeta("chain_id", chainID)
}

// NewNotDeleted signals a restore on a chain that isn't deleted.
func NewNotDeleted(chainID string) *domainerrors.AppError {
	return domainerrors.New(CodeNotDeleted, domainerrors.KindConflict, "resource is not deleted").WithMeta("chain_id", chainID)
}

// NewEntityDeleted signals an update attempted on a soft-deleted chain.
func NewEntityDeleted(chainID string) *domainerrors.AppError {
	return domainerrors.New(CodeEntityDeleted, domainerrors.KindConflict, "resource is deleted").WithMeta("chain_id", chainID)
}

// NewInvalidAcl signals a malformed ACL entry list on create/set.
func NewInvalidAcl(reason string) *domainerrors.AppError {
	return domainerrors.New(CodeInvalidAcl, domainerrors.KindValidation, "invalid ACL entries").WithMeta("reason", reason)
}

// NewInvalidPrincipals signals unresolvable principal ids in an ACL entry list.
func NewInvalidPrincipals(principals []string) *domainerrors.AppError {
	return domainerrors.New(CodeInvalidPrincipals, domainerrors.KindValidation, "unknown principal ids").WithMeta("principals", principals)
}

// NewDanglingEndpoint signals a link create whose source or target chain
// does not resolve to a live row.
func NewDanglingEndpoint(field, id string) *domainerrors.AppError {
	return domainerrors.New(CodeDanglingEndpoint, domainerrors.KindValidation, "link endpoint does not resolve to an existing resource").
		WithMeta("field", field).WithMeta("id", id)
}

// NewPreconditionFailed signals a lost conditional-demote race (§5).
func NewPreconditionFailed(chainID string) *domainerrors.AppError {
	return domainerrors.New(CodePreconditionFailed, domainerrors.KindPreconditionFailed, "concurrent write lost a race, retry").
		WithMeta("chain_id", chainID)
}

// NewForbidden signals an ACL denial.
func NewForbidden(reason string) *domainerrors.AppError {
	return domainerrors.New(CodeForbidden, domainerrors.KindForbidden, "access denied").WithMeta("reason", reason)
}

// NewAclCycle signals a rejected group-membership edge.
func NewAclCycle(groupID, memberID string) *domainerrors.AppError {
	return domainerrors.New(CodeAclCycle, domainerrors.KindConflict, "group membership would introduce a cycle").
		WithMeta("group_id", groupID).WithMeta("member_id", memberID)
}

// NewInvalidFilter signals a property path or sort column that failed the
// identifier whitelist.
func NewInvalidFilter(field, value string) *domainerrors.AppError {
	return domainerrors.New(CodeInvalidFilter, domainerrors.KindValidation, "invalid filter").
		WithMeta("field", field).WithMeta("value", value)
}

// NewUnauthorized signals a missing or malformed principal on a request that requires one.
func NewUnauthorized(reason string) *domainerrors.AppError {
	return domainerrors.New(CodeUnauthorized, domainerrors.KindUnauthorized, "authentication required").WithMeta("reason", reason)
}

// HandleGormError classifies a GORM/driver error into an AppError, the same
// adapter role platform/errors has always played at the repository boundary.
func HandleGormError(err error, resourceType, op string) *domainerrors.AppError {
	if err == nil {
		return nil
	}

	if appErr := domainerrors.AsAppError(err); appErr != nil {
		return appErr.WithOp(op)
	}

	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return domainerrors.New(CodeEntityNotFound, domainerrors.KindNotFound, "record not found").
			WithOp(op).WithMeta("resource_type", resourceType)
	}

	if isUniqueViolation(err) {
		return domainerrors.New(CodeDuplicateEntry, domainerrors.KindConflict, "duplicate entry").
			WithOp(op).WithMeta("resource_type", resourceType)
	}

	return domainerrors.Wrap(err, CodeDatabaseQueryFailed, domainerrors.KindInternal, "database operation failed").
		WithOp(op).WithMeta("resource_type", resourceType)
}

func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}
