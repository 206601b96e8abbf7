// Package store implements C3: CRUD-with-versioning for entities and
// links, including soft-delete, restore, and ACL assignment, all sharing
// the demote-then-insert versioning sequence described in §3 and §5.
package store

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/propgraph/propgraph/internal/graph/acl"
	"github.com/propgraph/propgraph/internal/graph/model"
	"github.com/propgraph/propgraph/internal/graph/schema"
	"github.com/propgraph/propgraph/internal/graph/version"
	domainerrors "github.com/propgraph/propgraph/internal/domain/errors"
	platformerrors "github.com/propgraph/propgraph/internal/platform/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func datatypesJSON(raw json.RawMessage) datatypes.JSON {
	if len(raw) == 0 {
		return datatypes.JSON([]byte("{}"))
	}
	return datatypes.JSON(raw)
}

// Store provides versioned CRUD over both entities and links. Kept as one
// type because the two resource kinds share every operation's shape,
// differing only in table name and the extra source/target fields on links.
type Store struct {
	db        *gorm.DB
	validator *schema.Validator
	aclEngine *acl.Engine
	entities  *version.Engine
	links     *version.Engine
}

// NewStore builds a Store bound to db, sharing the validator, ACL engine,
// and per-table version-chain engines injected from the service layer.
func NewStore(db *gorm.DB, validator *schema.Validator, aclEngine *acl.Engine, entityEngine, linkEngine *version.Engine) *Store {
	return &Store{db: db, validator: validator, aclEngine: aclEngine, entities: entityEngine, links: linkEngine}
}

// CreateEntityInput carries the fields needed to create a v1 entity row.
type CreateEntityInput struct {
	TypeID     string
	Properties json.RawMessage
	AclEntries []model.AclEntry
	ActorID    string
}

// CreateEntity validates properties against the type's schema, resolves or
// creates the ACL, and inserts a v1 row (§4.3 Create).
func (s *Store) CreateEntity(ctx context.Context, in CreateEntityInput) (*model.EntityRow, error) {
	typ, err := s.loadType(ctx, in.TypeID, model.CategoryEntity)
	if err != nil {
		return nil, err
	}
	if err := s.validateProperties(ctx, typ, in.Properties); err != nil {
		return nil, err
	}
	aclID, err := s.aclEngine.GetOrCreateAcl(ctx, in.AclEntries)
	if err != nil {
		return nil, err
	}

	row := &model.EntityRow{
		ID:         uuid.NewString(),
		TypeID:     in.TypeID,
		Properties: datatypesJSON(in.Properties),
		Version:    1,
		CreatedAt:  model.Now(),
		CreatedBy:  in.ActorID,
		IsLatest:   true,
		AclID:      aclID,
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, platformerrors.HandleGormError(err, "entities", "CreateEntity")
	}
	return row, nil
}

// ReadLatestEntity returns the chain's latest row if the principal has read
// permission.
func (s *Store) ReadLatestEntity(ctx context.Context, chainID string, principal *acl.Principal) (*model.EntityRow, error) {
	row, err := s.latestEntityRow(ctx, chainID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, principal, row.AclID, model.PermissionRead); err != nil {
		return nil, err
	}
	return row, nil
}

// ReadEntityVersion returns the n-th version row of the chain if the
// principal has read permission.
func (s *Store) ReadEntityVersion(ctx context.Context, chainID string, n int, principal *acl.Principal) (*model.EntityRow, error) {
	vrow, err := s.entities.FindVersion(ctx, chainID, n)
	if err != nil {
		return nil, err
	}
	row, err := s.entityByID(ctx, vrow.ID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, principal, row.AclID, model.PermissionRead); err != nil {
		return nil, err
	}
	return row, nil
}

// ListEntityChain returns the full chain in ascending version order, gated
// on read permission of the latest row (consistent with how the chain as a
// whole is protected).
func (s *Store) ListEntityChain(ctx context.Context, chainID string, principal *acl.Principal) ([]model.EntityRow, error) {
	latest, err := s.latestEntityRow(ctx, chainID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, principal, latest.AclID, model.PermissionRead); err != nil {
		return nil, err
	}
	vrows, err := s.entities.ListChain(ctx, chainID)
	if err != nil {
		return nil, err
	}
	return s.entitiesByIDs(ctx, idsOf(vrows))
}

// UpdateEntity flips the current latest row and inserts a new version with
// updated properties, preserving acl_id verbatim (§3, §4.3 Update).
func (s *Store) UpdateEntity(ctx context.Context, chainID string, properties json.RawMessage, principal *acl.Principal) (*model.EntityRow, error) {
	latest, err := s.latestEntityRow(ctx, chainID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, principal, latest.AclID, model.PermissionWrite); err != nil {
		return nil, err
	}
	if latest.IsDeleted {
		return nil, platformerrors.NewEntityDeleted(chainID)
	}

	typ, err := s.loadType(ctx, latest.TypeID, model.CategoryEntity)
	if err != nil {
		return nil, err
	}
	if err := s.validateProperties(ctx, typ, properties); err != nil {
		return nil, err
	}

	next := *latest
	next.ID = uuid.NewString()
	next.Properties = datatypesJSON(properties)
	next.Version = latest.Version + 1
	next.PreviousVersionID = &latest.ID
	next.CreatedAt = model.Now()
	next.CreatedBy = principal.UserID
	next.IsLatest = true

	if err := s.demoteThenInsertEntity(ctx, latest.ID, &next); err != nil {
		return nil, err
	}
	return &next, nil
}

// SoftDeleteEntity inserts a new version with is_deleted=true.
func (s *Store) SoftDeleteEntity(ctx context.Context, chainID string, principal *acl.Principal) (*model.EntityRow, error) {
	latest, err := s.latestEntityRow(ctx, chainID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, principal, latest.AclID, model.PermissionWrite); err != nil {
		return nil, err
	}
	if latest.IsDeleted {
		return nil, platformerrors.NewAlreadyDeleted(chainID)
	}

	next := *latest
	next.ID = uuid.NewString()
	next.Version = latest.Version + 1
	next.PreviousVersionID = &latest.ID
	next.CreatedAt = model.Now()
	next.CreatedBy = principal.UserID
	next.IsDeleted = true
	next.IsLatest = true

	if err := s.demoteThenInsertEntity(ctx, latest.ID, &next); err != nil {
		return nil, err
	}
	return &next, nil
}

// RestoreEntity inserts a new version with is_deleted=false.
func (s *Store) RestoreEntity(ctx context.Context, chainID string, principal *acl.Principal) (*model.EntityRow, error) {
	latest, err := s.latestEntityRow(ctx, chainID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, principal, latest.AclID, model.PermissionWrite); err != nil {
		return nil, err
	}
	if !latest.IsDeleted {
		return nil, platformerrors.NewNotDeleted(chainID)
	}

	next := *latest
	next.ID = uuid.NewString()
	next.Version = latest.Version + 1
	next.PreviousVersionID = &latest.ID
	next.CreatedAt = model.Now()
	next.CreatedBy = principal.UserID
	next.IsDeleted = false
	next.IsLatest = true

	if err := s.demoteThenInsertEntity(ctx, latest.ID, &next); err != nil {
		return nil, err
	}
	return &next, nil
}

// SetEntityAcl resolves-or-creates the given entries into an ACL and
// inserts a new version carrying the new acl_id.
func (s *Store) SetEntityAcl(ctx context.Context, chainID string, entries []model.AclEntry, principal *acl.Principal) (*model.EntityRow, error) {
	latest, err := s.latestEntityRow(ctx, chainID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, principal, latest.AclID, model.PermissionWrite); err != nil {
		return nil, err
	}
	if latest.IsDeleted {
		return nil, platformerrors.NewEntityDeleted(chainID)
	}

	newAclID, err := s.aclEngine.GetOrCreateAcl(ctx, entries)
	if err != nil {
		return nil, err
	}

	next := *latest
	next.ID = uuid.NewString()
	next.Version = latest.Version + 1
	next.PreviousVersionID = &latest.ID
	next.CreatedAt = model.Now()
	next.CreatedBy = principal.UserID
	next.AclID = newAclID
	next.IsLatest = true

	if err := s.demoteThenInsertEntity(ctx, latest.ID, &next); err != nil {
		return nil, err
	}
	return &next, nil
}

// demoteThenInsertEntity performs the §3/§5 two-step sequence inside a
// transaction where the backing store supports one. The conditional demote
// (WHERE id = oldLatestID AND is_latest = 1) only inserts the new row when
// it affected exactly one row; a lost race surfaces as PreconditionFailed
// so the caller can retry, per §5's optional defense.
func (s *Store) demoteThenInsertEntity(ctx context.Context, oldLatestID string, next *model.EntityRow) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.EntityRow{}).
			Where("id = ? AND is_latest = ?", oldLatestID, true).
			Update("is_latest", false)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected != 1 {
			return platformerrors.NewPreconditionFailed(oldLatestID)
		}
		return tx.Create(next).Error
	})
}

func (s *Store) latestEntityRow(ctx context.Context, chainID string) (*model.EntityRow, error) {
	vrow, err := s.entities.FindLatest(ctx, chainID)
	if err != nil {
		return nil, err
	}
	return s.entityByID(ctx, vrow.ID)
}

func (s *Store) entityByID(ctx context.Context, id string) (*model.EntityRow, error) {
	var row model.EntityRow
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, platformerrors.HandleGormError(err, "entities", "entityByID")
	}
	return &row, nil
}

func (s *Store) entitiesByIDs(ctx context.Context, ids []string) ([]model.EntityRow, error) {
	var rows []model.EntityRow
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Order("version ASC").Find(&rows).Error; err != nil {
		return nil, platformerrors.HandleGormError(err, "entities", "entitiesByIDs")
	}
	return rows, nil
}

func (s *Store) loadType(ctx context.Context, typeID string, category model.TypeCategory) (*model.Type, error) {
	var typ model.Type
	err := s.db.WithContext(ctx).Where("id = ? AND category = ?", typeID, category).First(&typ).Error
	if err == gorm.ErrRecordNotFound {
		return nil, platformerrors.NewTypeNotFound(typeID)
	}
	if err != nil {
		return nil, platformerrors.HandleGormError(err, "types", "loadType")
	}
	return &typ, nil
}

func (s *Store) validateProperties(ctx context.Context, typ *model.Type, properties json.RawMessage) error {
	if len(properties) == 0 {
		properties = json.RawMessage("{}")
	}
	result, err := s.validator.Validate(ctx, typ.ID, typ.JSONSchema, properties)
	if err != nil {
		return domainerrors.Wrap(err, platformerrors.CodeSchemaInvalid, domainerrors.KindInternal, "schema compilation failed")
	}
	if !result.Valid {
		details := make([]map[string]string, len(result.Errors))
		for i, fe := range result.Errors {
			details[i] = map[string]string{"path": fe.Path, "message": fe.Message, "keyword": fe.Keyword}
		}
		return platformerrors.NewSchemaValidationFailed(details)
	}
	return nil
}

func (s *Store) authorize(ctx context.Context, principal *acl.Principal, aclID *string, required model.Permission) error {
	ok, err := s.aclEngine.HasPermission(ctx, principal, aclID, required)
	if err != nil {
		return err
	}
	if !ok {
		return platformerrors.NewForbidden(string(required))
	}
	return nil
}

func idsOf(rows []version.Row) []string {
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids
}
