package store

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/propgraph/propgraph/internal/graph/acl"
	"github.com/propgraph/propgraph/internal/graph/model"
	platformerrors "github.com/propgraph/propgraph/internal/platform/errors"
	"gorm.io/gorm"
)

// CreateLinkInput carries the fields needed to create a v1 link row.
type CreateLinkInput struct {
	TypeID         string
	SourceEntityID string
	TargetEntityID string
	Properties     json.RawMessage
	AclEntries     []model.AclEntry
	ActorID        string
}

// CreateLink verifies both endpoints resolve to a live (not hard-deleted —
// hard delete does not exist, so "exists at all") chain via the version
// engine, validates properties, and inserts a v1 row (§4.3).
func (s *Store) CreateLink(ctx context.Context, in CreateLinkInput) (*model.LinkRow, error) {
	typ, err := s.loadType(ctx, in.TypeID, model.CategoryLink)
	if err != nil {
		return nil, err
	}
	if _, err := s.entities.FindLatest(ctx, in.SourceEntityID); err != nil {
		return nil, platformerrors.NewDanglingEndpoint("source_entity_id", in.SourceEntityID)
	}
	if _, err := s.entities.FindLatest(ctx, in.TargetEntityID); err != nil {
		return nil, platformerrors.NewDanglingEndpoint("target_entity_id", in.TargetEntityID)
	}
	if err := s.validateProperties(ctx, typ, in.Properties); err != nil {
		return nil, err
	}
	aclID, err := s.aclEngine.GetOrCreateAcl(ctx, in.AclEntries)
	if err != nil {
		return nil, err
	}

	row := &model.LinkRow{
		ID:             uuid.NewString(),
		TypeID:         in.TypeID,
		SourceEntityID: in.SourceEntityID,
		TargetEntityID: in.TargetEntityID,
		Properties:     datatypesJSON(in.Properties),
		Version:        1,
		CreatedAt:      model.Now(),
		CreatedBy:      in.ActorID,
		IsLatest:       true,
		AclID:          aclID,
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, platformerrors.HandleGormError(err, "links", "CreateLink")
	}
	return row, nil
}

// ReadLatestLink mirrors ReadLatestEntity for links.
func (s *Store) ReadLatestLink(ctx context.Context, chainID string, principal *acl.Principal) (*model.LinkRow, error) {
	row, err := s.latestLinkRow(ctx, chainID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, principal, row.AclID, model.PermissionRead); err != nil {
		return nil, err
	}
	return row, nil
}

// ReadLinkVersion mirrors ReadEntityVersion for links.
func (s *Store) ReadLinkVersion(ctx context.Context, chainID string, n int, principal *acl.Principal) (*model.LinkRow, error) {
	vrow, err := s.links.FindVersion(ctx, chainID, n)
	if err != nil {
		return nil, err
	}
	row, err := s.linkByID(ctx, vrow.ID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, principal, row.AclID, model.PermissionRead); err != nil {
		return nil, err
	}
	return row, nil
}

// ListLinkChain mirrors ListEntityChain for links.
func (s *Store) ListLinkChain(ctx context.Context, chainID string, principal *acl.Principal) ([]model.LinkRow, error) {
	latest, err := s.latestLinkRow(ctx, chainID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, principal, latest.AclID, model.PermissionRead); err != nil {
		return nil, err
	}
	vrows, err := s.links.ListChain(ctx, chainID)
	if err != nil {
		return nil, err
	}
	return s.linksByIDs(ctx, idsOf(vrows))
}

// UpdateLink mirrors UpdateEntity. Source/target are immutable once
// created (§4.3: "Updates to a link's source/target are not supported").
func (s *Store) UpdateLink(ctx context.Context, chainID string, properties json.RawMessage, principal *acl.Principal) (*model.LinkRow, error) {
	latest, err := s.latestLinkRow(ctx, chainID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, principal, latest.AclID, model.PermissionWrite); err != nil {
		return nil, err
	}
	if latest.IsDeleted {
		return nil, platformerrors.NewEntityDeleted(chainID)
	}

	typ, err := s.loadType(ctx, latest.TypeID, model.CategoryLink)
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

	if err := s.demoteThenInsertLink(ctx, latest.ID, &next); err != nil {
		return nil, err
	}
	return &next, nil
}

// SoftDeleteLink mirrors SoftDeleteEntity.
func (s *Store) SoftDeleteLink(ctx context.Context, chainID string, principal *acl.Principal) (*model.LinkRow, error) {
	latest, err := s.latestLinkRow(ctx, chainID)
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

	if err := s.demoteThenInsertLink(ctx, latest.ID, &next); err != nil {
		return nil, err
	}
	return &next, nil
}

// RestoreLink mirrors RestoreEntity.
func (s *Store) RestoreLink(ctx context.Context, chainID string, principal *acl.Principal) (*model.LinkRow, error) {
	latest, err := s.latestLinkRow(ctx, chainID)
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

	if err := s.demoteThenInsertLink(ctx, latest.ID, &next); err != nil {
		return nil, err
	}
	return &next, nil
}

// SetLinkAcl mirrors SetEntityAcl.
func (s *Store) SetLinkAcl(ctx context.Context, chainID string, entries []model.AclEntry, principal *acl.Principal) (*model.LinkRow, error) {
	latest, err := s.latestLinkRow(ctx, chainID)
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

	if err := s.demoteThenInsertLink(ctx, latest.ID, &next); err != nil {
		return nil, err
	}
	return &next, nil
}

func (s *Store) demoteThenInsertLink(ctx context.Context, oldLatestID string, next *model.LinkRow) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.LinkRow{}).
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

func (s *Store) latestLinkRow(ctx context.Context, chainID string) (*model.LinkRow, error) {
	vrow, err := s.links.FindLatest(ctx, chainID)
	if err != nil {
		return nil, err
	}
	return s.linkByID(ctx, vrow.ID)
}

func (s *Store) linkByID(ctx context.Context, id string) (*model.LinkRow, error) {
	var row model.LinkRow
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, platformerrors.HandleGormError(err, "links", "linkByID")
	}
	return &row, nil
}

func (s *Store) linksByIDs(ctx context.Context, ids []string) ([]model.LinkRow, error) {
	var rows []model.LinkRow
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Order("version ASC").Find(&rows).Error; err != nil {
		return nil, platformerrors.HandleGormError(err, "links", "linksByIDs")
	}
	return rows, nil
}
