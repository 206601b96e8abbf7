package service

import (
	"context"
	"encoding/json"

	"github.com/propgraph/propgraph/internal/graph/acl"
	"github.com/propgraph/propgraph/internal/graph/diff"
	"github.com/propgraph/propgraph/internal/graph/model"
	"github.com/propgraph/propgraph/internal/graph/query"
	"github.com/propgraph/propgraph/internal/graph/store"
	"github.com/propgraph/propgraph/internal/platform/cache"
)

// CreateEntityInput is the request shape for POST /entities.
type CreateEntityInput struct {
	TypeID     string
	Properties json.RawMessage
	AclEntries []model.AclEntry
	ActorID    string
}

// CreateEntity creates a v1 entity row and audits the creation.
func (s *Service) CreateEntity(ctx context.Context, in CreateEntityInput) (*model.EntityRow, error) {
	row, err := s.store.CreateEntity(ctx, store.CreateEntityInput{
		TypeID:     in.TypeID,
		Properties: in.Properties,
		AclEntries: in.AclEntries,
		ActorID:    in.ActorID,
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, "entity.create", row.ID, in.ActorID, nil)
	return row, nil
}

// GetEntity returns an entity's latest row, checking the read-through
// cache first under EntityKey(chainID) (§4.8).
func (s *Service) GetEntity(ctx context.Context, chainID string, principal *acl.Principal) (*model.EntityRow, error) {
	var cached model.EntityRow
	if cache.GetJSON(ctx, s.cache, cache.EntityKey(chainID), &cached) {
		ok, err := s.aclCheck(ctx, principal, cached.AclID)
		if err == nil && ok {
			return &cached, nil
		}
	}

	row, err := s.store.ReadLatestEntity(ctx, chainID, principal)
	if err != nil {
		return nil, err
	}
	cache.SetJSON(ctx, s.cache, cache.EntityKey(chainID), row, s.cfg.Cache.EntityTTL)
	return row, nil
}

// GetEntityVersion returns a specific historical version row.
func (s *Service) GetEntityVersion(ctx context.Context, chainID string, n int, principal *acl.Principal) (*model.EntityRow, error) {
	return s.store.ReadEntityVersion(ctx, chainID, n, principal)
}

// ListEntityChain returns the full version chain in ascending order.
func (s *Service) ListEntityChain(ctx context.Context, chainID string, principal *acl.Principal) ([]model.EntityRow, error) {
	return s.store.ListEntityChain(ctx, chainID, principal)
}

// EntityHistory returns the version chain alongside pairwise property
// diffs (§4.6 + §6 /history).
func (s *Service) EntityHistory(ctx context.Context, chainID string, principal *acl.Principal) ([]model.EntityRow, []diff.Entry, error) {
	chain, err := s.ListEntityChain(ctx, chainID, principal)
	if err != nil {
		return nil, nil, err
	}

	versions := make([]int, len(chain))
	docs := make([]json.RawMessage, len(chain))
	for i, row := range chain {
		versions[i] = row.Version
		docs[i] = json.RawMessage(row.Properties)
	}

	entries, err := diff.Chain(versions, docs)
	if err != nil {
		return nil, nil, err
	}
	return chain, entries, nil
}

// UpdateEntity validates and applies a property update, invalidating the
// cache entry for both the old and new ids (§9).
func (s *Service) UpdateEntity(ctx context.Context, chainID string, properties json.RawMessage, principal *acl.Principal) (*model.EntityRow, error) {
	row, err := s.store.UpdateEntity(ctx, chainID, properties, principal)
	if err != nil {
		return nil, err
	}
	s.invalidateEntity(ctx, row.ID, row.PreviousVersionID)
	s.recordAudit(ctx, "entity.update", row.ID, principal.UserID, nil)
	return row, nil
}

// SoftDeleteEntity marks the chain deleted.
func (s *Service) SoftDeleteEntity(ctx context.Context, chainID string, principal *acl.Principal) (*model.EntityRow, error) {
	row, err := s.store.SoftDeleteEntity(ctx, chainID, principal)
	if err != nil {
		return nil, err
	}
	s.invalidateEntity(ctx, row.ID, row.PreviousVersionID)
	s.recordAudit(ctx, "entity.delete", row.ID, principal.UserID, nil)
	return row, nil
}

// RestoreEntity un-marks a soft-deleted chain.
func (s *Service) RestoreEntity(ctx context.Context, chainID string, principal *acl.Principal) (*model.EntityRow, error) {
	row, err := s.store.RestoreEntity(ctx, chainID, principal)
	if err != nil {
		return nil, err
	}
	s.invalidateEntity(ctx, row.ID, row.PreviousVersionID)
	s.recordAudit(ctx, "entity.restore", row.ID, principal.UserID, nil)
	return row, nil
}

// GetEntityAcl returns the latest row's ACL entries.
func (s *Service) GetEntityAcl(ctx context.Context, chainID string, principal *acl.Principal) (*model.Acl, error) {
	row, err := s.store.ReadLatestEntity(ctx, chainID, principal)
	if err != nil {
		return nil, err
	}
	return s.loadAcl(ctx, row.AclID)
}

// SetEntityAcl assigns a new ACL to the chain.
func (s *Service) SetEntityAcl(ctx context.Context, chainID string, entries []model.AclEntry, principal *acl.Principal) (*model.EntityRow, error) {
	row, err := s.store.SetEntityAcl(ctx, chainID, entries, principal)
	if err != nil {
		return nil, err
	}
	s.invalidateEntity(ctx, row.ID, row.PreviousVersionID)
	s.recordAudit(ctx, "entity.set_acl", row.ID, principal.UserID, nil)
	return row, nil
}

// ListEntities runs the §4.5 cursor-paginated listing over the entities
// table.
func (s *Service) ListEntities(ctx context.Context, f query.Filter, principal *acl.Principal) (query.Page[model.EntityRow], error) {
	return query.Paginate(ctx, s.db.WithContext(ctx).Model(&model.EntityRow{}), s.cfg.Database.Driver, f, s.aclEngine, principal, s.cfg.ACL.OversampleFactor,
		func(r model.EntityRow) query.RowMeta { return query.RowMeta{CreatedAt: r.CreatedAt, ID: r.ID, AclID: r.AclID} })
}

func (s *Service) aclCheck(ctx context.Context, principal *acl.Principal, aclID *string) (bool, error) {
	return s.aclEngine.HasPermission(ctx, principal, aclID, model.PermissionRead)
}

func (s *Service) loadAcl(ctx context.Context, aclID *string) (*model.Acl, error) {
	if aclID == nil {
		return nil, nil
	}
	var a model.Acl
	if err := s.db.WithContext(ctx).Preload("Entries").Where("id = ?", *aclID).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}
