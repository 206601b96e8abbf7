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

// CreateLinkInput is the request shape for POST /links.
type CreateLinkInput struct {
	TypeID         string
	SourceEntityID string
	TargetEntityID string
	Properties     json.RawMessage
	AclEntries     []model.AclEntry
	ActorID        string
}

// CreateLink creates a v1 link row after verifying both endpoints resolve.
func (s *Service) CreateLink(ctx context.Context, in CreateLinkInput) (*model.LinkRow, error) {
	row, err := s.store.CreateLink(ctx, store.CreateLinkInput{
		TypeID:         in.TypeID,
		SourceEntityID: in.SourceEntityID,
		TargetEntityID: in.TargetEntityID,
		Properties:     in.Properties,
		AclEntries:     in.AclEntries,
		ActorID:        in.ActorID,
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, "link.create", row.ID, in.ActorID, nil)
	return row, nil
}

// GetLink returns a link's latest row via the same cache scheme as entities.
func (s *Service) GetLink(ctx context.Context, chainID string, principal *acl.Principal) (*model.LinkRow, error) {
	var cached model.LinkRow
	if cache.GetJSON(ctx, s.cache, cache.EntityKey(chainID), &cached) {
		if ok, err := s.aclCheck(ctx, principal, cached.AclID); err == nil && ok {
			return &cached, nil
		}
	}

	row, err := s.store.ReadLatestLink(ctx, chainID, principal)
	if err != nil {
		return nil, err
	}
	cache.SetJSON(ctx, s.cache, cache.EntityKey(chainID), row, s.cfg.Cache.EntityTTL)
	return row, nil
}

// GetLinkVersion returns a specific historical version row.
func (s *Service) GetLinkVersion(ctx context.Context, chainID string, n int, principal *acl.Principal) (*model.LinkRow, error) {
	return s.store.ReadLinkVersion(ctx, chainID, n, principal)
}

// ListLinkChain returns the full chain in ascending order.
func (s *Service) ListLinkChain(ctx context.Context, chainID string, principal *acl.Principal) ([]model.LinkRow, error) {
	return s.store.ListLinkChain(ctx, chainID, principal)
}

// LinkHistory mirrors EntityHistory for links.
func (s *Service) LinkHistory(ctx context.Context, chainID string, principal *acl.Principal) ([]model.LinkRow, []diff.Entry, error) {
	chain, err := s.ListLinkChain(ctx, chainID, principal)
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

// UpdateLink mirrors UpdateEntity.
func (s *Service) UpdateLink(ctx context.Context, chainID string, properties json.RawMessage, principal *acl.Principal) (*model.LinkRow, error) {
	row, err := s.store.UpdateLink(ctx, chainID, properties, principal)
	if err != nil {
		return nil, err
	}
	s.invalidateEntity(ctx, row.ID, row.PreviousVersionID)
	s.recordAudit(ctx, "link.update", row.ID, principal.UserID, nil)
	return row, nil
}

// SoftDeleteLink mirrors SoftDeleteEntity.
func (s *Service) SoftDeleteLink(ctx context.Context, chainID string, principal *acl.Principal) (*model.LinkRow, error) {
	row, err := s.store.SoftDeleteLink(ctx, chainID, principal)
	if err != nil {
		return nil, err
	}
	s.invalidateEntity(ctx, row.ID, row.PreviousVersionID)
	s.recordAudit(ctx, "link.delete", row.ID, principal.UserID, nil)
	return row, nil
}

// RestoreLink mirrors RestoreEntity.
func (s *Service) RestoreLink(ctx context.Context, chainID string, principal *acl.Principal) (*model.LinkRow, error) {
	row, err := s.store.RestoreLink(ctx, chainID, principal)
	if err != nil {
		return nil, err
	}
	s.invalidateEntity(ctx, row.ID, row.PreviousVersionID)
	s.recordAudit(ctx, "link.restore", row.ID, principal.UserID, nil)
	return row, nil
}

// GetLinkAcl mirrors GetEntityAcl.
func (s *Service) GetLinkAcl(ctx context.Context, chainID string, principal *acl.Principal) (*model.Acl, error) {
	row, err := s.store.ReadLatestLink(ctx, chainID, principal)
	if err != nil {
		return nil, err
	}
	return s.loadAcl(ctx, row.AclID)
}

// SetLinkAcl mirrors SetEntityAcl.
func (s *Service) SetLinkAcl(ctx context.Context, chainID string, entries []model.AclEntry, principal *acl.Principal) (*model.LinkRow, error) {
	row, err := s.store.SetLinkAcl(ctx, chainID, entries, principal)
	if err != nil {
		return nil, err
	}
	s.invalidateEntity(ctx, row.ID, row.PreviousVersionID)
	s.recordAudit(ctx, "link.set_acl", row.ID, principal.UserID, nil)
	return row, nil
}

// ListLinks mirrors ListEntities for the links table.
func (s *Service) ListLinks(ctx context.Context, f query.Filter, principal *acl.Principal) (query.Page[model.LinkRow], error) {
	return query.Paginate(ctx, s.db.WithContext(ctx).Model(&model.LinkRow{}), s.cfg.Database.Driver, f, s.aclEngine, principal, s.cfg.ACL.OversampleFactor,
		func(r model.LinkRow) query.RowMeta { return query.RowMeta{CreatedAt: r.CreatedAt, ID: r.ID, AclID: r.AclID} })
}
