package service

import (
	"context"

	"github.com/propgraph/propgraph/internal/graph/acl"
	"github.com/propgraph/propgraph/internal/graph/traversal"
)

// Outbound returns entities reachable by an outbound link from chainID.
func (s *Service) Outbound(ctx context.Context, chainID string, principal *acl.Principal, f traversal.Filters) ([]traversal.Neighbor, error) {
	return s.traversal.Edges(ctx, chainID, traversal.Outbound, principal, f)
}

// Inbound returns entities reachable by an inbound link into chainID.
func (s *Service) Inbound(ctx context.Context, chainID string, principal *acl.Principal, f traversal.Filters) ([]traversal.Neighbor, error) {
	return s.traversal.Edges(ctx, chainID, traversal.Inbound, principal, f)
}

// Neighbors returns the union of inbound and outbound neighbors, deduped.
func (s *Service) Neighbors(ctx context.Context, chainID string, principal *acl.Principal, f traversal.Filters) ([]traversal.Neighbor, error) {
	return s.traversal.Neighbors(ctx, chainID, principal, f)
}
