package service

import (
	"context"

	"github.com/propgraph/propgraph/internal/graph/acl"
	"github.com/propgraph/propgraph/internal/graph/model"
	"github.com/propgraph/propgraph/internal/graph/query"
)

// SearchInput is the request shape for POST /search.
type SearchInput struct {
	Kind   model.ResourceKind
	Filter query.Filter
}

// SearchResult is returned for a search over either resource kind. Exactly
// one of Entities/Links is populated, matching Kind.
type SearchResult struct {
	Entities query.Page[model.EntityRow]
	Links    query.Page[model.LinkRow]
}

// Search runs the rich property-filter search described in §6, dispatching
// to the entity or link table per Kind.
func (s *Service) Search(ctx context.Context, in SearchInput, principal *acl.Principal) (SearchResult, error) {
	if err := query.ValidateRichFilters(in.Filter.PropertyFilters); err != nil {
		return SearchResult{}, err
	}

	switch in.Kind {
	case model.KindLink:
		page, err := s.ListLinks(ctx, in.Filter, principal)
		return SearchResult{Links: page}, err
	default:
		page, err := s.ListEntities(ctx, in.Filter, principal)
		return SearchResult{Entities: page}, err
	}
}
