package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/propgraph/propgraph/internal/api/dto/request"
	"github.com/propgraph/propgraph/internal/api/response"
	domainerrors "github.com/propgraph/propgraph/internal/domain/errors"
	"github.com/propgraph/propgraph/internal/graph/model"
	"github.com/propgraph/propgraph/internal/graph/query"
	"github.com/propgraph/propgraph/internal/graph/service"
)

// SearchController serves POST /search (§6), the rich property-filter
// entrypoint shared by both entities and links.
type SearchController struct {
	svc *service.Service
}

// NewSearchController builds a SearchController.
func NewSearchController(svc *service.Service) *SearchController {
	return &SearchController{svc: svc}
}

// Search handles POST /search.
func (ctrl *SearchController) Search(c *gin.Context) {
	var req request.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(domainerrors.Wrap(err, "INVALID_REQUEST_BODY", domainerrors.KindValidation, err.Error()))
		return
	}

	limit := req.Limit
	if limit <= 0 {
		limit = query.DefaultLimit
	}
	if limit > query.MaxLimit {
		limit = query.MaxLimit
	}

	filters := make([]query.RichFilter, len(req.PropertyFilters))
	for i, f := range req.PropertyFilters {
		filters[i] = query.RichFilter{Path: f.Path, Operator: query.Operator(f.Operator), Value: f.Value}
	}

	in := service.SearchInput{
		Kind: model.ResourceKind(req.Kind),
		Filter: query.Filter{
			TypeID:          req.TypeID,
			CreatedBy:       req.CreatedBy,
			CreatedAfter:    req.CreatedAfter,
			CreatedBefore:   req.CreatedBefore,
			IncludeDeleted:  req.IncludeDeleted,
			ShowAllVersions: req.ShowAllVersions,
			PropertyFilters: filters,
			Cursor:          req.Cursor,
			Limit:           limit,
		},
	}

	result, err := ctrl.svc.Search(c.Request.Context(), in, service.Principal(principalFrom(c)))
	if err != nil {
		c.Error(err)
		return
	}

	if in.Kind == model.KindLink {
		response.Page(c, http.StatusOK, result.Links.Rows, result.Links.NextCursor, result.Links.HasMore)
		return
	}
	response.Page(c, http.StatusOK, result.Entities.Rows, result.Entities.NextCursor, result.Entities.HasMore)
}
