package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/propgraph/propgraph/internal/api/dto/request"
	"github.com/propgraph/propgraph/internal/api/middleware"
	"github.com/propgraph/propgraph/internal/api/response"
	domainerrors "github.com/propgraph/propgraph/internal/domain/errors"
	"github.com/propgraph/propgraph/internal/graph/model"
	"github.com/propgraph/propgraph/internal/graph/query"
	"github.com/propgraph/propgraph/internal/graph/service"
	"github.com/propgraph/propgraph/internal/graph/traversal"
	platformerrors "github.com/propgraph/propgraph/internal/platform/errors"
	"github.com/propgraph/propgraph/internal/platform/logger"
)

// EntityController serves the /entities resource family (§6).
type EntityController struct {
	svc *service.Service
}

// NewEntityController builds an EntityController.
func NewEntityController(svc *service.Service) *EntityController {
	return &EntityController{svc: svc}
}

func principalFrom(c *gin.Context) string {
	return middleware.PrincipalFromContext(c)
}

func requirePrincipal(c *gin.Context) (string, bool) {
	userID := principalFrom(c)
	if userID == "" {
		c.Error(platformerrors.NewUnauthorized("this operation requires an authenticated principal"))
		return "", false
	}
	return userID, true
}

// Create handles POST /entities.
func (ctrl *EntityController) Create(c *gin.Context) {
	var req request.CreateEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(domainerrors.Wrap(err, "INVALID_REQUEST_BODY", domainerrors.KindValidation, err.Error()))
		return
	}
	userID, ok := requirePrincipal(c)
	if !ok {
		return
	}

	row, err := ctrl.svc.CreateEntity(c.Request.Context(), service.CreateEntityInput{
		TypeID:     req.TypeID,
		Properties: req.Properties,
		AclEntries: toAclEntries(req.Acl),
		ActorID:    userID,
	})
	if err != nil {
		c.Error(err)
		return
	}
	response.OK(c, http.StatusCreated, row)
}

// List handles GET /entities.
func (ctrl *EntityController) List(c *gin.Context) {
	f, warnings, err := query.ParseListFilter(c.Request.URL.Query())
	if err != nil {
		c.Error(err)
		return
	}
	for _, w := range warnings {
		logger.Get().Warn("list filter warning", "warning", w)
	}

	page, err := ctrl.svc.ListEntities(c.Request.Context(), f, service.Principal(principalFrom(c)))
	if err != nil {
		c.Error(err)
		return
	}
	respondPage(c, http.StatusOK, "entity", page.Rows, page.NextCursor, page.HasMore)
}

// Get handles GET /entities/{id}.
func (ctrl *EntityController) Get(c *gin.Context) {
	row, err := ctrl.svc.GetEntity(c.Request.Context(), c.Param("id"), service.Principal(principalFrom(c)))
	if err != nil {
		c.Error(err)
		return
	}
	respondResource(c, http.StatusOK, "entity", row)
}

// Update handles PUT /entities/{id}.
func (ctrl *EntityController) Update(c *gin.Context) {
	var req request.UpdateEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(domainerrors.Wrap(err, "INVALID_REQUEST_BODY", domainerrors.KindValidation, err.Error()))
		return
	}
	userID, ok := requirePrincipal(c)
	if !ok {
		return
	}

	row, err := ctrl.svc.UpdateEntity(c.Request.Context(), c.Param("id"), req.Properties, service.Principal(userID))
	if err != nil {
		c.Error(err)
		return
	}
	response.OK(c, http.StatusOK, row)
}

// Delete handles DELETE /entities/{id}.
func (ctrl *EntityController) Delete(c *gin.Context) {
	userID, ok := requirePrincipal(c)
	if !ok {
		return
	}
	if _, err := ctrl.svc.SoftDeleteEntity(c.Request.Context(), c.Param("id"), service.Principal(userID)); err != nil {
		c.Error(err)
		return
	}
	response.NoContent(c)
}

// Restore handles POST /entities/{id}/restore.
func (ctrl *EntityController) Restore(c *gin.Context) {
	userID, ok := requirePrincipal(c)
	if !ok {
		return
	}
	row, err := ctrl.svc.RestoreEntity(c.Request.Context(), c.Param("id"), service.Principal(userID))
	if err != nil {
		c.Error(err)
		return
	}
	response.OK(c, http.StatusOK, row)
}

// Versions handles GET /entities/{id}/versions.
func (ctrl *EntityController) Versions(c *gin.Context) {
	chain, err := ctrl.svc.ListEntityChain(c.Request.Context(), c.Param("id"), service.Principal(principalFrom(c)))
	if err != nil {
		c.Error(err)
		return
	}
	response.OK(c, http.StatusOK, chain)
}

// Version handles GET /entities/{id}/versions/{n}.
func (ctrl *EntityController) Version(c *gin.Context) {
	n, err := strconv.Atoi(c.Param("n"))
	if err != nil {
		c.Error(platformerrors.NewInvalidFilter("version", c.Param("n")))
		return
	}
	row, err := ctrl.svc.GetEntityVersion(c.Request.Context(), c.Param("id"), n, service.Principal(principalFrom(c)))
	if err != nil {
		c.Error(err)
		return
	}
	response.OK(c, http.StatusOK, row)
}

// History handles GET /entities/{id}/history.
func (ctrl *EntityController) History(c *gin.Context) {
	chain, diffs, err := ctrl.svc.EntityHistory(c.Request.Context(), c.Param("id"), service.Principal(principalFrom(c)))
	if err != nil {
		c.Error(err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"versions": chain, "diffs": diffs})
}

// Outbound handles GET /entities/{id}/outbound.
func (ctrl *EntityController) Outbound(c *gin.Context) {
	neighbors, err := ctrl.svc.Outbound(c.Request.Context(), c.Param("id"), service.Principal(principalFrom(c)), traversalFilters(c))
	if err != nil {
		c.Error(err)
		return
	}
	response.OK(c, http.StatusOK, neighbors)
}

// Inbound handles GET /entities/{id}/inbound.
func (ctrl *EntityController) Inbound(c *gin.Context) {
	neighbors, err := ctrl.svc.Inbound(c.Request.Context(), c.Param("id"), service.Principal(principalFrom(c)), traversalFilters(c))
	if err != nil {
		c.Error(err)
		return
	}
	response.OK(c, http.StatusOK, neighbors)
}

// Neighbors handles GET /entities/{id}/neighbors.
func (ctrl *EntityController) Neighbors(c *gin.Context) {
	neighbors, err := ctrl.svc.Neighbors(c.Request.Context(), c.Param("id"), service.Principal(principalFrom(c)), traversalFilters(c))
	if err != nil {
		c.Error(err)
		return
	}
	response.OK(c, http.StatusOK, neighbors)
}

// GetAcl handles GET /entities/{id}/acl.
func (ctrl *EntityController) GetAcl(c *gin.Context) {
	acl, err := ctrl.svc.GetEntityAcl(c.Request.Context(), c.Param("id"), service.Principal(principalFrom(c)))
	if err != nil {
		c.Error(err)
		return
	}
	response.OK(c, http.StatusOK, acl)
}

// SetAcl handles PUT /entities/{id}/acl.
func (ctrl *EntityController) SetAcl(c *gin.Context) {
	var req request.SetAclRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(domainerrors.Wrap(err, "INVALID_REQUEST_BODY", domainerrors.KindValidation, err.Error()))
		return
	}
	userID, ok := requirePrincipal(c)
	if !ok {
		return
	}
	row, err := ctrl.svc.SetEntityAcl(c.Request.Context(), c.Param("id"), toAclEntries(req.Acl), service.Principal(userID))
	if err != nil {
		c.Error(err)
		return
	}
	response.OK(c, http.StatusOK, row)
}

func toAclEntries(entries []request.AclEntryDTO) []model.AclEntry {
	out := make([]model.AclEntry, len(entries))
	for i, e := range entries {
		out[i] = model.AclEntry{
			PrincipalType: model.PrincipalType(e.PrincipalType),
			PrincipalID:   e.PrincipalID,
			Permission:    model.Permission(e.Permission),
		}
	}
	return out
}

func traversalFilters(c *gin.Context) traversal.Filters {
	return traversal.Filters{
		LinkTypeID:     c.Query("link_type_id"),
		FarEntityType:  c.Query("type_id"),
		IncludeDeleted: c.Query("include_deleted") == "true",
	}
}
