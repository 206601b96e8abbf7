package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/propgraph/propgraph/internal/api/dto/request"
	"github.com/propgraph/propgraph/internal/api/response"
	domainerrors "github.com/propgraph/propgraph/internal/domain/errors"
	"github.com/propgraph/propgraph/internal/graph/query"
	"github.com/propgraph/propgraph/internal/graph/service"
	platformerrors "github.com/propgraph/propgraph/internal/platform/errors"
	"github.com/propgraph/propgraph/internal/platform/logger"
)

// LinkController serves the /links resource family (§6).
type LinkController struct {
	svc *service.Service
}

// NewLinkController builds a LinkController.
func NewLinkController(svc *service.Service) *LinkController {
	return &LinkController{svc: svc}
}

// Create handles POST /links.
func (ctrl *LinkController) Create(c *gin.Context) {
	var req request.CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(domainerrors.Wrap(err, "INVALID_REQUEST_BODY", domainerrors.KindValidation, err.Error()))
		return
	}
	userID, ok := requirePrincipal(c)
	if !ok {
		return
	}

	row, err := ctrl.svc.CreateLink(c.Request.Context(), service.CreateLinkInput{
		TypeID:         req.TypeID,
		SourceEntityID: req.SourceEntityID,
		TargetEntityID: req.TargetEntityID,
		Properties:     req.Properties,
		AclEntries:     toAclEntries(req.Acl),
		ActorID:        userID,
	})
	if err != nil {
		c.Error(err)
		return
	}
	response.OK(c, http.StatusCreated, row)
}

// List handles GET /links.
func (ctrl *LinkController) List(c *gin.Context) {
	f, warnings, err := query.ParseListFilter(c.Request.URL.Query())
	if err != nil {
		c.Error(err)
		return
	}
	for _, w := range warnings {
		logger.Get().Warn("list filter warning", "warning", w)
	}

	page, err := ctrl.svc.ListLinks(c.Request.Context(), f, service.Principal(principalFrom(c)))
	if err != nil {
		c.Error(err)
		return
	}
	respondPage(c, http.StatusOK, "link", page.Rows, page.NextCursor, page.HasMore)
}

// Get handles GET /links/{id}.
func (ctrl *LinkController) Get(c *gin.Context) {
	row, err := ctrl.svc.GetLink(c.Request.Context(), c.Param("id"), service.Principal(principalFrom(c)))
	if err != nil {
		c.Error(err)
		return
	}
	respondResource(c, http.StatusOK, "link", row)
}

// Update handles PUT /links/{id}.
func (ctrl *LinkController) Update(c *gin.Context) {
	var req request.UpdateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(domainerrors.Wrap(err, "INVALID_REQUEST_BODY", domainerrors.KindValidation, err.Error()))
		return
	}
	userID, ok := requirePrincipal(c)
	if !ok {
		return
	}

	row, err := ctrl.svc.UpdateLink(c.Request.Context(), c.Param("id"), req.Properties, service.Principal(userID))
	if err != nil {
		c.Error(err)
		return
	}
	response.OK(c, http.StatusOK, row)
}

// Delete handles DELETE /links/{id}.
func (ctrl *LinkController) Delete(c *gin.Context) {
	userID, ok := requirePrincipal(c)
	if !ok {
		return
	}
	if _, err := ctrl.svc.SoftDeleteLink(c.Request.Context(), c.Param("id"), service.Principal(userID)); err != nil {
		c.Error(err)
		return
	}
	response.NoContent(c)
}

// Restore handles POST /links/{id}/restore.
func (ctrl *LinkController) Restore(c *gin.Context) {
	userID, ok := requirePrincipal(c)
	if !ok {
		return
	}
	row, err := ctrl.svc.RestoreLink(c.Request.Context(), c.Param("id"), service.Principal(userID))
	if err != nil {
		c.Error(err)
		return
	}
	response.OK(c, http.StatusOK, row)
}

// Versions handles GET /links/{id}/versions.
func (ctrl *LinkController) Versions(c *gin.Context) {
	chain, err := ctrl.svc.ListLinkChain(c.Request.Context(), c.Param("id"), service.Principal(principalFrom(c)))
	if err != nil {
		c.Error(err)
		return
	}
	response.OK(c, http.StatusOK, chain)
}

// Version handles GET /links/{id}/versions/{n}.
func (ctrl *LinkController) Version(c *gin.Context) {
	n, err := strconv.Atoi(c.Param("n"))
	if err != nil {
		c.Error(platformerrors.NewInvalidFilter("version", c.Param("n")))
		return
	}
	row, err := ctrl.svc.GetLinkVersion(c.Request.Context(), c.Param("id"), n, service.Principal(principalFrom(c)))
	if err != nil {
		c.Error(err)
		return
	}
	response.OK(c, http.StatusOK, row)
}

// History handles GET /links/{id}/history.
func (ctrl *LinkController) History(c *gin.Context) {
	chain, diffs, err := ctrl.svc.LinkHistory(c.Request.Context(), c.Param("id"), service.Principal(principalFrom(c)))
	if err != nil {
		c.Error(err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"versions": chain, "diffs": diffs})
}

// GetAcl handles GET /links/{id}/acl.
func (ctrl *LinkController) GetAcl(c *gin.Context) {
	acl, err := ctrl.svc.GetLinkAcl(c.Request.Context(), c.Param("id"), service.Principal(principalFrom(c)))
	if err != nil {
		c.Error(err)
		return
	}
	response.OK(c, http.StatusOK, acl)
}

// SetAcl handles PUT /links/{id}/acl.
func (ctrl *LinkController) SetAcl(c *gin.Context) {
	var req request.SetAclRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(domainerrors.Wrap(err, "INVALID_REQUEST_BODY", domainerrors.KindValidation, err.Error()))
		return
	}
	userID, ok := requirePrincipal(c)
	if !ok {
		return
	}
	row, err := ctrl.svc.SetLinkAcl(c.Request.Context(), c.Param("id"), toAclEntries(req.Acl), service.Principal(userID))
	if err != nil {
		c.Error(err)
		return
	}
	response.OK(c, http.StatusOK, row)
}
