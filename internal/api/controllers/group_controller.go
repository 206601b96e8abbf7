package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/propgraph/propgraph/internal/api/dto/request"
	"github.com/propgraph/propgraph/internal/api/response"
	domainerrors "github.com/propgraph/propgraph/internal/domain/errors"
	"github.com/propgraph/propgraph/internal/graph/model"
	"github.com/propgraph/propgraph/internal/graph/service"
)

// GroupController serves the /groups resource family (§6).
type GroupController struct {
	svc *service.Service
}

// NewGroupController builds a GroupController.
func NewGroupController(svc *service.Service) *GroupController {
	return &GroupController{svc: svc}
}

// Create handles POST /groups.
func (ctrl *GroupController) Create(c *gin.Context) {
	var req request.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(domainerrors.Wrap(err, "INVALID_REQUEST_BODY", domainerrors.KindValidation, err.Error()))
		return
	}
	group, err := ctrl.svc.CreateGroup(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		c.Error(err)
		return
	}
	response.OK(c, http.StatusCreated, group)
}

// List handles GET /groups.
func (ctrl *GroupController) List(c *gin.Context) {
	groups, err := ctrl.svc.ListGroups(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	response.OK(c, http.StatusOK, groups)
}

// Get handles GET /groups/{id}.
func (ctrl *GroupController) Get(c *gin.Context) {
	group, err := ctrl.svc.GetGroup(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	response.OK(c, http.StatusOK, group)
}

// ListMembers handles GET /groups/{id}/members.
func (ctrl *GroupController) ListMembers(c *gin.Context) {
	members, err := ctrl.svc.ListGroupMembers(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	response.OK(c, http.StatusOK, members)
}

// AddMember handles POST /groups/{id}/members.
func (ctrl *GroupController) AddMember(c *gin.Context) {
	var req request.AddGroupMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(domainerrors.Wrap(err, "INVALID_REQUEST_BODY", domainerrors.KindValidation, err.Error()))
		return
	}
	member, err := ctrl.svc.AddGroupMember(c.Request.Context(), c.Param("id"), model.PrincipalType(req.MemberType), req.MemberID)
	if err != nil {
		c.Error(err)
		return
	}
	response.OK(c, http.StatusCreated, member)
}

// RemoveMember handles DELETE /groups/{id}/members/{memberId}.
func (ctrl *GroupController) RemoveMember(c *gin.Context) {
	if err := ctrl.svc.RemoveGroupMember(c.Request.Context(), c.Param("id"), c.Param("memberId")); err != nil {
		c.Error(err)
		return
	}
	response.NoContent(c)
}
