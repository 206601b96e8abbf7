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

// TypeController serves the /types resource family (§6). Types are
// immutable once created, so there is no update endpoint.
type TypeController struct {
	svc *service.Service
}

// NewTypeController builds a TypeController.
func NewTypeController(svc *service.Service) *TypeController {
	return &TypeController{svc: svc}
}

// Create handles POST /types.
func (ctrl *TypeController) Create(c *gin.Context) {
	var req request.CreateTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(domainerrors.Wrap(err, "INVALID_REQUEST_BODY", domainerrors.KindValidation, err.Error()))
		return
	}

	typ, err := ctrl.svc.CreateType(c.Request.Context(), service.CreateTypeInput{
		Name:        req.Name,
		Category:    model.TypeCategory(req.Category),
		Description: req.Description,
		JSONSchema:  req.JSONSchema,
	})
	if err != nil {
		c.Error(err)
		return
	}
	response.OK(c, http.StatusCreated, typ)
}

// List handles GET /types.
func (ctrl *TypeController) List(c *gin.Context) {
	types, err := ctrl.svc.ListTypes(c.Request.Context(), c.Query("category"))
	if err != nil {
		c.Error(err)
		return
	}
	response.OK(c, http.StatusOK, types)
}

// Get handles GET /types/{id}.
func (ctrl *TypeController) Get(c *gin.Context) {
	typ, err := ctrl.svc.GetType(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	response.OK(c, http.StatusOK, typ)
}
