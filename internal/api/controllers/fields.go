package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/propgraph/propgraph/internal/api/response"
	"github.com/propgraph/propgraph/internal/graph/query"
	"github.com/propgraph/propgraph/internal/platform/logger"
)

// respondResource writes row as the full resource, or a fields-projected
// map when the caller passed a ?fields= param that survives kind's
// allow-list (§6).
func respondResource(c *gin.Context, status int, kind string, row interface{}) {
	fields := query.ParseFields(c.Query("fields"), kind)
	if len(fields) == 0 {
		response.OK(c, status, row)
		return
	}
	projected, err := query.Project(row, fields)
	if err != nil {
		logger.Get().Warn("fields projection failed, returning full resource", "error", err)
		response.OK(c, status, row)
		return
	}
	response.OK(c, status, projected)
}

// respondPage writes a page of rows as full resources, or fields-projected
// maps, per respondResource's rule.
func respondPage(c *gin.Context, status int, kind string, rows interface{}, nextCursor string, hasMore bool) {
	fields := query.ParseFields(c.Query("fields"), kind)
	if len(fields) == 0 {
		response.Page(c, status, rows, nextCursor, hasMore)
		return
	}
	projected, err := query.ProjectAll(rows, fields)
	if err != nil {
		logger.Get().Warn("fields projection failed, returning full resources", "error", err)
		response.Page(c, status, rows, nextCursor, hasMore)
		return
	}
	response.Page(c, status, projected, nextCursor, hasMore)
}
