// Package routes wires the §6 HTTP surface onto a gin.Engine.
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/propgraph/propgraph/internal/api/controllers"
	"github.com/propgraph/propgraph/internal/api/middleware"
	"github.com/propgraph/propgraph/internal/graph/service"
)

// SetupRouter builds the full gin.Engine for the service, middleware
// first, then the versioned route table.
func SetupRouter(svc *service.Service) *gin.Engine {
	r := gin.New()

	r.Use(middleware.ErrorHandler())
	r.Use(middleware.Correlation())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS())
	r.Use(middleware.AuthOptional())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	registerV1Routes(api, svc)

	return r
}

func registerV1Routes(api *gin.RouterGroup, svc *service.Service) {
	entities := controllers.NewEntityController(svc)
	links := controllers.NewLinkController(svc)
	types := controllers.NewTypeController(svc)
	groups := controllers.NewGroupController(svc)
	search := controllers.NewSearchController(svc)

	entityRoutes := api.Group("/entities")
	{
		entityRoutes.POST("", entities.Create)
		entityRoutes.GET("", entities.List)
		entityRoutes.GET("/:id", entities.Get)
		entityRoutes.PUT("/:id", entities.Update)
		entityRoutes.DELETE("/:id", entities.Delete)
		entityRoutes.POST("/:id/restore", entities.Restore)
		entityRoutes.GET("/:id/versions", entities.Versions)
		entityRoutes.GET("/:id/versions/:n", entities.Version)
		entityRoutes.GET("/:id/history", entities.History)
		entityRoutes.GET("/:id/acl", entities.GetAcl)
		entityRoutes.PUT("/:id/acl", entities.SetAcl)
		entityRoutes.GET("/:id/outbound", entities.Outbound)
		entityRoutes.GET("/:id/inbound", entities.Inbound)
		entityRoutes.GET("/:id/neighbors", entities.Neighbors)
	}

	linkRoutes := api.Group("/links")
	{
		linkRoutes.POST("", links.Create)
		linkRoutes.GET("", links.List)
		linkRoutes.GET("/:id", links.Get)
		linkRoutes.PUT("/:id", links.Update)
		linkRoutes.DELETE("/:id", links.Delete)
		linkRoutes.POST("/:id/restore", links.Restore)
		linkRoutes.GET("/:id/versions", links.Versions)
		linkRoutes.GET("/:id/versions/:n", links.Version)
		linkRoutes.GET("/:id/history", links.History)
		linkRoutes.GET("/:id/acl", links.GetAcl)
		linkRoutes.PUT("/:id/acl", links.SetAcl)
	}

	typeRoutes := api.Group("/types")
	{
		typeRoutes.POST("", types.Create)
		typeRoutes.GET("", types.List)
		typeRoutes.GET("/:id", types.Get)
	}

	groupRoutes := api.Group("/groups")
	{
		groupRoutes.POST("", groups.Create)
		groupRoutes.GET("", groups.List)
		groupRoutes.GET("/:id", groups.Get)
		groupRoutes.GET("/:id/members", groups.ListMembers)
		groupRoutes.POST("/:id/members", groups.AddMember)
		groupRoutes.DELETE("/:id/members/:memberId", groups.RemoveMember)
	}

	api.POST("/search", search.Search)
}
