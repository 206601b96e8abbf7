// Package server assembles the HTTP server: config, database, cache,
// audit writer and the graph service, the same wiring shape this codebase
// has always used to keep cmd/ entrypoints thin.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/propgraph/propgraph/internal/api/routes"
	"github.com/propgraph/propgraph/internal/graph/service"
	"github.com/propgraph/propgraph/internal/platform/audit"
	"github.com/propgraph/propgraph/internal/platform/cache"
	"github.com/propgraph/propgraph/internal/platform/config"
	"github.com/propgraph/propgraph/internal/platform/database"
	"github.com/propgraph/propgraph/internal/platform/logger"
	"gorm.io/gorm"
)

// Server owns the process's long-lived dependencies and the http.Server
// built from them.
type Server struct {
	Config  *config.Config
	DB      *gorm.DB
	Cache   *cache.MemoryStore
	Service *service.Service
	httpSrv *http.Server
}

// New wires a Server from configuration: opens the database, starts the
// in-process cache, builds the audit writer and the graph service, then
// constructs the gin router.
func New(cfg *config.Config) (*Server, error) {
	db, err := database.Connect()
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	kv := cache.NewMemoryStore(30 * time.Second)
	auditWriter := audit.NewSlogWriter(logger.Get())
	svc := service.New(db, cfg, kv, auditWriter)
	router := routes.SetupRouter(svc)

	return &Server{
		Config: cfg,
		DB:     db,
		Cache:  kv,
		Service: svc,
		httpSrv: &http.Server{
			Addr:    ":" + cfg.HTTPPort,
			Handler: router,
		},
	}, nil
}

// Run starts the HTTP server and blocks until it stops.
func (s *Server) Run() error {
	logger.Get().Info("server starting", "port", s.Config.HTTPPort)
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server and closes the cache janitor.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Cache.Close()
	return s.httpSrv.Shutdown(ctx)
}
