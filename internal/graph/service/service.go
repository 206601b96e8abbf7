// Package service wires the C1-C8 engines into the operations the HTTP
// layer calls, adding the read-through cache and audit-log side effects
// that sit around the core store/traversal logic (§2 control flow).
package service

import (
	"context"

	"github.com/propgraph/propgraph/internal/graph/acl"
	"github.com/propgraph/propgraph/internal/graph/model"
	"github.com/propgraph/propgraph/internal/graph/schema"
	"github.com/propgraph/propgraph/internal/graph/store"
	"github.com/propgraph/propgraph/internal/graph/traversal"
	"github.com/propgraph/propgraph/internal/graph/version"
	"github.com/propgraph/propgraph/internal/platform/audit"
	"github.com/propgraph/propgraph/internal/platform/cache"
	"github.com/propgraph/propgraph/internal/platform/config"
	"gorm.io/gorm"
)

// Service is the application-level façade the controllers depend on. It
// owns no business rule itself beyond cache/audit glue: C1-C7 live in
// their own packages so they stay independently testable.
type Service struct {
	db          *gorm.DB
	cfg         *config.Config
	cache       cache.KVStore
	audit       audit.Writer
	validator   *schema.Validator
	aclEngine   *acl.Engine
	entityChain *version.Engine
	linkChain   *version.Engine
	store       *store.Store
	traversal   *traversal.Engine
}

// New wires every engine against a shared db connection and cache store.
func New(db *gorm.DB, cfg *config.Config, kv cache.KVStore, auditWriter audit.Writer) *Service {
	validator := schema.New()
	aclEngine := acl.New(db, kv, cfg.ACL, cfg.Cache)
	entityChain := version.New(db, model.EntityRow{}.TableName(), cfg.Graph)
	linkChain := version.New(db, model.LinkRow{}.TableName(), cfg.Graph)
	resourceStore := store.NewStore(db, validator, aclEngine, entityChain, linkChain)
	traversalEngine := traversal.New(db, aclEngine, entityChain, linkChain)

	return &Service{
		db:          db,
		cfg:         cfg,
		cache:       kv,
		audit:       auditWriter,
		validator:   validator,
		aclEngine:   aclEngine,
		entityChain: entityChain,
		linkChain:   linkChain,
		store:       resourceStore,
		traversal:   traversalEngine,
	}
}

// invalidateEntity drops the cache entry for both the chain's current id
// and (when different) its predecessor, per §4.8/§9.
func (s *Service) invalidateEntity(ctx context.Context, currentID string, previousID *string) {
	keys := []string{cache.EntityKey(currentID)}
	if previousID != nil {
		keys = append(keys, cache.EntityKey(*previousID))
	}
	s.cache.Delete(ctx, keys...)
}

func (s *Service) recordAudit(ctx context.Context, action, resourceID, actorID string, meta map[string]interface{}) {
	s.audit.Write(ctx, audit.Event{Action: action, ResourceID: resourceID, ActorID: actorID, At: model.Now(), Metadata: meta})
}

