// Package traversal implements C7: inbound/outbound/neighbor graph queries
// with per-edge ACL filtering and neighbor deduplication.
package traversal

import (
	"context"

	"github.com/propgraph/propgraph/internal/graph/acl"
	"github.com/propgraph/propgraph/internal/graph/model"
	"github.com/propgraph/propgraph/internal/graph/version"
	platformerrors "github.com/propgraph/propgraph/internal/platform/errors"
	"gorm.io/gorm"
)

// Direction selects which edge endpoint is anchored at the queried entity.
type Direction string

const (
	Outbound Direction = "outbound"
	Inbound  Direction = "inbound"
)

// Connection describes one edge that connects a neighbor to the queried
// entity, with the direction it was traversed in.
type Connection struct {
	Link      model.LinkRow `json:"link"`
	Direction Direction     `json:"direction"`
}

// Neighbor is one deduplicated far-side entity plus every connection that
// links it to the queried entity (§4.7 step 5).
type Neighbor struct {
	Entity      model.EntityRow `json:"entity"`
	Connections []Connection    `json:"connections"`
}

// Filters narrows a traversal to specific link/entity types or deleted rows.
type Filters struct {
	LinkTypeID     string
	FarEntityType  string
	IncludeDeleted bool
}

// Engine runs graph traversal queries.
type Engine struct {
	db        *gorm.DB
	aclEngine *acl.Engine
	entities  *version.Engine
	links     *version.Engine
}

// New builds a traversal engine.
func New(db *gorm.DB, aclEngine *acl.Engine, entities, links *version.Engine) *Engine {
	return &Engine{db: db, aclEngine: aclEngine, entities: entities, links: links}
}

// Edges returns every link incident on chainID in direction d, visible to
// principal, alongside the resolved far-side entity.
func (e *Engine) Edges(ctx context.Context, chainID string, d Direction, principal *acl.Principal, f Filters) ([]Neighbor, error) {
	anchor, err := e.resolveReadable(ctx, chainID, principal)
	if err != nil {
		return nil, err
	}

	chainIDs, err := e.chainIDs(ctx, e.entities, anchor)
	if err != nil {
		return nil, err
	}

	var links []model.LinkRow
	column := "source_entity_id"
	farColumn := "target_entity_id"
	if d == Inbound {
		column = "target_entity_id"
		farColumn = "source_entity_id"
	}

	q := e.db.WithContext(ctx).Where(column+" IN ? AND is_latest = ?", chainIDs, true)
	if !f.IncludeDeleted {
		q = q.Where("is_deleted = ?", false)
	}
	if f.LinkTypeID != "" {
		q = q.Where("type_id = ?", f.LinkTypeID)
	}
	if err := q.Find(&links).Error; err != nil {
		return nil, platformerrors.HandleGormError(err, "links", "Edges")
	}

	accessiblePrincipals, accessibleIDs, err := e.resolveAccessible(ctx, principal)
	if err != nil {
		return nil, err
	}
	_ = accessiblePrincipals

	byNeighbor := map[string]*Neighbor{}
	var order []string

	for _, link := range links {
		if !e.grantsRead(link.AclID, accessibleIDs, principal != nil) {
			continue
		}

		var farID string
		if farColumn == "target_entity_id" {
			farID = link.TargetEntityID
		} else {
			farID = link.SourceEntityID
		}

		farRow, err := e.latestEntity(ctx, farID)
		if err != nil {
			continue
		}
		if !f.IncludeDeleted && farRow.IsDeleted {
			continue
		}
		if f.FarEntityType != "" && farRow.TypeID != f.FarEntityType {
			continue
		}
		if !e.grantsRead(farRow.AclID, accessibleIDs, principal != nil) {
			continue
		}

		n, exists := byNeighbor[farRow.ID]
		if !exists {
			n = &Neighbor{Entity: *farRow}
			byNeighbor[farRow.ID] = n
			order = append(order, farRow.ID)
		}
		n.Connections = append(n.Connections, Connection{Link: link, Direction: d})
	}

	out := make([]Neighbor, 0, len(order))
	for _, id := range order {
		out = append(out, *byNeighbor[id])
	}
	return out, nil
}

// Neighbors runs both directions and deduplicates by neighbor id,
// accumulating the connections list across both (§4.7 step 5).
func (e *Engine) Neighbors(ctx context.Context, chainID string, principal *acl.Principal, f Filters) ([]Neighbor, error) {
	out, err := e.Edges(ctx, chainID, Outbound, principal, f)
	if err != nil {
		return nil, err
	}
	inbound, err := e.Edges(ctx, chainID, Inbound, principal, f)
	if err != nil {
		return nil, err
	}

	byID := map[string]*Neighbor{}
	var order []string
	for i := range out {
		byID[out[i].Entity.ID] = &out[i]
		order = append(order, out[i].Entity.ID)
	}
	for _, n := range inbound {
		if existing, ok := byID[n.Entity.ID]; ok {
			existing.Connections = append(existing.Connections, n.Connections...)
			continue
		}
		copyN := n
		byID[n.Entity.ID] = &copyN
		order = append(order, n.Entity.ID)
	}

	merged := make([]Neighbor, 0, len(order))
	for _, id := range order {
		merged = append(merged, *byID[id])
	}
	return merged, nil
}

func (e *Engine) resolveReadable(ctx context.Context, chainID string, principal *acl.Principal) (*model.EntityRow, error) {
	row, err := e.latestEntity(ctx, chainID)
	if err != nil {
		return nil, err
	}
	ok, err := e.aclEngine.HasPermission(ctx, principal, row.AclID, model.PermissionRead)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, platformerrors.NewForbidden("read")
	}
	return row, nil
}

func (e *Engine) latestEntity(ctx context.Context, id string) (*model.EntityRow, error) {
	vrow, err := e.entities.FindLatest(ctx, id)
	if err != nil {
		return nil, err
	}
	var row model.EntityRow
	if err := e.db.WithContext(ctx).Where("id = ?", vrow.ID).First(&row).Error; err != nil {
		return nil, platformerrors.HandleGormError(err, "entities", "latestEntity")
	}
	return &row, nil
}

// chainIDs returns every id that has ever belonged to anchor's chain, since
// a link's source/target columns store whichever id was current when the
// link was created (§3), not necessarily the latest one.
func (e *Engine) chainIDs(ctx context.Context, engine *version.Engine, anchor *model.EntityRow) ([]string, error) {
	rows, err := engine.ListChain(ctx, anchor.ID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids, nil
}

func (e *Engine) resolveAccessible(ctx context.Context, principal *acl.Principal) ([]string, []string, error) {
	if principal == nil {
		return nil, nil, nil
	}
	principals, err := e.aclEngine.ResolvePrincipals(ctx, principal.UserID)
	if err != nil {
		return nil, nil, err
	}
	accessible, err := e.aclEngine.AccessibleAclIds(ctx, principals, model.PermissionRead)
	if err != nil {
		return nil, nil, err
	}
	return principals, accessible, nil
}

func (e *Engine) grantsRead(aclID *string, accessibleIDs []string, authenticated bool) bool {
	if aclID == nil {
		return authenticated
	}
	for _, id := range accessibleIDs {
		if id == *aclID {
			return true
		}
	}
	return false
}
