// Package version implements C2, the version-chain engine: resolving any
// row id in a chain to its latest row, a specific version number, or the
// full ordered chain.
package version

import (
	"context"
	"fmt"

	domainerrors "github.com/propgraph/propgraph/internal/domain/errors"
	"github.com/propgraph/propgraph/internal/platform/config"
	platformerrors "github.com/propgraph/propgraph/internal/platform/errors"
	"gorm.io/gorm"
)

// Row is the minimal shape the engine needs from an entity or link row. It
// lets the engine work against either table without depending on model
// directly, matching the rest of this codebase's repository-layer shape.
type Row struct {
	ID                string
	Version           int
	PreviousVersionID *string
	IsLatest          bool
}

// table abstracts the concrete GORM model (EntityRow or LinkRow) the chain
// engine is walking. Implementations live next to their model.
type table interface {
	TableName() string
}

// Engine walks version chains for one table (entities or links).
type Engine struct {
	db        *gorm.DB
	tableName string
	cfg       config.GraphConfig
}

// New builds a chain engine bound to a single table name, e.g. "entities"
// or "links".
func New(db *gorm.DB, tableName string, cfg config.GraphConfig) *Engine {
	return &Engine{db: db, tableName: tableName, cfg: cfg}
}

// NewFor is a convenience constructor that derives the table name from a
// GORM model's TableName(), mirroring the existing repository pattern.
func NewFor(db *gorm.DB, model table, cfg config.GraphConfig) *Engine {
	return New(db, model.TableName(), cfg)
}

// FindLatest returns the latest row of the chain containing id. It first
// tries a direct is_latest lookup, then falls back to a two-phase
// traversal: walk ancestors of id to the chain root, then walk successors
// from the root to the latest leaf (§4.2). Ties (two rows both flagged
// is_latest after a lost race, §5) are broken by MAX(version).
func (e *Engine) FindLatest(ctx context.Context, id string) (*Row, error) {
	if row, err := e.directLatest(ctx, id); err == nil {
		if row.PreviousVersionID == nil {
			return row, nil
		}
		sibling, err := e.successorOf(ctx, *row.PreviousVersionID)
		if err != nil {
			return nil, err
		}
		if sibling == nil || sibling.ID == row.ID {
			return row, nil
		}
		// A higher-version sibling exists; fall through to the full walk.
	} else if !isNotFound(err) {
		return nil, err
	}

	root, err := e.walkToRoot(ctx, id)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, platformerrors.NewEntityNotFound(id)
	}

	return e.walkToLatest(ctx, root)
}

// FindVersion returns the row with the given version number within the
// chain containing chainID.
func (e *Engine) FindVersion(ctx context.Context, chainID string, n int) (*Row, error) {
	chain, err := e.ListChain(ctx, chainID)
	if err != nil {
		return nil, err
	}
	for i := range chain {
		if chain[i].Version == n {
			return &chain[i], nil
		}
	}
	return nil, platformerrors.NewInvalidVersion(chainID, n)
}

// ListChain returns every row of the chain containing chainID, in
// ascending version order.
func (e *Engine) ListChain(ctx context.Context, chainID string) ([]Row, error) {
	root, err := e.walkToRoot(ctx, chainID)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, platformerrors.NewEntityNotFound(chainID)
	}

	var rows []Row
	current := root
	hops := 0
	for {
		rows = append(rows, *current)
		next, err := e.successorOf(ctx, current.ID)
		if err != nil {
			return nil, err
		}
		if next == nil {
			break
		}
		current = next
		hops++
		if hops > e.cfg.MaxChainHops {
			return nil, fmt.Errorf("chain %s exceeded max hops (%d); likely a cycle from a buggy insert", chainID, e.cfg.MaxChainHops)
		}
	}
	return rows, nil
}

func (e *Engine) directLatest(ctx context.Context, id string) (*Row, error) {
	rows, err := e.chainRowsByIDAndLatest(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, platformerrors.NewEntityNotFound(id)
	}
	return maxVersion(rows), nil
}

// chainRowsByIDAndLatest checks whether id itself is currently flagged
// is_latest. A direct hit means id is already the chain's latest row.
func (e *Engine) chainRowsByIDAndLatest(ctx context.Context, id string) ([]Row, error) {
	var rows []rawRow
	err := e.db.WithContext(ctx).Table(e.tableName).
		Select("id, version, previous_version_id, is_latest").
		Where("id = ? AND is_latest = ?", id, true).
		Find(&rows).Error
	if err != nil {
		return nil, platformerrors.HandleGormError(err, e.tableName, "chainRowsByIDAndLatest")
	}
	return toRows(rows), nil
}

// walkToRoot follows previous_version_id back-pointers starting from id
// until it reaches the v1 row (previous_version_id IS NULL), returning
// that root row. If id itself doesn't exist in the table, returns nil.
func (e *Engine) walkToRoot(ctx context.Context, id string) (*Row, error) {
	current, err := e.rowByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, nil
	}

	hops := 0
	for current.PreviousVersionID != nil {
		parent, err := e.rowByID(ctx, *current.PreviousVersionID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			// Dangling back-pointer; treat current as the root we can reach.
			break
		}
		current = parent
		hops++
		if hops > e.cfg.MaxChainHops {
			return nil, fmt.Errorf("chain rooted near %s exceeded max hops (%d)", id, e.cfg.MaxChainHops)
		}
	}
	return current, nil
}

// walkToLatest follows successors (rows whose previous_version_id points at
// the current row) from root until no successor exists, returning the
// leaf. When a race has produced two leaves both flagged is_latest for the
// same chain, MAX(version) wins (§5): successorOf picks the higher-version
// successor at each row, so the walk ends on that leaf.
func (e *Engine) walkToLatest(ctx context.Context, root *Row) (*Row, error) {
	current := root
	hops := 0
	for {
		next, err := e.successorOf(ctx, current.ID)
		if err != nil {
			return nil, err
		}
		if next == nil {
			return current, nil
		}
		current = next
		hops++
		if hops > e.cfg.MaxChainHops {
			return nil, fmt.Errorf("chain rooted at %s exceeded max hops (%d)", root.ID, e.cfg.MaxChainHops)
		}
	}
}

func (e *Engine) rowByID(ctx context.Context, id string) (*Row, error) {
	var rows []rawRow
	err := e.db.WithContext(ctx).Table(e.tableName).
		Select("id, version, previous_version_id, is_latest").
		Where("id = ?", id).
		Find(&rows).Error
	if err != nil {
		return nil, platformerrors.HandleGormError(err, e.tableName, "rowByID")
	}
	if len(rows) == 0 {
		return nil, nil
	}
	r := toRows(rows)[0]
	return &r, nil
}

func (e *Engine) successorOf(ctx context.Context, id string) (*Row, error) {
	var rows []rawRow
	err := e.db.WithContext(ctx).Table(e.tableName).
		Select("id, version, previous_version_id, is_latest").
		Where("previous_version_id = ?", id).
		Find(&rows).Error
	if err != nil {
		return nil, platformerrors.HandleGormError(err, e.tableName, "successorOf")
	}
	if len(rows) == 0 {
		return nil, nil
	}
	// Normally at most one successor; under the §5 race two writers can
	// each insert a successor of the same row, so prefer the higher version.
	best := toRows(rows)
	return maxVersion(best), nil
}

type rawRow struct {
	ID                string  `gorm:"column:id"`
	Version           int     `gorm:"column:version"`
	PreviousVersionID *string `gorm:"column:previous_version_id"`
	IsLatest          bool    `gorm:"column:is_latest"`
}

func toRows(raw []rawRow) []Row {
	out := make([]Row, len(raw))
	for i, r := range raw {
		out[i] = Row{ID: r.ID, Version: r.Version, PreviousVersionID: r.PreviousVersionID, IsLatest: r.IsLatest}
	}
	return out
}

func maxVersion(rows []Row) *Row {
	best := rows[0]
	for _, r := range rows[1:] {
		if r.Version > best.Version {
			best = r
		}
	}
	return &best
}

func isNotFound(err error) bool {
	appErr := domainerrors.AsAppError(err)
	return appErr != nil && appErr.Code == platformerrors.CodeEntityNotFound
}
