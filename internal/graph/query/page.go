package query

import (
	"context"

	"github.com/propgraph/propgraph/internal/graph/acl"
	"github.com/propgraph/propgraph/internal/graph/model"
	platformerrors "github.com/propgraph/propgraph/internal/platform/errors"
	"gorm.io/gorm"
)

// RowMeta is the slice of a row's fields the paginator needs regardless of
// whether it's backing an EntityRow or a LinkRow.
type RowMeta struct {
	CreatedAt int64
	ID        string
	AclID     *string
}

// Page is one cursor-paginated result set (§6 "cursor responses").
type Page[T any] struct {
	Rows       []T
	NextCursor string
	HasMore    bool
}

// Paginate executes f against db (already scoped to a single table via
// db.Model/db.Table), applying the §4.4 ACL filter shape appropriate to the
// resolved principal before fetching limit+1 (or oversampled) rows and
// trimming to the page size (§4.5).
func Paginate[T any](
	ctx context.Context,
	db *gorm.DB,
	driver string,
	f Filter,
	aclEngine *acl.Engine,
	principal *acl.Principal,
	oversampleFactor int,
	meta func(T) RowMeta,
) (Page[T], error) {
	scoped, err := Apply(db, driver, f)
	if err != nil {
		return Page[T]{}, err
	}

	var accessibleIDs []string
	if principal != nil {
		principals, err := aclEngine.ResolvePrincipals(ctx, principal.UserID)
		if err != nil {
			return Page[T]{}, err
		}
		accessibleIDs, err = aclEngine.AccessibleAclIds(ctx, principals, model.PermissionRead)
		if err != nil {
			return Page[T]{}, err
		}
	}
	publicReadable := principal != nil

	clause, ok := aclEngine.BuildFilter("acl_id", accessibleIDs, publicReadable)
	if ok {
		scoped = scoped.Where(clause.SQL, clause.Args...)
		var rows []T
		if err := scoped.Limit(f.Limit + 1).Find(&rows).Error; err != nil {
			return Page[T]{}, platformerrors.HandleGormError(err, "query", "Paginate")
		}
		return trim(rows, f.Limit, meta), nil
	}

	oversampled := (f.Limit + 1) * oversampleFactor
	accessibleSet := acl.ToAccessibleSet(accessibleIDs)

	var filtered []T
	next := scoped
	for {
		var candidates []T
		if err := next.Limit(oversampled).Find(&candidates).Error; err != nil {
			return Page[T]{}, platformerrors.HandleGormError(err, "query", "Paginate")
		}

		for _, row := range candidates {
			if acl.RowPassesFilter(meta(row).AclID, accessibleSet, publicReadable) {
				filtered = append(filtered, row)
			}
		}

		if len(filtered) >= f.Limit+1 || len(candidates) < oversampled {
			break
		}

		last := meta(candidates[len(candidates)-1])
		next = scoped.Where("(created_at < ?) OR (created_at = ? AND id < ?)", last.CreatedAt, last.CreatedAt, last.ID)
	}

	if len(filtered) > f.Limit+1 {
		filtered = filtered[:f.Limit+1]
	}
	return trim(filtered, f.Limit, meta), nil
}

func trim[T any](rows []T, limit int, meta func(T) RowMeta) Page[T] {
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	page := Page[T]{Rows: rows, HasMore: hasMore}
	if hasMore && len(rows) > 0 {
		last := meta(rows[len(rows)-1])
		page.NextCursor = Cursor{CreatedAt: last.CreatedAt, ID: last.ID}.String()
	}
	return page
}
