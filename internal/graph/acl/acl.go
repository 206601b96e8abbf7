// Package acl implements C4: principal resolution (including transitive
// group membership), accessible-ACL enumeration, SQL filter injection, and
// content-addressed ACL creation.
package acl

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/propgraph/propgraph/internal/graph/model"
	"github.com/propgraph/propgraph/internal/platform/cache"
	"github.com/propgraph/propgraph/internal/platform/config"
	platformerrors "github.com/propgraph/propgraph/internal/platform/errors"
	"gorm.io/gorm"
)

// Principal identifies an authenticated caller, carrying only what the ACL
// engine needs: their own user id. Anonymous/unauthenticated callers are
// represented by a nil *Principal throughout this package.
type Principal struct {
	UserID string
}

// FilterClause is a SQL WHERE fragment plus its bound arguments, the shape
// buildAclFilter returns for the in-query case (§4.4 shape 1).
type FilterClause struct {
	SQL  string
	Args []interface{}
}

// Engine resolves principals and builds ACL decisions and filters for one
// permission model backed by a SQL database and a KV cache.
type Engine struct {
	db    *gorm.DB
	store cache.KVStore
	cfg   config.ACLConfig
	ttl   config.CacheConfig
}

// New builds an ACL engine.
func New(db *gorm.DB, store cache.KVStore, cfg config.ACLConfig, ttl config.CacheConfig) *Engine {
	return &Engine{db: db, store: store, cfg: cfg, ttl: ttl}
}

// ResolvePrincipals returns {user:userId} union the set of groups userId is
// a transitive member of, via breadth-first closure over group_members.
// Results are cached under cache.PrincipalsKey(userId).
func (e *Engine) ResolvePrincipals(ctx context.Context, userID string) ([]string, error) {
	key := cache.PrincipalsKey(userID)
	var cached []string
	if cache.GetJSON(ctx, e.store, key, &cached) {
		return cached, nil
	}

	principals := []string{principalKey(model.PrincipalUser, userID)}
	visited := map[string]bool{userID: true}
	frontier := []string{userID}

	for len(frontier) > 0 {
		var rows []model.GroupMember
		if err := e.db.WithContext(ctx).
			Where("member_id IN ? AND member_type IN ?", frontier, []model.PrincipalType{model.PrincipalUser, model.PrincipalGroup}).
			Find(&rows).Error; err != nil {
			return nil, platformerrors.HandleGormError(err, "group_members", "ResolvePrincipals")
		}

		var next []string
		for _, row := range rows {
			if visited[row.GroupID] {
				continue
			}
			visited[row.GroupID] = true
			principals = append(principals, principalKey(model.PrincipalGroup, row.GroupID))
			next = append(next, row.GroupID)
		}
		frontier = next
	}

	cache.SetJSON(ctx, e.store, key, principals, e.ttl.PrincipalsTTL)
	return principals, nil
}

// InvalidatePrincipals drops the cached closure for userID, called on any
// group-membership change that could affect it.
func (e *Engine) InvalidatePrincipals(ctx context.Context, userID string) {
	e.store.Delete(ctx, cache.PrincipalsKey(userID))
}

// AddGroupMember inserts a GroupMember edge after verifying it would not
// introduce a cycle: when the new member is itself a group, groupID must
// not already be a transitive member of memberID, since the new edge would
// otherwise close a loop back to groupID.
func (e *Engine) AddGroupMember(ctx context.Context, groupID string, memberType model.PrincipalType, memberID string) (*model.GroupMember, error) {
	if memberType == model.PrincipalGroup {
		if memberID == groupID {
			return nil, platformerrors.NewAclCycle(groupID, memberID)
		}
		closure, err := e.groupClosure(ctx, groupID)
		if err != nil {
			return nil, err
		}
		if closure[memberID] {
			return nil, platformerrors.NewAclCycle(groupID, memberID)
		}
	}

	row := &model.GroupMember{
		ID:         uuid.NewString(),
		GroupID:    groupID,
		MemberType: memberType,
		MemberID:   memberID,
		CreatedAt:  model.Now(),
	}
	if err := e.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, platformerrors.HandleGormError(err, "group_members", "AddGroupMember")
	}
	return row, nil
}

// groupClosure returns the set of group ids reachable by following
// memberOf (group -> group) edges upward from startGroupID, i.e. every
// group startGroupID is (transitively) a member of. Used to detect cycles
// before an edge is inserted.
func (e *Engine) groupClosure(ctx context.Context, startGroupID string) (map[string]bool, error) {
	visited := map[string]bool{}
	frontier := []string{startGroupID}
	hops := 0

	for len(frontier) > 0 {
		var rows []model.GroupMember
		if err := e.db.WithContext(ctx).
			Where("member_id IN ? AND member_type = ?", frontier, model.PrincipalGroup).
			Find(&rows).Error; err != nil {
			return nil, platformerrors.HandleGormError(err, "group_members", "groupClosure")
		}

		var next []string
		for _, row := range rows {
			if visited[row.GroupID] {
				continue
			}
			visited[row.GroupID] = true
			next = append(next, row.GroupID)
		}
		frontier = next
		hops++
		if hops > 10000 {
			break
		}
	}
	return visited, nil
}

// AccessibleAclIds returns the set of ACL ids whose entry set grants
// permission R or better to any of principals.
func (e *Engine) AccessibleAclIds(ctx context.Context, principals []string, required model.Permission) ([]string, error) {
	userIDs, groupIDs := splitPrincipals(principals)

	permissions := []model.Permission{required}
	if required == model.PermissionRead {
		permissions = append(permissions, model.PermissionWrite)
	}

	q := e.db.WithContext(ctx).Model(&model.AclEntry{}).Distinct("acl_id").Where("permission IN ?", permissions)
	q = q.Where(e.db.Where("principal_type = ? AND principal_id IN ?", model.PrincipalUser, orEmpty(userIDs)).
		Or("principal_type = ? AND principal_id IN ?", model.PrincipalGroup, orEmpty(groupIDs)))

	var ids []string
	if err := q.Pluck("acl_id", &ids).Error; err != nil {
		return nil, platformerrors.HandleGormError(err, "acl_entries", "AccessibleAclIds")
	}
	return ids, nil
}

// HasPermission answers the point-check: does principal (nil for
// unauthenticated) have required permission on the resource whose
// acl_id is aclID (nil means public-read, §4.4).
func (e *Engine) HasPermission(ctx context.Context, principal *Principal, aclID *string, required model.Permission) (bool, error) {
	if aclID == nil {
		return required == model.PermissionRead && principal != nil, nil
	}
	if principal == nil {
		return false, nil
	}

	principals, err := e.ResolvePrincipals(ctx, principal.UserID)
	if err != nil {
		return false, err
	}

	accessible, err := e.AccessibleAclIds(ctx, principals, required)
	if err != nil {
		return false, err
	}
	for _, id := range accessible {
		if id == *aclID {
			return true, nil
		}
	}
	return false, nil
}

// BuildFilter returns the §4.4 filter shape for column, given a resolved
// accessible-ACL id set. When the set is small (<= cfg.InQueryMaxIDs) it
// returns an in-query IN-clause; the caller applies it to the query. When
// the set is large, ok=false and the caller must post-filter rows against
// accessibleIDs instead (oversampling the fetch per cfg.OversampleFactor).
func (e *Engine) BuildFilter(column string, accessibleIDs []string, publicReadable bool) (clause *FilterClause, ok bool) {
	if len(accessibleIDs) > e.cfg.InQueryMaxIDs {
		return nil, false
	}

	if publicReadable {
		sql := fmt.Sprintf("(%s IS NULL OR %s IN ?)", column, column)
		return &FilterClause{SQL: sql, Args: []interface{}{orEmpty(accessibleIDs)}}, true
	}
	sql := fmt.Sprintf("%s IN ?", column)
	return &FilterClause{SQL: sql, Args: []interface{}{orEmpty(accessibleIDs)}}, true
}

// RowPassesFilter is the post-query counterpart to BuildFilter, used when
// the accessible set was too large to inline (§4.4 shape 2).
func RowPassesFilter(aclID *string, accessibleIDs map[string]bool, publicReadable bool) bool {
	if aclID == nil {
		return publicReadable
	}
	return accessibleIDs[*aclID]
}

// ToAccessibleSet converts a slice of accessible ACL ids into a lookup map
// for RowPassesFilter.
func ToAccessibleSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// GetOrCreateAcl canonicalizes entries (sort + dedupe), fingerprints them,
// and either returns an existing ACL with the same fingerprint or inserts a
// new one (§4.4). An empty entry list maps to a nil acl_id (public-read),
// matching the "Public entity visible" scenario in §8.
func (e *Engine) GetOrCreateAcl(ctx context.Context, entries []model.AclEntry) (*string, error) {
	canonical := canonicalize(entries)
	if len(canonical) == 0 {
		return nil, nil
	}

	fingerprint := fingerprintOf(canonical)

	var existing model.Acl
	err := e.db.WithContext(ctx).Where("fingerprint = ?", fingerprint).First(&existing).Error
	if err == nil {
		return &existing.ID, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, platformerrors.HandleGormError(err, "acls", "GetOrCreateAcl")
	}

	aclID := uuid.NewString()
	newAcl := model.Acl{ID: aclID, Fingerprint: fingerprint, CreatedAt: model.Now()}

	txErr := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Re-check for a concurrently-inserted row with the same fingerprint
		// before creating: two requests canonicalizing the same entry set
		// must converge on one row (§4.4, §8 ACL dedup scenario).
		var again model.Acl
		err := tx.Where("fingerprint = ?", fingerprint).First(&again).Error
		if err == nil {
			aclID = again.ID
			return nil
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		if err := tx.Create(&newAcl).Error; err != nil {
			return err
		}
		for i := range canonical {
			canonical[i].ID = uuid.NewString()
			canonical[i].AclID = aclID
		}
		return tx.Create(&canonical).Error
	})
	if txErr != nil {
		if isUniqueViolation(txErr) {
			var again model.Acl
			if lookupErr := e.db.WithContext(ctx).Where("fingerprint = ?", fingerprint).First(&again).Error; lookupErr == nil {
				return &again.ID, nil
			}
		}
		return nil, platformerrors.HandleGormError(txErr, "acls", "GetOrCreateAcl")
	}

	return &aclID, nil
}

func canonicalize(entries []model.AclEntry) []model.AclEntry {
	type key struct {
		pType model.PrincipalType
		pID   string
		perm  model.Permission
	}
	seen := map[key]bool{}
	var out []model.AclEntry
	for _, e := range entries {
		k := key{e.PrincipalType, e.PrincipalID, e.Permission}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, model.AclEntry{PrincipalType: e.PrincipalType, PrincipalID: e.PrincipalID, Permission: e.Permission})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PrincipalType != out[j].PrincipalType {
			return out[i].PrincipalType < out[j].PrincipalType
		}
		if out[i].PrincipalID != out[j].PrincipalID {
			return out[i].PrincipalID < out[j].PrincipalID
		}
		return out[i].Permission < out[j].Permission
	})
	return out
}

func fingerprintOf(canonical []model.AclEntry) string {
	var b strings.Builder
	for _, e := range canonical {
		fmt.Fprintf(&b, "%s:%s:%s|", e.PrincipalType, e.PrincipalID, e.Permission)
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func principalKey(t model.PrincipalType, id string) string {
	return fmt.Sprintf("%s:%s", t, id)
}

func splitPrincipals(principals []string) (users, groups []string) {
	for _, p := range principals {
		if strings.HasPrefix(p, string(model.PrincipalUser)+":") {
			users = append(users, strings.TrimPrefix(p, string(model.PrincipalUser)+":"))
		} else if strings.HasPrefix(p, string(model.PrincipalGroup)+":") {
			groups = append(groups, strings.TrimPrefix(p, string(model.PrincipalGroup)+":"))
		}
	}
	return
}

// orEmpty guards GORM's IN clause against an empty slice, which some
// drivers render as invalid SQL rather than a clause that matches nothing.
func orEmpty(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}
