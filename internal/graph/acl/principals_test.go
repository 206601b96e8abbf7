package acl

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/propgraph/propgraph/internal/graph/model"
	"github.com/propgraph/propgraph/internal/platform/cache"
	"github.com/propgraph/propgraph/internal/platform/config"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestEngine(t *testing.T) (*Engine, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Acl{}, &model.AclEntry{}, &model.Group{}, &model.GroupMember{}))
	kv := cache.NewMemoryStore(0)
	ttl := config.CacheConfig{PrincipalsTTL: time.Minute, EntityTTL: time.Minute}
	return New(db, kv, config.ACLConfig{InQueryMaxIDs: 200, OversampleFactor: 3}, ttl), db
}

func addMember(t *testing.T, db *gorm.DB, groupID string, memberType model.PrincipalType, memberID string) {
	t.Helper()
	row := model.GroupMember{ID: uuid.NewString(), GroupID: groupID, MemberType: memberType, MemberID: memberID, CreatedAt: model.Now()}
	require.NoError(t, db.Create(&row).Error)
}

func TestResolvePrincipalsIncludesTransitiveGroups(t *testing.T) {
	e, db := newTestEngine(t)
	addMember(t, db, "team-a", model.PrincipalUser, "alice")
	addMember(t, db, "org-1", model.PrincipalGroup, "team-a")

	principals, err := e.ResolvePrincipals(context.Background(), "alice")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"user:alice", "group:team-a", "group:org-1"}, principals)
}

func TestResolvePrincipalsCachesResult(t *testing.T) {
	e, db := newTestEngine(t)
	addMember(t, db, "team-a", model.PrincipalUser, "alice")

	first, err := e.ResolvePrincipals(context.Background(), "alice")
	require.NoError(t, err)

	// Remove the membership directly; a cached result must still be served.
	require.NoError(t, db.Where("group_id = ?", "team-a").Delete(&model.GroupMember{}).Error)

	second, err := e.ResolvePrincipals(context.Background(), "alice")
	require.NoError(t, err)
	require.ElementsMatch(t, first, second)

	e.InvalidatePrincipals(context.Background(), "alice")
	third, err := e.ResolvePrincipals(context.Background(), "alice")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"user:alice"}, third)
}

func TestAddGroupMemberRejectsDirectCycle(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.AddGroupMember(context.Background(), "team-a", model.PrincipalGroup, "team-a")
	require.Error(t, err)
}

func TestAddGroupMemberRejectsIndirectCycle(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.AddGroupMember(context.Background(), "org-1", model.PrincipalGroup, "team-a")
	require.NoError(t, err)

	_, err = e.AddGroupMember(context.Background(), "team-a", model.PrincipalGroup, "org-1")
	require.Error(t, err, "org-1 is already an ancestor of team-a through the first edge")
}

func TestAddGroupMemberAllowsDiamond(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.AddGroupMember(context.Background(), "org-1", model.PrincipalGroup, "team-a")
	require.NoError(t, err)
	_, err = e.AddGroupMember(context.Background(), "org-1", model.PrincipalGroup, "team-b")
	require.NoError(t, err)
	_, err = e.AddGroupMember(context.Background(), "team-a", model.PrincipalUser, "alice")
	require.NoError(t, err)
	_, err = e.AddGroupMember(context.Background(), "team-b", model.PrincipalUser, "alice")
	require.NoError(t, err, "a user in two groups under the same ancestor is not a cycle")
}

func TestGetOrCreateAclDedupesByFingerprint(t *testing.T) {
	e, _ := newTestEngine(t)
	entries := []model.AclEntry{
		{PrincipalType: model.PrincipalUser, PrincipalID: "alice", Permission: model.PermissionWrite},
	}

	first, err := e.GetOrCreateAcl(context.Background(), entries)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := e.GetOrCreateAcl(context.Background(), entries)
	require.NoError(t, err)
	require.Equal(t, *first, *second)
}

func TestGetOrCreateAclEmptyEntriesIsPublicRead(t *testing.T) {
	e, _ := newTestEngine(t)
	id, err := e.GetOrCreateAcl(context.Background(), nil)
	require.NoError(t, err)
	require.Nil(t, id)
}

func TestAccessibleAclIdsHonorsWriteImpliesRead(t *testing.T) {
	e, _ := newTestEngine(t)
	aclID, err := e.GetOrCreateAcl(context.Background(), []model.AclEntry{
		{PrincipalType: model.PrincipalUser, PrincipalID: "alice", Permission: model.PermissionWrite},
	})
	require.NoError(t, err)

	ids, err := e.AccessibleAclIds(context.Background(), []string{"user:alice"}, model.PermissionRead)
	require.NoError(t, err)
	require.Contains(t, ids, *aclID, "a write grant must satisfy a read check")
}

func TestHasPermissionDeniesWriteOnPublicResource(t *testing.T) {
	e, _ := newTestEngine(t)
	ok, err := e.HasPermission(context.Background(), &Principal{UserID: "alice"}, nil, model.PermissionWrite)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHasPermissionAllowsReadOnPublicResourceForAnyAuthenticatedUser(t *testing.T) {
	e, _ := newTestEngine(t)
	ok, err := e.HasPermission(context.Background(), &Principal{UserID: "alice"}, nil, model.PermissionRead)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestHasPermissionDeniesAnonymousOnPublicResource(t *testing.T) {
	e, _ := newTestEngine(t)
	ok, err := e.HasPermission(context.Background(), nil, nil, model.PermissionRead)
	require.NoError(t, err)
	require.False(t, ok)
}
