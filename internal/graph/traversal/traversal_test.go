package traversal

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/propgraph/propgraph/internal/graph/acl"
	"github.com/propgraph/propgraph/internal/graph/model"
	"github.com/propgraph/propgraph/internal/graph/version"
	"github.com/propgraph/propgraph/internal/platform/cache"
	"github.com/propgraph/propgraph/internal/platform/config"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestTraversal(t *testing.T) (*Engine, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Acl{}, &model.AclEntry{}, &model.Group{}, &model.GroupMember{}, &model.EntityRow{}, &model.LinkRow{}))

	kv := cache.NewMemoryStore(0)
	aclEngine := acl.New(db, kv, config.ACLConfig{InQueryMaxIDs: 200, OversampleFactor: 3}, config.CacheConfig{})
	entities := version.New(db, "entities", config.GraphConfig{MaxChainHops: 100})
	links := version.New(db, "links", config.GraphConfig{MaxChainHops: 100})
	return New(db, aclEngine, entities, links), db
}

func makeEntity(t *testing.T, db *gorm.DB, typeID string) model.EntityRow {
	t.Helper()
	row := model.EntityRow{ID: uuid.NewString(), TypeID: typeID, Version: 1, IsLatest: true, CreatedAt: model.Now(), CreatedBy: "seed"}
	require.NoError(t, db.Create(&row).Error)
	return row
}

func makeLink(t *testing.T, db *gorm.DB, typeID, source, target string) model.LinkRow {
	t.Helper()
	row := model.LinkRow{ID: uuid.NewString(), TypeID: typeID, SourceEntityID: source, TargetEntityID: target, Version: 1, IsLatest: true, CreatedAt: model.Now(), CreatedBy: "seed"}
	require.NoError(t, db.Create(&row).Error)
	return row
}

func TestEdgesOutboundFindsFarSideEntity(t *testing.T) {
	e, db := newTestTraversal(t)
	a := makeEntity(t, db, "person")
	b := makeEntity(t, db, "person")
	makeLink(t, db, "knows", a.ID, b.ID)

	neighbors, err := e.Edges(context.Background(), a.ID, Outbound, &acl.Principal{UserID: "alice"}, Filters{})
	require.NoError(t, err)
	require.Len(t, neighbors, 1)
	require.Equal(t, b.ID, neighbors[0].Entity.ID)
}

func TestEdgesInboundIsDirectional(t *testing.T) {
	e, db := newTestTraversal(t)
	a := makeEntity(t, db, "person")
	b := makeEntity(t, db, "person")
	makeLink(t, db, "knows", a.ID, b.ID)

	neighbors, err := e.Edges(context.Background(), a.ID, Inbound, &acl.Principal{UserID: "alice"}, Filters{})
	require.NoError(t, err)
	require.Empty(t, neighbors, "a has no inbound edges, only outbound")

	fromB, err := e.Edges(context.Background(), b.ID, Inbound, &acl.Principal{UserID: "alice"}, Filters{})
	require.NoError(t, err)
	require.Len(t, fromB, 1)
	require.Equal(t, a.ID, fromB[0].Entity.ID)
}

func TestEdgesFiltersOutDeletedFarEntity(t *testing.T) {
	e, db := newTestTraversal(t)
	a := makeEntity(t, db, "person")
	b := makeEntity(t, db, "person")
	require.NoError(t, db.Model(&model.EntityRow{}).Where("id = ?", b.ID).Update("is_deleted", true).Error)
	makeLink(t, db, "knows", a.ID, b.ID)

	neighbors, err := e.Edges(context.Background(), a.ID, Outbound, &acl.Principal{UserID: "alice"}, Filters{})
	require.NoError(t, err)
	require.Empty(t, neighbors)

	withDeleted, err := e.Edges(context.Background(), a.ID, Outbound, &acl.Principal{UserID: "alice"}, Filters{IncludeDeleted: true})
	require.NoError(t, err)
	require.Len(t, withDeleted, 1)
}

func TestEdgesResolvesMidChainLinkEndpoint(t *testing.T) {
	e, db := newTestTraversal(t)
	a := makeEntity(t, db, "person")
	b := makeEntity(t, db, "person")
	makeLink(t, db, "knows", a.ID, b.ID)

	// b is updated after the link was created; the link still points at b's
	// old (now non-latest) row id.
	bv2 := model.EntityRow{ID: uuid.NewString(), TypeID: b.TypeID, Version: 2, PreviousVersionID: &b.ID, IsLatest: true, CreatedAt: model.Now(), CreatedBy: "seed"}
	require.NoError(t, db.Model(&model.EntityRow{}).Where("id = ?", b.ID).Update("is_latest", false).Error)
	require.NoError(t, db.Create(&bv2).Error)

	neighbors, err := e.Edges(context.Background(), a.ID, Outbound, &acl.Principal{UserID: "alice"}, Filters{})
	require.NoError(t, err)
	require.Len(t, neighbors, 1)
	require.Equal(t, bv2.ID, neighbors[0].Entity.ID, "the resolved neighbor must be the chain's current latest row")
}

func TestNeighborsMergesBothDirectionsAndDedupes(t *testing.T) {
	e, db := newTestTraversal(t)
	a := makeEntity(t, db, "person")
	b := makeEntity(t, db, "person")
	makeLink(t, db, "knows", a.ID, b.ID)
	makeLink(t, db, "likes", b.ID, a.ID)

	neighbors, err := e.Neighbors(context.Background(), a.ID, &acl.Principal{UserID: "alice"}, Filters{})
	require.NoError(t, err)
	require.Len(t, neighbors, 1, "b is both an outbound and inbound neighbor of a, deduped to one entry")
	require.Len(t, neighbors[0].Connections, 2)
}

func TestEdgesDeniesUnreadableAnchor(t *testing.T) {
	e, db := newTestTraversal(t)
	aclID, err := e.aclEngine.GetOrCreateAcl(context.Background(), []model.AclEntry{
		{PrincipalType: model.PrincipalUser, PrincipalID: "owner", Permission: model.PermissionRead},
	})
	require.NoError(t, err)
	a := model.EntityRow{ID: uuid.NewString(), TypeID: "person", Version: 1, IsLatest: true, CreatedAt: model.Now(), CreatedBy: "owner", AclID: aclID}
	require.NoError(t, db.Create(&a).Error)

	_, err = e.Edges(context.Background(), a.ID, Outbound, &acl.Principal{UserID: "intruder"}, Filters{})
	require.Error(t, err)
}
