package query

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/propgraph/propgraph/internal/graph/acl"
	"github.com/propgraph/propgraph/internal/graph/model"
	"github.com/propgraph/propgraph/internal/platform/cache"
	"github.com/propgraph/propgraph/internal/platform/config"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newQueryTestDB(t *testing.T) (*gorm.DB, *acl.Engine) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.EntityRow{}, &model.Acl{}, &model.AclEntry{}))
	kv := cache.NewMemoryStore(0)
	aclEngine := acl.New(db, kv, config.ACLConfig{InQueryMaxIDs: 200, OversampleFactor: 3}, config.CacheConfig{})
	return db, aclEngine
}

func seedEntity(t *testing.T, db *gorm.DB, createdAt int64, typeID string, properties string, aclID *string) model.EntityRow {
	t.Helper()
	row := model.EntityRow{
		ID:         uuid.NewString(),
		TypeID:     typeID,
		Properties: datatypes.JSON(properties),
		Version:    1,
		CreatedAt:  createdAt,
		CreatedBy:  "seed",
		IsLatest:   true,
		AclID:      aclID,
	}
	require.NoError(t, db.Create(&row).Error)
	return row
}

func TestApplyFiltersByTypeAndPropertyEquality(t *testing.T) {
	db, _ := newQueryTestDB(t)
	seedEntity(t, db, 100, "person", `{"city":"nyc"}`, nil)
	seedEntity(t, db, 200, "person", `{"city":"sf"}`, nil)
	seedEntity(t, db, 300, "dog", `{"city":"nyc"}`, nil)

	f := Filter{TypeID: "person", PropertyEquals: map[string]string{"city": "nyc"}, Limit: 20}
	scoped, err := Apply(db.Model(&model.EntityRow{}), "sqlite", f)
	require.NoError(t, err)

	var rows []model.EntityRow
	require.NoError(t, scoped.Find(&rows).Error)
	require.Len(t, rows, 1)
	require.Equal(t, "person", rows[0].TypeID)
}

func TestApplyExcludesDeletedAndNonLatestByDefault(t *testing.T) {
	db, _ := newQueryTestDB(t)
	latest := seedEntity(t, db, 100, "person", `{}`, nil)
	require.NoError(t, db.Create(&model.EntityRow{ID: uuid.NewString(), TypeID: "person", Version: 1, CreatedAt: 50, CreatedBy: "seed", IsLatest: false}).Error)
	require.NoError(t, db.Create(&model.EntityRow{ID: uuid.NewString(), TypeID: "person", Version: 1, CreatedAt: 75, CreatedBy: "seed", IsLatest: true, IsDeleted: true}).Error)

	f := Filter{Limit: 20}
	scoped, err := Apply(db.Model(&model.EntityRow{}), "sqlite", f)
	require.NoError(t, err)

	var rows []model.EntityRow
	require.NoError(t, scoped.Find(&rows).Error)
	require.Len(t, rows, 1)
	require.Equal(t, latest.ID, rows[0].ID)
}

func TestApplyRichFilterNumericComparison(t *testing.T) {
	db, _ := newQueryTestDB(t)
	seedEntity(t, db, 100, "person", `{"age":25}`, nil)
	seedEntity(t, db, 200, "person", `{"age":40}`, nil)

	f := Filter{PropertyFilters: []RichFilter{{Path: "$.age", Operator: OpGte, Value: "30"}}, Limit: 20}
	scoped, err := Apply(db.Model(&model.EntityRow{}), "sqlite", f)
	require.NoError(t, err)

	var rows []model.EntityRow
	require.NoError(t, scoped.Find(&rows).Error)
	require.Len(t, rows, 1)
}

func TestApplyCursorExcludesRowsAtOrAfterCursor(t *testing.T) {
	db, _ := newQueryTestDB(t)
	first := seedEntity(t, db, 100, "person", `{}`, nil)
	second := seedEntity(t, db, 200, "person", `{}`, nil)

	cursor := Cursor{CreatedAt: second.CreatedAt, ID: second.ID}.String()
	f := Filter{Cursor: cursor, Limit: 20}
	scoped, err := Apply(db.Model(&model.EntityRow{}), "sqlite", f)
	require.NoError(t, err)

	var rows []model.EntityRow
	require.NoError(t, scoped.Find(&rows).Error)
	require.Len(t, rows, 1)
	require.Equal(t, first.ID, rows[0].ID)
}

func TestPaginateHasMoreAndNextCursor(t *testing.T) {
	db, aclEngine := newQueryTestDB(t)
	for i := int64(0); i < 5; i++ {
		seedEntity(t, db, 100+i, "person", `{}`, nil)
	}

	meta := func(r model.EntityRow) RowMeta { return RowMeta{CreatedAt: r.CreatedAt, ID: r.ID, AclID: r.AclID} }
	page, err := Paginate(context.Background(), db.Model(&model.EntityRow{}), "sqlite", Filter{Limit: 2}, aclEngine, &acl.Principal{UserID: "alice"}, 3, meta)
	require.NoError(t, err)
	require.Len(t, page.Rows, 2)
	require.True(t, page.HasMore)
	require.NotEmpty(t, page.NextCursor)
}

func TestPaginatePostFiltersWhenAboveInQueryThreshold(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.EntityRow{}, &model.Acl{}, &model.AclEntry{}))
	kv := cache.NewMemoryStore(0)
	aclEngine := acl.New(db, kv, config.ACLConfig{InQueryMaxIDs: 0, OversampleFactor: 3}, config.CacheConfig{})

	readableAcl, err := aclEngine.GetOrCreateAcl(context.Background(), []model.AclEntry{
		{PrincipalType: model.PrincipalUser, PrincipalID: "alice", Permission: model.PermissionRead},
	})
	require.NoError(t, err)
	otherAcl, err := aclEngine.GetOrCreateAcl(context.Background(), []model.AclEntry{
		{PrincipalType: model.PrincipalUser, PrincipalID: "bob", Permission: model.PermissionRead},
	})
	require.NoError(t, err)

	seedEntity(t, db, 100, "person", `{}`, readableAcl)
	seedEntity(t, db, 200, "person", `{}`, otherAcl)

	meta := func(r model.EntityRow) RowMeta { return RowMeta{CreatedAt: r.CreatedAt, ID: r.ID, AclID: r.AclID} }
	page, err := Paginate(context.Background(), db.Model(&model.EntityRow{}), "sqlite", Filter{Limit: 20}, aclEngine, &acl.Principal{UserID: "alice"}, 3, meta)
	require.NoError(t, err)
	require.Len(t, page.Rows, 1)
	require.Equal(t, *readableAcl, *page.Rows[0].AclID)
}

func TestPaginateRepagesWhenOversampledBatchIsMostlyFiltered(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.EntityRow{}, &model.Acl{}, &model.AclEntry{}))
	kv := cache.NewMemoryStore(0)
	aclEngine := acl.New(db, kv, config.ACLConfig{InQueryMaxIDs: 0, OversampleFactor: 2}, config.CacheConfig{})

	readableAcl, err := aclEngine.GetOrCreateAcl(context.Background(), []model.AclEntry{
		{PrincipalType: model.PrincipalUser, PrincipalID: "alice", Permission: model.PermissionRead},
	})
	require.NoError(t, err)
	otherAcl, err := aclEngine.GetOrCreateAcl(context.Background(), []model.AclEntry{
		{PrincipalType: model.PrincipalUser, PrincipalID: "bob", Permission: model.PermissionRead},
	})
	require.NoError(t, err)

	// Only every fifth row (by created_at) is readable by alice, so the
	// first oversampled batch of 6 (limit 2, factor 2) only turns up the
	// two newest readable rows (20, 15) against a required limit+1 of 3,
	// forcing a second, older-cursored fetch to find the third (10).
	for createdAt := int64(1); createdAt <= 20; createdAt++ {
		rowAcl := otherAcl
		if createdAt%5 == 0 {
			rowAcl = readableAcl
		}
		seedEntity(t, db, createdAt, "person", `{}`, rowAcl)
	}

	meta := func(r model.EntityRow) RowMeta { return RowMeta{CreatedAt: r.CreatedAt, ID: r.ID, AclID: r.AclID} }
	page, err := Paginate(context.Background(), db.Model(&model.EntityRow{}), "sqlite", Filter{Limit: 2}, aclEngine, &acl.Principal{UserID: "alice"}, 2, meta)
	require.NoError(t, err)
	require.Len(t, page.Rows, 2)
	require.Equal(t, int64(20), page.Rows[0].CreatedAt)
	require.Equal(t, int64(15), page.Rows[1].CreatedAt)
	require.True(t, page.HasMore, "a third readable row (created_at=10) exists beyond the first oversampled batch")
}
