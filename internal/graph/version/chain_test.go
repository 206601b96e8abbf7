package version

import (
	"context"
	"testing"

	domainerrors "github.com/propgraph/propgraph/internal/domain/errors"
	"github.com/propgraph/propgraph/internal/platform/config"
	platformerrors "github.com/propgraph/propgraph/internal/platform/errors"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testRow struct {
	ID                string `gorm:"primaryKey"`
	Version           int
	PreviousVersionID *string
	IsLatest          bool
}

func (testRow) TableName() string { return "test_chain_rows" }

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&testRow{}))
	return db
}

func strPtr(s string) *string { return &s }

// seedChain inserts a 3-version chain: v1 -> v2 -> v3 (latest).
func seedChain(t *testing.T, db *gorm.DB) (v1, v2, v3 string) {
	t.Helper()
	v1, v2, v3 = "row-1", "row-2", "row-3"
	rows := []testRow{
		{ID: v1, Version: 1, PreviousVersionID: nil, IsLatest: false},
		{ID: v2, Version: 2, PreviousVersionID: strPtr(v1), IsLatest: false},
		{ID: v3, Version: 3, PreviousVersionID: strPtr(v2), IsLatest: true},
	}
	require.NoError(t, db.Create(&rows).Error)
	return
}

func TestFindLatestDirectHit(t *testing.T) {
	db := newTestDB(t)
	_, _, v3 := seedChain(t, db)
	e := New(db, "test_chain_rows", config.GraphConfig{MaxChainHops: 100})

	row, err := e.FindLatest(context.Background(), v3)
	require.NoError(t, err)
	require.Equal(t, v3, row.ID)
}

func TestFindLatestFromMidChainID(t *testing.T) {
	db := newTestDB(t)
	v1, _, v3 := seedChain(t, db)
	e := New(db, "test_chain_rows", config.GraphConfig{MaxChainHops: 100})

	row, err := e.FindLatest(context.Background(), v1)
	require.NoError(t, err)
	require.Equal(t, v3, row.ID, "querying the root id must still resolve to the chain's latest row")
}

func TestFindLatestUnknownIDReturnsNotFound(t *testing.T) {
	db := newTestDB(t)
	e := New(db, "test_chain_rows", config.GraphConfig{MaxChainHops: 100})

	_, err := e.FindLatest(context.Background(), "does-not-exist")
	require.Error(t, err)
	appErr := domainerrors.AsAppError(err)
	require.NotNil(t, appErr)
	require.Equal(t, platformerrors.CodeEntityNotFound, appErr.Code)
}

func TestListChainReturnsAscendingVersionOrder(t *testing.T) {
	db := newTestDB(t)
	v1, v2, v3 := seedChain(t, db)
	e := New(db, "test_chain_rows", config.GraphConfig{MaxChainHops: 100})

	chain, err := e.ListChain(context.Background(), v2)
	require.NoError(t, err)
	require.Len(t, chain, 3)
	require.Equal(t, []string{v1, v2, v3}, []string{chain[0].ID, chain[1].ID, chain[2].ID})
	require.Equal(t, []int{1, 2, 3}, []int{chain[0].Version, chain[1].Version, chain[2].Version})
}

func TestFindVersionResolvesSpecificVersion(t *testing.T) {
	db := newTestDB(t)
	_, v2, _ := seedChain(t, db)
	e := New(db, "test_chain_rows", config.GraphConfig{MaxChainHops: 100})

	row, err := e.FindVersion(context.Background(), v2, 2)
	require.NoError(t, err)
	require.Equal(t, v2, row.ID)
}

func TestFindVersionOutOfRange(t *testing.T) {
	db := newTestDB(t)
	_, v2, _ := seedChain(t, db)
	e := New(db, "test_chain_rows", config.GraphConfig{MaxChainHops: 100})

	_, err := e.FindVersion(context.Background(), v2, 99)
	require.Error(t, err)
}

func TestFindLatestBreaksTieOnDoubleIsLatestByMaxVersion(t *testing.T) {
	db := newTestDB(t)
	v1 := "row-1"
	v2a := "row-2a"
	v2b := "row-2b"
	rows := []testRow{
		{ID: v1, Version: 1, PreviousVersionID: nil, IsLatest: false},
		{ID: v2a, Version: 2, PreviousVersionID: strPtr(v1), IsLatest: true},
		{ID: v2b, Version: 3, PreviousVersionID: strPtr(v1), IsLatest: true},
	}
	require.NoError(t, db.Create(&rows).Error)
	e := New(db, "test_chain_rows", config.GraphConfig{MaxChainHops: 100})

	row, err := e.FindLatest(context.Background(), v1)
	require.NoError(t, err)
	require.Equal(t, v2b, row.ID, "higher version must win a double is_latest race")
}
