package acl

import (
	"testing"

	"github.com/propgraph/propgraph/internal/graph/model"
	"github.com/propgraph/propgraph/internal/platform/config"
	"github.com/stretchr/testify/assert"
)

func TestCanonicalizeDedupesAndSorts(t *testing.T) {
	entries := []model.AclEntry{
		{PrincipalType: model.PrincipalGroup, PrincipalID: "g2", Permission: model.PermissionRead},
		{PrincipalType: model.PrincipalUser, PrincipalID: "u1", Permission: model.PermissionWrite},
		{PrincipalType: model.PrincipalUser, PrincipalID: "u1", Permission: model.PermissionWrite},
	}

	canonical := canonicalize(entries)

	assert.Len(t, canonical, 2)
	assert.Equal(t, model.PrincipalUser, canonical[0].PrincipalType)
	assert.Equal(t, model.PrincipalGroup, canonical[1].PrincipalType)
}

func TestCanonicalizeOrderIndependent(t *testing.T) {
	a := []model.AclEntry{
		{PrincipalType: model.PrincipalUser, PrincipalID: "u1", Permission: model.PermissionRead},
		{PrincipalType: model.PrincipalUser, PrincipalID: "u2", Permission: model.PermissionRead},
	}
	b := []model.AclEntry{
		{PrincipalType: model.PrincipalUser, PrincipalID: "u2", Permission: model.PermissionRead},
		{PrincipalType: model.PrincipalUser, PrincipalID: "u1", Permission: model.PermissionRead},
	}

	assert.Equal(t, fingerprintOf(canonicalize(a)), fingerprintOf(canonicalize(b)))
}

func TestFingerprintDiffersOnDifferentEntries(t *testing.T) {
	a := canonicalize([]model.AclEntry{{PrincipalType: model.PrincipalUser, PrincipalID: "u1", Permission: model.PermissionRead}})
	b := canonicalize([]model.AclEntry{{PrincipalType: model.PrincipalUser, PrincipalID: "u1", Permission: model.PermissionWrite}})

	assert.NotEqual(t, fingerprintOf(a), fingerprintOf(b))
}

func TestRowPassesFilter(t *testing.T) {
	accessible := map[string]bool{"acl-1": true}

	assert.True(t, RowPassesFilter(nil, accessible, true))
	assert.False(t, RowPassesFilter(nil, accessible, false))

	id := "acl-1"
	assert.True(t, RowPassesFilter(&id, accessible, false))

	other := "acl-2"
	assert.False(t, RowPassesFilter(&other, accessible, false))
}

func TestBuildFilterAboveThresholdSignalsPostFilter(t *testing.T) {
	e := &Engine{cfg: config.ACLConfig{InQueryMaxIDs: 2, OversampleFactor: 3}}

	_, ok := e.BuildFilter("acl_id", []string{"a", "b", "c"}, false)
	assert.False(t, ok)

	clause, ok := e.BuildFilter("acl_id", []string{"a", "b"}, false)
	assert.True(t, ok)
	assert.Equal(t, "acl_id IN ?", clause.SQL)
}

func TestBuildFilterPublicReadable(t *testing.T) {
	e := &Engine{cfg: config.ACLConfig{InQueryMaxIDs: 10}}

	clause, ok := e.BuildFilter("acl_id", []string{"a"}, true)
	assert.True(t, ok)
	assert.Contains(t, clause.SQL, "IS NULL")
}
