// Package model defines the versioned-row data model shared by every
// internal/graph package: entities, links, types, ACLs, and groups.
// Rows are immutable values; a mutation never updates a struct in place,
// it produces a new row and a new chain entry.
package model

import (
	"time"

	"gorm.io/datatypes"
)

// PrincipalType enumerates who an ACL entry or group member can be.
type PrincipalType string

const (
	PrincipalUser  PrincipalType = "user"
	PrincipalGroup PrincipalType = "group"
)

// Permission is the access level granted by an ACL entry.
type Permission string

const (
	PermissionRead  Permission = "read"
	PermissionWrite Permission = "write"
)

// ResourceKind distinguishes entities from links for the query builder and
// resource store, which share most of their logic across both.
type ResourceKind string

const (
	KindEntity ResourceKind = "entity"
	KindLink   ResourceKind = "link"
)

// TypeCategory is the category a Type belongs to, per §3.
type TypeCategory string

const (
	CategoryEntity TypeCategory = "entity"
	CategoryLink   TypeCategory = "link"
)

// Type is an immutable schema definition for entities or links. Evolution
// happens by creating a new Type row; existing ones are never edited.
type Type struct {
	ID          string         `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	Name        string         `gorm:"column:name;not null" json:"name"`
	Category    TypeCategory   `gorm:"column:category;not null" json:"category"`
	Description string         `gorm:"column:description" json:"description,omitempty"`
	JSONSchema  datatypes.JSON `gorm:"column:json_schema" json:"json_schema,omitempty"`
	CreatedAt   int64          `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Type) TableName() string { return "types" }

// Acl is a content-addressed permission set: two ACLs with identical entry
// sets share one row, keyed by Fingerprint (§4.4).
type Acl struct {
	ID          string    `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	Fingerprint string    `gorm:"column:fingerprint;uniqueIndex;not null" json:"-"`
	CreatedAt   int64     `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	Entries     []AclEntry `gorm:"foreignKey:AclID;references:ID" json:"entries,omitempty"`
}

func (Acl) TableName() string { return "acls" }

// AclEntry grants one principal a permission level within an Acl.
type AclEntry struct {
	ID            string        `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	AclID         string        `gorm:"column:acl_id;not null;index" json:"acl_id"`
	PrincipalType PrincipalType `gorm:"column:principal_type;not null" json:"principal_type"`
	PrincipalID   string        `gorm:"column:principal_id;not null" json:"principal_id"`
	Permission    Permission    `gorm:"column:permission;not null" json:"permission"`
}

func (AclEntry) TableName() string { return "acl_entries" }

// Group is a named principal that can itself contain members, forming a DAG
// via GroupMember. Cycles are rejected at insert time by the ACL engine.
type Group struct {
	ID          string `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	Name        string `gorm:"column:name;not null" json:"name"`
	Description string `gorm:"column:description" json:"description,omitempty"`
	CreatedAt   int64  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Group) TableName() string { return "groups" }

// GroupMember is one DAG edge: member (user or group) belongs to group GroupID.
type GroupMember struct {
	ID         string        `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	GroupID    string        `gorm:"column:group_id;not null;index" json:"group_id"`
	MemberType PrincipalType `gorm:"column:member_type;not null" json:"member_type"`
	MemberID   string        `gorm:"column:member_id;not null;index" json:"member_id"`
	CreatedAt  int64         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (GroupMember) TableName() string { return "group_members" }

// EntityRow is one version of an entity chain (§3).
type EntityRow struct {
	ID                string         `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	TypeID            string         `gorm:"column:type_id;not null;index" json:"type_id"`
	Properties        datatypes.JSON `gorm:"column:properties" json:"properties"`
	Version           int            `gorm:"column:version;not null" json:"version"`
	PreviousVersionID *string        `gorm:"column:previous_version_id;index" json:"previous_version_id"`
	CreatedAt         int64          `gorm:"column:created_at;not null" json:"created_at"`
	CreatedBy         string         `gorm:"column:created_by;not null" json:"created_by"`
	IsDeleted         bool           `gorm:"column:is_deleted;not null;default:false" json:"is_deleted"`
	IsLatest          bool           `gorm:"column:is_latest;not null;default:true;index" json:"is_latest"`
	AclID             *string        `gorm:"column:acl_id;index" json:"acl_id"`
}

func (EntityRow) TableName() string { return "entities" }

// LinkRow is one version of a link chain (§3). SourceEntityID and
// TargetEntityID are logical chain identifiers, not necessarily the id of
// the latest row in the far chain — resolve them through the version chain
// engine before use.
type LinkRow struct {
	ID                string         `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	TypeID            string         `gorm:"column:type_id;not null;index" json:"type_id"`
	SourceEntityID    string         `gorm:"column:source_entity_id;not null;index" json:"source_entity_id"`
	TargetEntityID    string         `gorm:"column:target_entity_id;not null;index" json:"target_entity_id"`
	Properties        datatypes.JSON `gorm:"column:properties" json:"properties"`
	Version           int            `gorm:"column:version;not null" json:"version"`
	PreviousVersionID *string        `gorm:"column:previous_version_id;index" json:"previous_version_id"`
	CreatedAt         int64          `gorm:"column:created_at;not null" json:"created_at"`
	CreatedBy         string         `gorm:"column:created_by;not null" json:"created_by"`
	IsDeleted         bool           `gorm:"column:is_deleted;not null;default:false" json:"is_deleted"`
	IsLatest          bool           `gorm:"column:is_latest;not null;default:true;index" json:"is_latest"`
	AclID             *string        `gorm:"column:acl_id;index" json:"acl_id"`
}

func (LinkRow) TableName() string { return "links" }

// Now returns the current unix timestamp in seconds, the unit used by
// CreatedAt throughout the model (§3). Centralized so tests can't drift
// from what the store actually writes.
func Now() int64 { return time.Now().Unix() }
