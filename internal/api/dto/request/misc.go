package request

import "encoding/json"

// CreateTypeRequest is the POST /types body.
type CreateTypeRequest struct {
	Name        string          `json:"name" binding:"required"`
	Category    string          `json:"category" binding:"required,oneof=entity link"`
	Description string          `json:"description"`
	JSONSchema  json.RawMessage `json:"json_schema"`
}

// CreateGroupRequest is the POST /groups body.
type CreateGroupRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// AddGroupMemberRequest is the POST /groups/{id}/members body.
type AddGroupMemberRequest struct {
	MemberType string `json:"member_type" binding:"required,oneof=user group"`
	MemberID   string `json:"member_id" binding:"required"`
}

// RichFilterDTO is one entry of a POST /search request's property_filters.
type RichFilterDTO struct {
	Path     string `json:"json_path" binding:"required"`
	Operator string `json:"operator" binding:"required"`
	Value    string `json:"value"`
}

// SearchRequest is the POST /search body.
type SearchRequest struct {
	Kind            string          `json:"kind" binding:"required,oneof=entity link"`
	TypeID          string          `json:"type_id"`
	CreatedBy       string          `json:"created_by"`
	CreatedAfter    *int64          `json:"created_after"`
	CreatedBefore   *int64          `json:"created_before"`
	IncludeDeleted  bool            `json:"include_deleted"`
	ShowAllVersions bool            `json:"show_all_versions"`
	Cursor          string          `json:"cursor"`
	Limit           int             `json:"limit"`
	PropertyFilters []RichFilterDTO `json:"property_filters"`
}
