package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/propgraph/propgraph/internal/graph/acl"
	"github.com/propgraph/propgraph/internal/graph/model"
	platformerrors "github.com/propgraph/propgraph/internal/platform/errors"
	"gorm.io/gorm"
)

// CreateGroup creates a new, empty group.
func (s *Service) CreateGroup(ctx context.Context, name, description string) (*model.Group, error) {
	group := &model.Group{ID: uuid.NewString(), Name: name, Description: description, CreatedAt: model.Now()}
	if err := s.db.WithContext(ctx).Create(group).Error; err != nil {
		return nil, platformerrors.HandleGormError(err, "groups", "CreateGroup")
	}
	return group, nil
}

// ListGroups returns every group.
func (s *Service) ListGroups(ctx context.Context) ([]model.Group, error) {
	var groups []model.Group
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&groups).Error; err != nil {
		return nil, platformerrors.HandleGormError(err, "groups", "ListGroups")
	}
	return groups, nil
}

// GroupDetail is a group enriched with its direct and transitive member
// counts (supplemental §6 read, mirrors GetType's single-resource shape).
type GroupDetail struct {
	model.Group
	DirectMemberCount      int `json:"direct_member_count"`
	TransitiveMemberCount int `json:"transitive_member_count"`
}

// GetGroup reads a single group along with its direct member count and the
// count of distinct users reachable through it, following nested group
// membership to any depth.
func (s *Service) GetGroup(ctx context.Context, groupID string) (*GroupDetail, error) {
	var group model.Group
	if err := s.db.WithContext(ctx).Where("id = ?", groupID).First(&group).Error; err != nil {
		// HandleGormError maps gorm.ErrRecordNotFound to a not-found error (404).
		return nil, platformerrors.HandleGormError(err, "groups", "GetGroup")
	}

	var directCount int64
	if err := s.db.WithContext(ctx).Model(&model.GroupMember{}).Where("group_id = ?", groupID).Count(&directCount).Error; err != nil {
		return nil, platformerrors.HandleGormError(err, "group_members", "GetGroup")
	}

	transitiveUsers, err := s.transitiveGroupMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}

	return &GroupDetail{
		Group:                 group,
		DirectMemberCount:     int(directCount),
		TransitiveMemberCount: len(transitiveUsers),
	}, nil
}

// transitiveGroupMembers returns the set of distinct user ids reachable
// from groupID by following GroupMember edges down through nested groups,
// bounded the same way acl.Engine.groupClosure bounds its upward walk.
func (s *Service) transitiveGroupMembers(ctx context.Context, groupID string) (map[string]bool, error) {
	users := map[string]bool{}
	visitedGroups := map[string]bool{groupID: true}
	frontier := []string{groupID}
	hops := 0

	for len(frontier) > 0 {
		var rows []model.GroupMember
		if err := s.db.WithContext(ctx).Where("group_id IN ?", frontier).Find(&rows).Error; err != nil {
			return nil, platformerrors.HandleGormError(err, "group_members", "transitiveGroupMembers")
		}

		var next []string
		for _, row := range rows {
			if row.MemberType == model.PrincipalGroup {
				if visitedGroups[row.MemberID] {
					continue
				}
				visitedGroups[row.MemberID] = true
				next = append(next, row.MemberID)
				continue
			}
			users[row.MemberID] = true
		}
		frontier = next
		hops++
		if hops > 10000 {
			break
		}
	}
	return users, nil
}

// AddGroupMember adds a member (user or group) to a group, rejecting the
// edge if it would introduce a cycle (§4.4, §8 scenario 3).
func (s *Service) AddGroupMember(ctx context.Context, groupID string, memberType model.PrincipalType, memberID string) (*model.GroupMember, error) {
	var group model.Group
	if err := s.db.WithContext(ctx).Where("id = ?", groupID).First(&group).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, platformerrors.NewInvalidPrincipals([]string{groupID})
		}
		return nil, platformerrors.HandleGormError(err, "groups", "AddGroupMember")
	}

	member, err := s.aclEngine.AddGroupMember(ctx, groupID, memberType, memberID)
	if err != nil {
		return nil, err
	}

	if memberType == model.PrincipalUser {
		s.aclEngine.InvalidatePrincipals(ctx, memberID)
	}
	return member, nil
}

// ListGroupMembers lists a group's direct members.
func (s *Service) ListGroupMembers(ctx context.Context, groupID string) ([]model.GroupMember, error) {
	var members []model.GroupMember
	if err := s.db.WithContext(ctx).Where("group_id = ?", groupID).Find(&members).Error; err != nil {
		return nil, platformerrors.HandleGormError(err, "group_members", "ListGroupMembers")
	}
	return members, nil
}

// RemoveGroupMember removes a direct member from a group.
func (s *Service) RemoveGroupMember(ctx context.Context, groupID, memberID string) error {
	result := s.db.WithContext(ctx).Where("group_id = ? AND member_id = ?", groupID, memberID).Delete(&model.GroupMember{})
	if result.Error != nil {
		return platformerrors.HandleGormError(result.Error, "group_members", "RemoveGroupMember")
	}
	s.aclEngine.InvalidatePrincipals(ctx, memberID)
	return nil
}

// ResolvePrincipals exposes acl.Engine.ResolvePrincipals for callers (e.g.
// middleware) that need a principal's full closure outside of a
// permission check.
func (s *Service) ResolvePrincipals(ctx context.Context, userID string) ([]string, error) {
	return s.aclEngine.ResolvePrincipals(ctx, userID)
}

// Principal constructs an acl.Principal, or nil for an empty userID
// (unauthenticated request).
func Principal(userID string) *acl.Principal {
	if userID == "" {
		return nil
	}
	return &acl.Principal{UserID: userID}
}
