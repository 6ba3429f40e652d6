// Package service orchestrates the ledger engine: thin store-backed
// services the transport layer calls into.
package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/storage"
)

// GroupService manages the group/member directory.
type GroupService struct {
	store storage.Store
}

// NewGroupService creates a GroupService with the given storage backend.
func NewGroupService(store storage.Store) *GroupService {
	return &GroupService{store: store}
}

// CreateGroup creates a group with its initial members.
func (s *GroupService) CreateGroup(ctx context.Context, name, currency string, memberNames []string) (*models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.Validationf("group name required")
	}

	members := make([]models.Member, 0, len(memberNames))
	for _, n := range memberNames {
		n = strings.TrimSpace(n)
		if n == "" {
			return nil, models.Validationf("member name must not be empty")
		}
		members = append(members, models.Member{Name: n})
	}

	group := &models.Group{
		Name:     name,
		Currency: strings.ToUpper(strings.TrimSpace(currency)),
		Members:  members,
	}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		slog.Error("CreateGroup failed", "name", name, "error", err)
		return nil, err
	}

	slog.Info("Group created", "group_id", group.ID, "members_count", len(group.Members))
	return group, nil
}

// GetGroup retrieves a group with its member list.
func (s *GroupService) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	return s.store.GetGroup(ctx, groupID)
}

// ListGroups retrieves all groups.
func (s *GroupService) ListGroups(ctx context.Context) ([]*models.Group, error) {
	return s.store.ListGroups(ctx)
}

// AddMembers adds new members to a group by display name and returns
// the group's updated member list.
func (s *GroupService) AddMembers(ctx context.Context, groupID string, memberNames []string) ([]models.Member, error) {
	members := make([]models.Member, 0, len(memberNames))
	for _, n := range memberNames {
		n = strings.TrimSpace(n)
		if n == "" {
			return nil, models.Validationf("member name must not be empty")
		}
		members = append(members, models.Member{Name: n})
	}

	if err := s.store.AddMembers(ctx, groupID, members); err != nil {
		slog.Error("AddMembers failed", "group_id", groupID, "error", err)
		return nil, err
	}

	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	slog.Info("Members added", "group_id", groupID, "added", len(members))
	return group.Members, nil
}
