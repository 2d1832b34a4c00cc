// Package groups owns group lifecycle, membership and the join-request
// workflow. Every operation is an independent load-modify-save cycle
// against the store; the user's group-id list is kept in sync through
// the UserSync collaborator.
package groups

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pliu/termchat/internal/models"
	"github.com/pliu/termchat/internal/store"
)

// UserSync is the slice of the user directory the registry needs to
// keep user records' group lists consistent with membership changes.
type UserSync interface {
	UserByUsername(username string) (*models.User, error)
	SaveUser(user *models.User) error
}

type Registry struct {
	Store store.Store
	Users UserSync
	Log   *zap.Logger

	now   func() time.Time
	newID func() string
}

func New(st store.Store, users UserSync, log *zap.Logger) *Registry {
	return &Registry{
		Store: st,
		Users: users,
		Log:   log,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Create makes a new group with the given admin as sole member and
// appends the group id to the admin's group list.
func (r *Registry) Create(name, adminUsername string) (*models.Group, error) {
	group := models.NewGroup(r.newID(), name, adminUsername, r.now())

	groups, err := r.Store.LoadGroups()
	if err != nil {
		return nil, err
	}
	groups[group.ID] = group
	if err := r.Store.SaveGroups(groups); err != nil {
		return nil, err
	}

	if err := r.addToUserGroupList(adminUsername, group.ID); err != nil {
		return nil, err
	}

	r.Log.Info("group created",
		zap.String("group_id", group.ID),
		zap.String("name", name),
		zap.String("admin", adminUsername))
	return group, nil
}

// ByID resolves a group, failing with models.ErrGroupNotFound.
func (r *Registry) ByID(groupID string) (*models.Group, error) {
	groups, err := r.Store.LoadGroups()
	if err != nil {
		return nil, err
	}
	group, ok := groups[groupID]
	if !ok {
		return nil, fmt.Errorf("group %s: %w", groupID, models.ErrGroupNotFound)
	}
	return group, nil
}

// UserGroups resolves the user's stored group ids against the current
// group collection, silently dropping ids that no longer resolve.
func (r *Registry) UserGroups(username string) ([]*models.Group, error) {
	user, err := r.Users.UserByUsername(username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return []*models.Group{}, nil
	}

	groups, err := r.Store.LoadGroups()
	if err != nil {
		return nil, err
	}

	result := []*models.Group{}
	for _, id := range user.GroupIDs {
		if g, ok := groups[id]; ok {
			result = append(result, g)
		}
	}
	return result, nil
}

// Search matches group names case-insensitively by substring.
func (r *Registry) Search(term string) ([]*models.Group, error) {
	groups, err := r.Store.LoadGroups()
	if err != nil {
		return nil, err
	}

	matches := []*models.Group{}
	for _, g := range groups {
		if containsFold(g.Name, term) {
			matches = append(matches, g)
		}
	}
	return matches, nil
}

// RequestJoin files a join request. Returns false when the user is
// already a member or already has a pending request.
func (r *Registry) RequestJoin(groupID, username string) (bool, error) {
	groups, err := r.Store.LoadGroups()
	if err != nil {
		return false, err
	}
	group, ok := groups[groupID]
	if !ok {
		return false, fmt.Errorf("group %s: %w", groupID, models.ErrGroupNotFound)
	}

	if group.IsMember(username) || group.HasPendingRequest(username) {
		return false, nil
	}

	group.AddJoinRequest(&models.JoinRequest{
		ID:                r.newID(),
		GroupID:           groupID,
		RequestorUsername: username,
		RequestedAt:       r.now(),
	})
	if err := r.Store.SaveGroups(groups); err != nil {
		return false, err
	}

	r.Log.Info("join request filed",
		zap.String("group_id", groupID),
		zap.String("requestor", username))
	return true, nil
}

// AcceptRequest converts a pending request into membership. Only the
// group admin may accept; false when the caller is not the admin or no
// request from requestor is pending.
func (r *Registry) AcceptRequest(groupID, requestor, actingAdmin string) (bool, error) {
	groups, err := r.Store.LoadGroups()
	if err != nil {
		return false, err
	}
	group, ok := groups[groupID]
	if !ok {
		return false, fmt.Errorf("group %s: %w", groupID, models.ErrGroupNotFound)
	}

	if !group.IsAdmin(actingAdmin) || !group.HasPendingRequest(requestor) {
		return false, nil
	}

	group.RemoveJoinRequest(requestor)
	group.AddMember(requestor)
	if err := r.Store.SaveGroups(groups); err != nil {
		return false, err
	}

	if err := r.addToUserGroupList(requestor, groupID); err != nil {
		return false, err
	}

	r.Log.Info("join request accepted",
		zap.String("group_id", groupID),
		zap.String("requestor", requestor))
	return true, nil
}

// RejectRequest discards a pending request without membership change.
func (r *Registry) RejectRequest(groupID, requestor, actingAdmin string) (bool, error) {
	groups, err := r.Store.LoadGroups()
	if err != nil {
		return false, err
	}
	group, ok := groups[groupID]
	if !ok {
		return false, fmt.Errorf("group %s: %w", groupID, models.ErrGroupNotFound)
	}

	if !group.IsAdmin(actingAdmin) || !group.HasPendingRequest(requestor) {
		return false, nil
	}

	group.RemoveJoinRequest(requestor)
	if err := r.Store.SaveGroups(groups); err != nil {
		return false, err
	}

	r.Log.Info("join request rejected",
		zap.String("group_id", groupID),
		zap.String("requestor", requestor))
	return true, nil
}

// RemoveMember expels a member. Only the admin may remove, the admin
// themselves can never be removed, and the target must be a member.
func (r *Registry) RemoveMember(groupID, member, actingAdmin string) (bool, error) {
	groups, err := r.Store.LoadGroups()
	if err != nil {
		return false, err
	}
	group, ok := groups[groupID]
	if !ok {
		return false, fmt.Errorf("group %s: %w", groupID, models.ErrGroupNotFound)
	}

	if !group.IsAdmin(actingAdmin) || group.IsAdmin(member) || !group.IsMember(member) {
		return false, nil
	}

	group.RemoveMember(member)
	if err := r.Store.SaveGroups(groups); err != nil {
		return false, err
	}

	if err := r.removeFromUserGroupList(member, groupID); err != nil {
		return false, err
	}

	r.Log.Info("member removed",
		zap.String("group_id", groupID),
		zap.String("member", member))
	return true, nil
}

// Leave lets a member exit a group. The admin cannot leave.
func (r *Registry) Leave(groupID, username string) (bool, error) {
	groups, err := r.Store.LoadGroups()
	if err != nil {
		return false, err
	}
	group, ok := groups[groupID]
	if !ok {
		return false, fmt.Errorf("group %s: %w", groupID, models.ErrGroupNotFound)
	}

	if group.IsAdmin(username) || !group.IsMember(username) {
		return false, nil
	}

	group.RemoveMember(username)
	if err := r.Store.SaveGroups(groups); err != nil {
		return false, err
	}

	if err := r.removeFromUserGroupList(username, groupID); err != nil {
		return false, err
	}

	r.Log.Info("member left group",
		zap.String("group_id", groupID),
		zap.String("member", username))
	return true, nil
}

// Delete removes the group and takes the group id out of every current
// member's group list. Group messages are not touched here; callers
// delete them through the message log.
func (r *Registry) Delete(groupID, actingAdmin string) (bool, error) {
	groups, err := r.Store.LoadGroups()
	if err != nil {
		return false, err
	}
	group, ok := groups[groupID]
	if !ok {
		return false, fmt.Errorf("group %s: %w", groupID, models.ErrGroupNotFound)
	}

	if !group.IsAdmin(actingAdmin) {
		return false, nil
	}

	for member := range group.Members {
		if err := r.removeFromUserGroupList(member, groupID); err != nil {
			return false, err
		}
	}

	delete(groups, groupID)
	if err := r.Store.SaveGroups(groups); err != nil {
		return false, err
	}

	r.Log.Info("group deleted",
		zap.String("group_id", groupID),
		zap.String("admin", actingAdmin))
	return true, nil
}

// PendingRequests returns a snapshot of a group's pending requests.
// Non-admins get an empty list, not an error.
func (r *Registry) PendingRequests(groupID, actingAdmin string) ([]*models.JoinRequest, error) {
	group, err := r.ByID(groupID)
	if err != nil {
		return nil, err
	}
	if !group.IsAdmin(actingAdmin) {
		return []*models.JoinRequest{}, nil
	}

	snapshot := make([]*models.JoinRequest, len(group.PendingRequests))
	copy(snapshot, group.PendingRequests)
	return snapshot, nil
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func (r *Registry) addToUserGroupList(username, groupID string) error {
	user, err := r.Users.UserByUsername(username)
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}
	user.AddGroup(groupID)
	return r.Users.SaveUser(user)
}

func (r *Registry) removeFromUserGroupList(username, groupID string) error {
	user, err := r.Users.UserByUsername(username)
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}
	user.RemoveGroup(groupID)
	return r.Users.SaveUser(user)
}
