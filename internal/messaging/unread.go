package messaging

import (
	"errors"

	"github.com/pliu/termchat/internal/models"
	"github.com/pliu/termchat/internal/store"
)

// GroupResolver resolves group ids for membership checks during the
// unread scan. Satisfied by groups.Registry.
type GroupResolver interface {
	ByID(groupID string) (*models.Group, error)
}

// UnreadTracker computes unread counts from the message log and a
// user's read cursors. It persists nothing.
type UnreadTracker struct {
	Store  store.Store
	Groups GroupResolver
}

func NewUnreadTracker(st store.Store, groups GroupResolver) *UnreadTracker {
	return &UnreadTracker{Store: st, Groups: groups}
}

// Counts scans the log once for the given user. It returns per-peer
// counts of direct messages newer than the peer cursor, and per-group
// counts of messages from others newer than the group cursor. Groups
// that no longer resolve are skipped.
func (t *UnreadTracker) Counts(user *models.User) (map[string]int, map[string]int, error) {
	messages, err := t.Store.LoadMessages()
	if err != nil {
		return nil, nil, err
	}

	peers := map[string]int{}
	groupCounts := map[string]int{}

	for _, m := range messages {
		if !m.IsGroup {
			if m.Receiver != user.Username {
				continue
			}
			cursor, ok := user.LastRead(m.Sender)
			if !ok || m.SentAt.After(cursor) {
				peers[m.Sender]++
			}
			continue
		}

		if m.Sender == user.Username {
			continue
		}
		group, err := t.Groups.ByID(m.Receiver)
		if err != nil {
			if errors.Is(err, models.ErrGroupNotFound) {
				continue
			}
			return nil, nil, err
		}
		if !group.IsMember(user.Username) {
			continue
		}
		cursor, ok := user.LastReadGroup(group.ID)
		if !ok || m.SentAt.After(cursor) {
			groupCounts[group.ID]++
		}
	}

	return peers, groupCounts, nil
}
