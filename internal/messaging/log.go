// Package messaging owns the message log: creation, retrieval by
// conversation or group, and the deletion cascades run when accounts
// or groups go away.
package messaging

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pliu/termchat/internal/models"
	"github.com/pliu/termchat/internal/store"
)

type Log struct {
	Store store.Store
	Log   *zap.Logger

	now   func() time.Time
	newID func() string
}

func NewLog(st store.Store, log *zap.Logger) *Log {
	return &Log{
		Store: st,
		Log:   log,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// SendDirect appends a direct message. Receiver existence is not
// checked here; the caller establishes who it is talking to.
func (l *Log) SendDirect(sender, receiver, content string) (*models.Message, error) {
	return l.append(&models.Message{
		ID:       l.newID(),
		Sender:   sender,
		Receiver: receiver,
		Content:  content,
		SentAt:   l.now(),
		IsGroup:  false,
	})
}

// SendGroup appends a group message. A message to a group deleted
// concurrently is silently orphaned rather than rejected.
func (l *Log) SendGroup(sender, groupID, content string) (*models.Message, error) {
	return l.append(&models.Message{
		ID:       l.newID(),
		Sender:   sender,
		Receiver: groupID,
		Content:  content,
		SentAt:   l.now(),
		IsGroup:  true,
	})
}

func (l *Log) append(m *models.Message) (*models.Message, error) {
	messages, err := l.Store.LoadMessages()
	if err != nil {
		return nil, err
	}
	messages = append(messages, m)
	if err := l.Store.SaveMessages(messages); err != nil {
		return nil, err
	}
	return m, nil
}

// Between returns the direct messages exchanged between two users, in
// either direction, ordered by send time (stable for ties).
func (l *Log) Between(a, b string) ([]*models.Message, error) {
	messages, err := l.Store.LoadMessages()
	if err != nil {
		return nil, err
	}

	conversation := []*models.Message{}
	for _, m := range messages {
		if m.IsGroup {
			continue
		}
		if (m.Sender == a && m.Receiver == b) || (m.Sender == b && m.Receiver == a) {
			conversation = append(conversation, m)
		}
	}
	sortByTime(conversation)
	return conversation, nil
}

// GroupMessages returns the messages addressed to a group, ordered by
// send time (stable for ties).
func (l *Log) GroupMessages(groupID string) ([]*models.Message, error) {
	messages, err := l.Store.LoadMessages()
	if err != nil {
		return nil, err
	}

	groupMessages := []*models.Message{}
	for _, m := range messages {
		if m.IsGroup && m.Receiver == groupID {
			groupMessages = append(groupMessages, m)
		}
	}
	sortByTime(groupMessages)
	return groupMessages, nil
}

// DeleteUserMessages scrubs a deleted user from the log: everything
// they sent, plus direct messages addressed to them. Group messages
// addressed to groups they merely belong to are left alone.
func (l *Log) DeleteUserMessages(username string) error {
	messages, err := l.Store.LoadMessages()
	if err != nil {
		return err
	}

	remaining := messages[:0]
	for _, m := range messages {
		if m.Sender == username || (!m.IsGroup && m.Receiver == username) {
			continue
		}
		remaining = append(remaining, m)
	}
	if err := l.Store.SaveMessages(remaining); err != nil {
		return err
	}

	l.Log.Info("user messages deleted",
		zap.String("username", username),
		zap.Int("removed", len(messages)-len(remaining)))
	return nil
}

// DeleteGroupMessages removes every message addressed to a group.
func (l *Log) DeleteGroupMessages(groupID string) error {
	messages, err := l.Store.LoadMessages()
	if err != nil {
		return err
	}

	remaining := messages[:0]
	for _, m := range messages {
		if m.IsGroup && m.Receiver == groupID {
			continue
		}
		remaining = append(remaining, m)
	}
	if err := l.Store.SaveMessages(remaining); err != nil {
		return err
	}

	l.Log.Info("group messages deleted",
		zap.String("group_id", groupID),
		zap.Int("removed", len(messages)-len(remaining)))
	return nil
}

func sortByTime(messages []*models.Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].SentAt.Before(messages[j].SentAt)
	})
}
