// Package memstore keeps the collections as serialized snapshots in
// memory. Callers get a fresh copy on every load, so load/save
// boundaries behave the same as the durable backends. Used by the
// service tests and the throwaway "mem" backend.
package memstore

import (
	"encoding/json"

	"github.com/pliu/termchat/internal/models"
)

type MemStore struct {
	users    []byte
	groups   []byte
	messages []byte
}

func New() *MemStore {
	return &MemStore{}
}

func (s *MemStore) LoadUsers() (map[string]*models.User, error) {
	users := map[string]*models.User{}
	if s.users == nil {
		return users, nil
	}
	if err := json.Unmarshal(s.users, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *MemStore) SaveUsers(users map[string]*models.User) error {
	data, err := json.Marshal(users)
	if err != nil {
		return err
	}
	s.users = data
	return nil
}

func (s *MemStore) LoadGroups() (map[string]*models.Group, error) {
	groups := map[string]*models.Group{}
	if s.groups == nil {
		return groups, nil
	}
	if err := json.Unmarshal(s.groups, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

func (s *MemStore) SaveGroups(groups map[string]*models.Group) error {
	data, err := json.Marshal(groups)
	if err != nil {
		return err
	}
	s.groups = data
	return nil
}

func (s *MemStore) LoadMessages() ([]*models.Message, error) {
	messages := []*models.Message{}
	if s.messages == nil {
		return messages, nil
	}
	if err := json.Unmarshal(s.messages, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (s *MemStore) SaveMessages(messages []*models.Message) error {
	data, err := json.Marshal(messages)
	if err != nil {
		return err
	}
	s.messages = data
	return nil
}
