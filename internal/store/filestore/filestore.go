// Package filestore persists each collection as a JSON file in a data
// directory. A missing file means an empty collection (first run); a
// save rewrites the whole file.
package filestore

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pliu/termchat/internal/models"
)

const (
	usersFile    = "users.json"
	groupsFile   = "groups.json"
	messagesFile = "messages.json"
)

type FileStore struct {
	dir string
}

func New(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) load(name string, v any) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return json.Unmarshal(data, v)
}

// save writes to a temp file and renames it into place so a crash
// mid-write cannot truncate the collection.
func (s *FileStore) save(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := filepath.Join(s.dir, name+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, filepath.Join(s.dir, name))
}

func (s *FileStore) LoadUsers() (map[string]*models.User, error) {
	users := map[string]*models.User{}
	if err := s.load(usersFile, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *FileStore) SaveUsers(users map[string]*models.User) error {
	return s.save(usersFile, users)
}

func (s *FileStore) LoadGroups() (map[string]*models.Group, error) {
	groups := map[string]*models.Group{}
	if err := s.load(groupsFile, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

func (s *FileStore) SaveGroups(groups map[string]*models.Group) error {
	return s.save(groupsFile, groups)
}

func (s *FileStore) LoadMessages() ([]*models.Message, error) {
	messages := []*models.Message{}
	if err := s.load(messagesFile, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (s *FileStore) SaveMessages(messages []*models.Message) error {
	return s.save(messagesFile, messages)
}
