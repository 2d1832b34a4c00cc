package store

import "github.com/pliu/termchat/internal/models"

// Store persists the three entity collections. Loads return empty
// collections before the first save; saves fully replace whatever was
// persisted before. Services do their merging in memory between the
// load and the save.
type Store interface {
	// User collection
	LoadUsers() (map[string]*models.User, error)
	SaveUsers(users map[string]*models.User) error

	// Group collection
	LoadGroups() (map[string]*models.Group, error)
	SaveGroups(groups map[string]*models.Group) error

	// Message collection
	LoadMessages() ([]*models.Message, error)
	SaveMessages(messages []*models.Message) error
}
