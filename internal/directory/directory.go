// Package directory owns user accounts: registration, authentication,
// contacts and read cursors. Identity is carried by an explicit Session
// handle returned from Login and threaded through every call; a nil or
// logged-out session behaves like "not logged in".
package directory

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pliu/termchat/internal/models"
	"github.com/pliu/termchat/internal/store"
)

// Session identifies the authenticated user for subsequent calls.
// It holds only the username; user records are always loaded fresh
// from the store so callers observe the latest persisted state.
type Session struct {
	username string
	active   bool
}

func (s *Session) LoggedIn() bool {
	return s != nil && s.active
}

// Username returns the authenticated username, or "" when logged out.
func (s *Session) Username() string {
	if !s.LoggedIn() {
		return ""
	}
	return s.username
}

type Directory struct {
	Store store.Store
	Log   *zap.Logger

	now func() time.Time
}

func New(st store.Store, log *zap.Logger) *Directory {
	return &Directory{Store: st, Log: log, now: time.Now}
}

// Register creates a new account. Returns false when the username is
// already taken.
func (d *Directory) Register(username, password string) (bool, error) {
	users, err := d.Store.LoadUsers()
	if err != nil {
		return false, err
	}
	if _, exists := users[username]; exists {
		return false, nil
	}

	users[username] = models.NewUser(username, password)
	if err := d.Store.SaveUsers(users); err != nil {
		return false, err
	}
	d.Log.Info("user registered", zap.String("username", username))
	return true, nil
}

// Login authenticates and returns a session handle. Fails with
// models.ErrUserNotFound for an unknown username and
// models.ErrAuthFailed for a wrong password.
func (d *Directory) Login(username, password string) (*Session, error) {
	users, err := d.Store.LoadUsers()
	if err != nil {
		return nil, err
	}

	user, ok := users[username]
	if !ok {
		return nil, fmt.Errorf("login %q: %w", username, models.ErrUserNotFound)
	}
	if !user.PasswordMatches(password) {
		return nil, fmt.Errorf("login %q: %w", username, models.ErrAuthFailed)
	}

	d.Log.Info("user logged in", zap.String("username", username))
	return &Session{username: username, active: true}, nil
}

// Logout invalidates the session. Idempotent; safe on nil.
func (d *Directory) Logout(s *Session) {
	if s == nil {
		return
	}
	if s.active {
		d.Log.Info("user logged out", zap.String("username", s.username))
	}
	s.active = false
}

// Current loads the session user's record fresh from the store.
// Returns nil without error when logged out or the account is gone.
func (d *Directory) Current(s *Session) (*models.User, error) {
	if !s.LoggedIn() {
		return nil, nil
	}
	return d.UserByUsername(s.username)
}

// SearchUsers matches usernames case-insensitively by substring,
// excluding the session user. Results are sorted ascending.
func (d *Directory) SearchUsers(s *Session, term string) ([]string, error) {
	users, err := d.Store.LoadUsers()
	if err != nil {
		return nil, err
	}

	term = strings.ToLower(term)
	var matches []string
	for username := range users {
		if username == s.Username() {
			continue
		}
		if strings.Contains(strings.ToLower(username), term) {
			matches = append(matches, username)
		}
	}
	sort.Strings(matches)
	return matches, nil
}

// AddContact records a peer in the session user's contact set. A
// logged-out session or the user's own name is a no-op.
func (d *Directory) AddContact(s *Session, contact string) error {
	if !s.LoggedIn() || s.Username() == contact {
		return nil
	}

	users, err := d.Store.LoadUsers()
	if err != nil {
		return err
	}
	user, ok := users[s.Username()]
	if !ok {
		return nil
	}
	user.AddContact(contact)
	return d.Store.SaveUsers(users)
}

// Contacts lists the session user's contacts, sorted ascending.
func (d *Directory) Contacts(s *Session) ([]string, error) {
	user, err := d.Current(s)
	if err != nil || user == nil {
		return nil, err
	}
	contacts := make([]string, 0, len(user.Contacts))
	for c := range user.Contacts {
		contacts = append(contacts, c)
	}
	sort.Strings(contacts)
	return contacts, nil
}

// DeleteAccount removes the session user and logs out. Returns false
// only when no user is logged in. Group membership and message
// cascades are the caller's responsibility.
func (d *Directory) DeleteAccount(s *Session) (bool, error) {
	if !s.LoggedIn() {
		return false, nil
	}

	users, err := d.Store.LoadUsers()
	if err != nil {
		return false, err
	}
	delete(users, s.Username())
	if err := d.Store.SaveUsers(users); err != nil {
		return false, err
	}

	d.Log.Info("account deleted", zap.String("username", s.username))
	d.Logout(s)
	return true, nil
}

// TouchLastRead stamps the session user's read cursor for a direct
// conversation with peer. Called on entering and leaving a chat view.
func (d *Directory) TouchLastRead(s *Session, peer string) error {
	return d.touch(s, func(u *models.User) {
		u.TouchLastRead(peer, d.now())
	})
}

// TouchLastReadGroup stamps the session user's read cursor for a group.
func (d *Directory) TouchLastReadGroup(s *Session, groupID string) error {
	return d.touch(s, func(u *models.User) {
		u.TouchLastReadGroup(groupID, d.now())
	})
}

func (d *Directory) touch(s *Session, update func(*models.User)) error {
	if !s.LoggedIn() {
		return nil
	}
	users, err := d.Store.LoadUsers()
	if err != nil {
		return err
	}
	user, ok := users[s.Username()]
	if !ok {
		return nil
	}
	update(user)
	return d.Store.SaveUsers(users)
}

// UserByUsername loads a user record, or nil when no such user exists.
func (d *Directory) UserByUsername(username string) (*models.User, error) {
	users, err := d.Store.LoadUsers()
	if err != nil {
		return nil, err
	}
	return users[username], nil
}

// SaveUser persists a possibly externally mutated user record.
func (d *Directory) SaveUser(user *models.User) error {
	users, err := d.Store.LoadUsers()
	if err != nil {
		return err
	}
	users[user.Username] = user
	return d.Store.SaveUsers(users)
}
