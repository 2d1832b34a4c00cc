// Package sqlstore persists the collections in a SQL database. It
// supports sqlite3 and postgres through the same statements, switching
// DDL and placeholders per driver. Saves keep the whole-collection
// replace contract: one transaction deletes the collection's rows and
// re-inserts the snapshot.
package sqlstore

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"           // Postgres driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/pliu/termchat/internal/models"
)

type SQLStore struct {
	db         *sql.DB
	driverName string
}

func New(driverName, dataSourceName string) (*SQLStore, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLStore{db: db, driverName: driverName}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) createTables() error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		username TEXT PRIMARY KEY,
		password TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS user_groups (
		username TEXT NOT NULL,
		group_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (username, group_id)
	);

	CREATE TABLE IF NOT EXISTS user_contacts (
		username TEXT NOT NULL,
		contact TEXT NOT NULL,
		PRIMARY KEY (username, contact)
	);

	CREATE TABLE IF NOT EXISTS user_read_times (
		username TEXT NOT NULL,
		peer TEXT NOT NULL,
		read_at DATETIME NOT NULL,
		PRIMARY KEY (username, peer)
	);

	CREATE TABLE IF NOT EXISTS user_group_read_times (
		username TEXT NOT NULL,
		group_id TEXT NOT NULL,
		read_at DATETIME NOT NULL,
		PRIMARY KEY (username, group_id)
	);

	CREATE TABLE IF NOT EXISTS chat_groups (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		admin_username TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS group_members (
		group_id TEXT NOT NULL,
		username TEXT NOT NULL,
		PRIMARY KEY (group_id, username)
	);

	CREATE TABLE IF NOT EXISTS join_requests (
		id TEXT PRIMARY KEY,
		group_id TEXT NOT NULL,
		requestor_username TEXT NOT NULL,
		requested_at DATETIME NOT NULL,
		position INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		sender TEXT NOT NULL,
		receiver TEXT NOT NULL,
		content TEXT NOT NULL,
		sent_at DATETIME NOT NULL,
		is_group BOOLEAN NOT NULL,
		position INTEGER NOT NULL
	);
	`

	if s.driverName == "postgres" {
		// Adjust for Postgres syntax
		query = strings.ReplaceAll(query, "DATETIME", "TIMESTAMP")
	}

	_, err := s.db.Exec(query)
	return err
}

// Helper to handle placeholders
func (s *SQLStore) rebind(query string) string {
	if s.driverName == "postgres" {
		// Replace ? with $1, $2, etc.
		n := strings.Count(query, "?")
		for i := 1; i <= n; i++ {
			query = strings.Replace(query, "?", fmt.Sprintf("$%d", i), 1)
		}
	}
	return query
}

func (s *SQLStore) LoadUsers() (map[string]*models.User, error) {
	users := map[string]*models.User{}

	rows, err := s.db.Query("SELECT username, password FROM users")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var username, password string
		if err := rows.Scan(&username, &password); err != nil {
			return nil, err
		}
		users[username] = models.NewUser(username, password)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	groupRows, err := s.db.Query("SELECT username, group_id FROM user_groups ORDER BY username, position")
	if err != nil {
		return nil, err
	}
	defer groupRows.Close()
	for groupRows.Next() {
		var username, groupID string
		if err := groupRows.Scan(&username, &groupID); err != nil {
			return nil, err
		}
		if u, ok := users[username]; ok {
			u.GroupIDs = append(u.GroupIDs, groupID)
		}
	}
	if err := groupRows.Err(); err != nil {
		return nil, err
	}

	contactRows, err := s.db.Query("SELECT username, contact FROM user_contacts")
	if err != nil {
		return nil, err
	}
	defer contactRows.Close()
	for contactRows.Next() {
		var username, contact string
		if err := contactRows.Scan(&username, &contact); err != nil {
			return nil, err
		}
		if u, ok := users[username]; ok {
			u.Contacts[contact] = true
		}
	}
	if err := contactRows.Err(); err != nil {
		return nil, err
	}

	readRows, err := s.db.Query("SELECT username, peer, read_at FROM user_read_times")
	if err != nil {
		return nil, err
	}
	defer readRows.Close()
	for readRows.Next() {
		var username, peer string
		var readAt sql.NullTime
		if err := readRows.Scan(&username, &peer, &readAt); err != nil {
			return nil, err
		}
		if u, ok := users[username]; ok && readAt.Valid {
			u.LastReadTimes[peer] = readAt.Time
		}
	}
	if err := readRows.Err(); err != nil {
		return nil, err
	}

	groupReadRows, err := s.db.Query("SELECT username, group_id, read_at FROM user_group_read_times")
	if err != nil {
		return nil, err
	}
	defer groupReadRows.Close()
	for groupReadRows.Next() {
		var username, groupID string
		var readAt sql.NullTime
		if err := groupReadRows.Scan(&username, &groupID, &readAt); err != nil {
			return nil, err
		}
		if u, ok := users[username]; ok && readAt.Valid {
			u.LastReadGroupTimes[groupID] = readAt.Time
		}
	}
	if err := groupReadRows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

func (s *SQLStore) SaveUsers(users map[string]*models.User) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"users", "user_groups", "user_contacts", "user_read_times", "user_group_read_times"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return err
		}
	}

	for _, u := range users {
		if _, err := tx.Exec(s.rebind("INSERT INTO users (username, password) VALUES (?, ?)"), u.Username, u.Password); err != nil {
			return err
		}
		for i, groupID := range u.GroupIDs {
			if _, err := tx.Exec(s.rebind("INSERT INTO user_groups (username, group_id, position) VALUES (?, ?, ?)"), u.Username, groupID, i); err != nil {
				return err
			}
		}
		for contact := range u.Contacts {
			if _, err := tx.Exec(s.rebind("INSERT INTO user_contacts (username, contact) VALUES (?, ?)"), u.Username, contact); err != nil {
				return err
			}
		}
		for peer, readAt := range u.LastReadTimes {
			if _, err := tx.Exec(s.rebind("INSERT INTO user_read_times (username, peer, read_at) VALUES (?, ?, ?)"), u.Username, peer, readAt); err != nil {
				return err
			}
		}
		for groupID, readAt := range u.LastReadGroupTimes {
			if _, err := tx.Exec(s.rebind("INSERT INTO user_group_read_times (username, group_id, read_at) VALUES (?, ?, ?)"), u.Username, groupID, readAt); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

func (s *SQLStore) LoadGroups() (map[string]*models.Group, error) {
	groups := map[string]*models.Group{}

	rows, err := s.db.Query("SELECT id, name, admin_username, created_at FROM chat_groups")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		g := &models.Group{
			Members:         map[string]bool{},
			PendingRequests: []*models.JoinRequest{},
		}
		if err := rows.Scan(&g.ID, &g.Name, &g.AdminUsername, &g.CreatedAt); err != nil {
			return nil, err
		}
		groups[g.ID] = g
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	memberRows, err := s.db.Query("SELECT group_id, username FROM group_members")
	if err != nil {
		return nil, err
	}
	defer memberRows.Close()
	for memberRows.Next() {
		var groupID, username string
		if err := memberRows.Scan(&groupID, &username); err != nil {
			return nil, err
		}
		if g, ok := groups[groupID]; ok {
			g.Members[username] = true
		}
	}
	if err := memberRows.Err(); err != nil {
		return nil, err
	}

	requestRows, err := s.db.Query("SELECT id, group_id, requestor_username, requested_at FROM join_requests ORDER BY group_id, position")
	if err != nil {
		return nil, err
	}
	defer requestRows.Close()
	for requestRows.Next() {
		r := &models.JoinRequest{}
		if err := requestRows.Scan(&r.ID, &r.GroupID, &r.RequestorUsername, &r.RequestedAt); err != nil {
			return nil, err
		}
		if g, ok := groups[r.GroupID]; ok {
			g.PendingRequests = append(g.PendingRequests, r)
		}
	}
	if err := requestRows.Err(); err != nil {
		return nil, err
	}

	return groups, nil
}

func (s *SQLStore) SaveGroups(groups map[string]*models.Group) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"chat_groups", "group_members", "join_requests"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return err
		}
	}

	for _, g := range groups {
		if _, err := tx.Exec(s.rebind("INSERT INTO chat_groups (id, name, admin_username, created_at) VALUES (?, ?, ?, ?)"), g.ID, g.Name, g.AdminUsername, g.CreatedAt); err != nil {
			return err
		}
		for member := range g.Members {
			if _, err := tx.Exec(s.rebind("INSERT INTO group_members (group_id, username) VALUES (?, ?)"), g.ID, member); err != nil {
				return err
			}
		}
		for i, r := range g.PendingRequests {
			if _, err := tx.Exec(s.rebind("INSERT INTO join_requests (id, group_id, requestor_username, requested_at, position) VALUES (?, ?, ?, ?, ?)"), r.ID, r.GroupID, r.RequestorUsername, r.RequestedAt, i); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

func (s *SQLStore) LoadMessages() ([]*models.Message, error) {
	rows, err := s.db.Query("SELECT id, sender, receiver, content, sent_at, is_group FROM messages ORDER BY position")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		m := &models.Message{}
		if err := rows.Scan(&m.ID, &m.Sender, &m.Receiver, &m.Content, &m.SentAt, &m.IsGroup); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []*models.Message{}
	}
	return messages, nil
}

func (s *SQLStore) SaveMessages(messages []*models.Message) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM messages"); err != nil {
		return err
	}

	query := s.rebind("INSERT INTO messages (id, sender, receiver, content, sent_at, is_group, position) VALUES (?, ?, ?, ?, ?, ?, ?)")
	for i, m := range messages {
		if _, err := tx.Exec(query, m.ID, m.Sender, m.Receiver, m.Content, m.SentAt, m.IsGroup, i); err != nil {
			return err
		}
	}

	return tx.Commit()
}
