package sqlstore

import (
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

var testStore *SQLStore

func SetupTestDB(t *testing.T) {
	var err error
	testStore, err = New("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// A pooled second connection would get its own empty :memory: DB.
	testStore.db.SetMaxOpenConns(1)
}

func TeardownTestDB() {
	testStore.db.Close()
}

func TestLoadEmptyCollections(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()

	users, err := testStore.LoadUsers()
	if err != nil {
		t.Fatalf("LoadUsers failed: %v", err)
	}
	if len(users) != 0 {
		t.Errorf("Expected 0 users on first run, got %d", len(users))
	}

	groups, err := testStore.LoadGroups()
	if err != nil {
		t.Fatalf("LoadGroups failed: %v", err)
	}
	if len(groups) != 0 {
		t.Errorf("Expected 0 groups on first run, got %d", len(groups))
	}

	messages, err := testStore.LoadMessages()
	if err != nil {
		t.Fatalf("LoadMessages failed: %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("Expected 0 messages on first run, got %d", len(messages))
	}
}

func TestRebind(t *testing.T) {
	s := &SQLStore{driverName: "postgres"}
	got := s.rebind("INSERT INTO users (username, password) VALUES (?, ?)")
	want := "INSERT INTO users (username, password) VALUES ($1, $2)"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}

	s = &SQLStore{driverName: "sqlite3"}
	query := "SELECT * FROM users WHERE username = ?"
	if s.rebind(query) != query {
		t.Error("Expected sqlite3 query to be left untouched")
	}
}
