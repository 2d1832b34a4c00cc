package sqlstore

import (
	"testing"
	"time"

	"github.com/pliu/termchat/internal/models"
)

func TestSaveAndLoadUsers(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()

	alice := models.NewUser("alice", "secret1")
	alice.AddGroup("g1")
	alice.AddGroup("g2")
	alice.AddContact("bob")
	alice.TouchLastRead("bob", time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	alice.TouchLastReadGroup("g1", time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC))
	bob := models.NewUser("bob", "secret2")

	users := map[string]*models.User{"alice": alice, "bob": bob}
	if err := testStore.SaveUsers(users); err != nil {
		t.Fatalf("SaveUsers failed: %v", err)
	}

	loaded, err := testStore.LoadUsers()
	if err != nil {
		t.Fatalf("LoadUsers failed: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("Expected 2 users, got %d", len(loaded))
	}

	got := loaded["alice"]
	if got.Password != "secret1" {
		t.Errorf("Expected password 'secret1', got %q", got.Password)
	}
	if len(got.GroupIDs) != 2 || got.GroupIDs[0] != "g1" || got.GroupIDs[1] != "g2" {
		t.Errorf("Expected group ids [g1 g2] in order, got %v", got.GroupIDs)
	}
	if !got.Contacts["bob"] {
		t.Error("Expected bob in alice's contacts")
	}
	if cursor, ok := got.LastRead("bob"); !ok || !cursor.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected direct read cursor to round-trip, got %v (%v)", cursor, ok)
	}
	if cursor, ok := got.LastReadGroup("g1"); !ok || !cursor.Equal(time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)) {
		t.Errorf("Expected group read cursor to round-trip, got %v (%v)", cursor, ok)
	}
}

func TestSaveUsersReplacesCollection(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()

	users := map[string]*models.User{"alice": models.NewUser("alice", "pw1234")}
	if err := testStore.SaveUsers(users); err != nil {
		t.Fatalf("SaveUsers failed: %v", err)
	}
	if err := testStore.SaveUsers(map[string]*models.User{"bob": models.NewUser("bob", "pw1234")}); err != nil {
		t.Fatalf("SaveUsers failed: %v", err)
	}

	loaded, err := testStore.LoadUsers()
	if err != nil {
		t.Fatalf("LoadUsers failed: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("Expected 1 user after replace, got %d", len(loaded))
	}
	if _, ok := loaded["alice"]; ok {
		t.Error("Expected alice to be gone after replacing the collection")
	}
}

func TestSaveAndLoadGroups(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()

	created := time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC)
	group := models.NewGroup("g1", "Book Club", "alice", created)
	group.AddMember("bob")
	group.AddJoinRequest(&models.JoinRequest{
		ID: "r1", GroupID: "g1", RequestorUsername: "carol",
		RequestedAt: created.Add(time.Hour),
	})
	group.AddJoinRequest(&models.JoinRequest{
		ID: "r2", GroupID: "g1", RequestorUsername: "dave",
		RequestedAt: created.Add(2 * time.Hour),
	})

	if err := testStore.SaveGroups(map[string]*models.Group{"g1": group}); err != nil {
		t.Fatalf("SaveGroups failed: %v", err)
	}

	loaded, err := testStore.LoadGroups()
	if err != nil {
		t.Fatalf("LoadGroups failed: %v", err)
	}
	got, ok := loaded["g1"]
	if !ok {
		t.Fatal("Expected group g1 to load")
	}
	if got.Name != "Book Club" || got.AdminUsername != "alice" {
		t.Errorf("Expected name/admin to round-trip, got %q/%q", got.Name, got.AdminUsername)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("Expected creation time %v, got %v", created, got.CreatedAt)
	}
	if !got.IsMember("alice") || !got.IsMember("bob") {
		t.Errorf("Expected members alice and bob, got %v", got.Members)
	}
	if len(got.PendingRequests) != 2 {
		t.Fatalf("Expected 2 pending requests, got %d", len(got.PendingRequests))
	}
	if got.PendingRequests[0].RequestorUsername != "carol" || got.PendingRequests[1].RequestorUsername != "dave" {
		t.Error("Expected pending requests to keep their order")
	}
}

func TestSaveAndLoadMessages(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()

	at := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	messages := []*models.Message{
		{ID: "m1", Sender: "alice", Receiver: "bob", Content: "hi", SentAt: at, IsGroup: false},
		{ID: "m2", Sender: "bob", Receiver: "g1", Content: "yo", SentAt: at, IsGroup: true},
	}
	if err := testStore.SaveMessages(messages); err != nil {
		t.Fatalf("SaveMessages failed: %v", err)
	}

	loaded, err := testStore.LoadMessages()
	if err != nil {
		t.Fatalf("LoadMessages failed: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(loaded))
	}
	if loaded[0].ID != "m1" || loaded[1].ID != "m2" {
		t.Error("Expected messages to keep insertion order")
	}
	if !loaded[1].IsGroup {
		t.Error("Expected m2 to be a group message")
	}
	if !loaded[0].SentAt.Equal(at) {
		t.Errorf("Expected send time %v, got %v", at, loaded[0].SentAt)
	}
}
