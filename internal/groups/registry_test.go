package groups

import (
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/pliu/termchat/internal/directory"
	"github.com/pliu/termchat/internal/models"
	"github.com/pliu/termchat/internal/store/memstore"
)

func newTestRegistry(t *testing.T, usernames ...string) (*Registry, *directory.Directory) {
	st := memstore.New()
	users := directory.New(st, zap.NewNop())
	for _, name := range usernames {
		ok, err := users.Register(name, "pw1234")
		if err != nil || !ok {
			t.Fatalf("Failed to register %s: %v", name, err)
		}
	}
	return New(st, users, zap.NewNop()), users
}

func TestCreate(t *testing.T) {
	reg, users := newTestRegistry(t, "alice")

	group, err := reg.Create("Book Club", "alice")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if group.ID == "" {
		t.Error("Expected a generated group id")
	}
	if !group.IsAdmin("alice") || !group.IsMember("alice") {
		t.Error("Expected alice to be admin and member")
	}
	if len(group.Members) != 1 {
		t.Errorf("Expected 1 member, got %d", len(group.Members))
	}

	alice, _ := users.UserByUsername("alice")
	if len(alice.GroupIDs) != 1 || alice.GroupIDs[0] != group.ID {
		t.Errorf("Expected group id in alice's list, got %v", alice.GroupIDs)
	}
}

func TestByID(t *testing.T) {
	reg, _ := newTestRegistry(t, "alice")
	group, _ := reg.Create("Book Club", "alice")

	got, err := reg.ByID(group.ID)
	if err != nil {
		t.Fatalf("ByID failed: %v", err)
	}
	if got.Name != "Book Club" {
		t.Errorf("Expected 'Book Club', got %q", got.Name)
	}

	if _, err := reg.ByID("missing"); !errors.Is(err, models.ErrGroupNotFound) {
		t.Errorf("Expected ErrGroupNotFound, got %v", err)
	}
}

func TestJoinRequestWorkflow(t *testing.T) {
	reg, _ := newTestRegistry(t, "alice", "bob")
	group, _ := reg.Create("Book Club", "alice")

	ok, err := reg.RequestJoin(group.ID, "bob")
	if err != nil {
		t.Fatalf("RequestJoin failed: %v", err)
	}
	if !ok {
		t.Error("Expected first request to succeed")
	}

	// Second request while one is pending.
	ok, _ = reg.RequestJoin(group.ID, "bob")
	if ok {
		t.Error("Expected duplicate request to return false")
	}

	// Admin requesting own group.
	ok, _ = reg.RequestJoin(group.ID, "alice")
	if ok {
		t.Error("Expected member request to return false")
	}

	if _, err := reg.RequestJoin("missing", "bob"); !errors.Is(err, models.ErrGroupNotFound) {
		t.Errorf("Expected ErrGroupNotFound, got %v", err)
	}
}

func TestAcceptRequest(t *testing.T) {
	reg, users := newTestRegistry(t, "alice", "bob")
	group, _ := reg.Create("Book Club", "alice")
	reg.RequestJoin(group.ID, "bob")

	// Non-admin cannot accept.
	ok, err := reg.AcceptRequest(group.ID, "bob", "bob")
	if err != nil {
		t.Fatalf("AcceptRequest failed: %v", err)
	}
	if ok {
		t.Error("Expected non-admin accept to return false")
	}

	ok, err = reg.AcceptRequest(group.ID, "bob", "alice")
	if err != nil {
		t.Fatalf("AcceptRequest failed: %v", err)
	}
	if !ok {
		t.Error("Expected admin accept to succeed")
	}

	updated, _ := reg.ByID(group.ID)
	if !updated.IsMember("bob") {
		t.Error("Expected bob to be a member after accept")
	}
	if updated.HasPendingRequest("bob") {
		t.Error("Expected the request to be removed after accept")
	}

	bob, _ := users.UserByUsername("bob")
	if len(bob.GroupIDs) != 1 || bob.GroupIDs[0] != group.ID {
		t.Errorf("Expected group id in bob's list, got %v", bob.GroupIDs)
	}

	// No request pending anymore.
	ok, _ = reg.AcceptRequest(group.ID, "bob", "alice")
	if ok {
		t.Error("Expected accept without a pending request to return false")
	}
}

func TestRejectRequest(t *testing.T) {
	reg, _ := newTestRegistry(t, "alice", "bob")
	group, _ := reg.Create("Book Club", "alice")
	reg.RequestJoin(group.ID, "bob")

	ok, err := reg.RejectRequest(group.ID, "bob", "alice")
	if err != nil {
		t.Fatalf("RejectRequest failed: %v", err)
	}
	if !ok {
		t.Error("Expected reject to succeed")
	}

	updated, _ := reg.ByID(group.ID)
	if updated.HasPendingRequest("bob") {
		t.Error("Expected the request to be removed")
	}
	if updated.IsMember("bob") {
		t.Error("Expected reject to leave membership unchanged")
	}

	// Rejected requestor can request again.
	ok, _ = reg.RequestJoin(group.ID, "bob")
	if !ok {
		t.Error("Expected a fresh request after rejection to succeed")
	}
}

func TestRemoveMember(t *testing.T) {
	reg, users := newTestRegistry(t, "alice", "bob")
	group, _ := reg.Create("Book Club", "alice")
	reg.RequestJoin(group.ID, "bob")
	reg.AcceptRequest(group.ID, "bob", "alice")

	// Admin cannot be removed, not even by themselves.
	ok, err := reg.RemoveMember(group.ID, "alice", "alice")
	if err != nil {
		t.Fatalf("RemoveMember failed: %v", err)
	}
	if ok {
		t.Error("Expected removing the admin to return false")
	}

	// Only the admin removes.
	ok, _ = reg.RemoveMember(group.ID, "bob", "bob")
	if ok {
		t.Error("Expected non-admin removal to return false")
	}

	ok, _ = reg.RemoveMember(group.ID, "bob", "alice")
	if !ok {
		t.Error("Expected admin removal to succeed")
	}

	updated, _ := reg.ByID(group.ID)
	if updated.IsMember("bob") {
		t.Error("Expected bob to be gone")
	}
	if !updated.IsMember("alice") {
		t.Error("Expected admin to remain a member")
	}

	bob, _ := users.UserByUsername("bob")
	if len(bob.GroupIDs) != 0 {
		t.Errorf("Expected bob's group list to be empty, got %v", bob.GroupIDs)
	}

	// bob is no longer a member.
	ok, _ = reg.RemoveMember(group.ID, "bob", "alice")
	if ok {
		t.Error("Expected removing a non-member to return false")
	}
}

func TestLeave(t *testing.T) {
	reg, users := newTestRegistry(t, "alice", "bob")
	group, _ := reg.Create("Book Club", "alice")
	reg.RequestJoin(group.ID, "bob")
	reg.AcceptRequest(group.ID, "bob", "alice")

	ok, err := reg.Leave(group.ID, "alice")
	if err != nil {
		t.Fatalf("Leave failed: %v", err)
	}
	if ok {
		t.Error("Expected the admin to be unable to leave")
	}

	ok, _ = reg.Leave(group.ID, "bob")
	if !ok {
		t.Error("Expected bob to leave")
	}

	updated, _ := reg.ByID(group.ID)
	if updated.IsMember("bob") {
		t.Error("Expected bob to be gone after leaving")
	}
	bob, _ := users.UserByUsername("bob")
	if len(bob.GroupIDs) != 0 {
		t.Errorf("Expected bob's group list to be empty, got %v", bob.GroupIDs)
	}
}

func TestDeleteCascades(t *testing.T) {
	reg, users := newTestRegistry(t, "alice", "bob", "carol")
	group, _ := reg.Create("Book Club", "alice")
	reg.RequestJoin(group.ID, "bob")
	reg.AcceptRequest(group.ID, "bob", "alice")
	reg.RequestJoin(group.ID, "carol")
	reg.AcceptRequest(group.ID, "carol", "alice")

	// Only the admin deletes.
	ok, err := reg.Delete(group.ID, "bob")
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if ok {
		t.Error("Expected non-admin delete to return false")
	}

	ok, _ = reg.Delete(group.ID, "alice")
	if !ok {
		t.Error("Expected admin delete to succeed")
	}

	if _, err := reg.ByID(group.ID); !errors.Is(err, models.ErrGroupNotFound) {
		t.Errorf("Expected ErrGroupNotFound after delete, got %v", err)
	}

	for _, name := range []string{"alice", "bob", "carol"} {
		user, _ := users.UserByUsername(name)
		if len(user.GroupIDs) != 0 {
			t.Errorf("Expected %s's group list to be empty, got %v", name, user.GroupIDs)
		}
		memberGroups, _ := reg.UserGroups(name)
		if len(memberGroups) != 0 {
			t.Errorf("Expected UserGroups(%s) to be empty, got %d", name, len(memberGroups))
		}
	}
}

func TestUserGroupsDropsStaleIDs(t *testing.T) {
	reg, users := newTestRegistry(t, "alice")
	group, _ := reg.Create("Book Club", "alice")

	alice, _ := users.UserByUsername("alice")
	alice.AddGroup("stale-id")
	users.SaveUser(alice)

	got, err := reg.UserGroups("alice")
	if err != nil {
		t.Fatalf("UserGroups failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != group.ID {
		t.Errorf("Expected only the live group, got %d groups", len(got))
	}

	// Unknown users resolve to an empty list.
	got, err = reg.UserGroups("nobody")
	if err != nil {
		t.Fatalf("UserGroups failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Expected no groups for an unknown user, got %d", len(got))
	}
}

func TestSearch(t *testing.T) {
	reg, _ := newTestRegistry(t, "alice")
	reg.Create("Book Club", "alice")
	reg.Create("Chess Club", "alice")
	reg.Create("Hiking", "alice")

	matches, err := reg.Search("club")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 2 {
		t.Errorf("Expected 2 matches for 'club', got %d", len(matches))
	}
}

func TestPendingRequests(t *testing.T) {
	reg, _ := newTestRegistry(t, "alice", "bob")
	group, _ := reg.Create("Book Club", "alice")
	reg.RequestJoin(group.ID, "bob")

	// Non-admin gets an empty list, not an error.
	requests, err := reg.PendingRequests(group.ID, "bob")
	if err != nil {
		t.Fatalf("PendingRequests failed: %v", err)
	}
	if len(requests) != 0 {
		t.Errorf("Expected empty list for non-admin, got %d", len(requests))
	}

	requests, err = reg.PendingRequests(group.ID, "alice")
	if err != nil {
		t.Fatalf("PendingRequests failed: %v", err)
	}
	if len(requests) != 1 || requests[0].RequestorUsername != "bob" {
		t.Errorf("Expected bob's pending request, got %v", requests)
	}
}
