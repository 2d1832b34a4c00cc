package models

import "time"

type User struct {
	Username string `json:"username"`
	Password string `json:"password"`
	// GroupIDs keeps join order; Contacts is a set keyed by username.
	GroupIDs           []string             `json:"group_ids"`
	Contacts           map[string]bool      `json:"contacts"`
	LastReadTimes      map[string]time.Time `json:"last_read_times"`
	LastReadGroupTimes map[string]time.Time `json:"last_read_group_times"`
}

func NewUser(username, password string) *User {
	return &User{
		Username:           username,
		Password:           password,
		GroupIDs:           []string{},
		Contacts:           map[string]bool{},
		LastReadTimes:      map[string]time.Time{},
		LastReadGroupTimes: map[string]time.Time{},
	}
}

func (u *User) PasswordMatches(attempt string) bool {
	return u.Password == attempt
}

func (u *User) AddGroup(groupID string) {
	for _, id := range u.GroupIDs {
		if id == groupID {
			return
		}
	}
	u.GroupIDs = append(u.GroupIDs, groupID)
}

func (u *User) RemoveGroup(groupID string) {
	for i, id := range u.GroupIDs {
		if id == groupID {
			u.GroupIDs = append(u.GroupIDs[:i], u.GroupIDs[i+1:]...)
			return
		}
	}
}

func (u *User) AddContact(username string) {
	if u.Contacts == nil {
		u.Contacts = map[string]bool{}
	}
	u.Contacts[username] = true
}

// LastRead returns the read cursor for the direct conversation with peer.
// The second return is false when the conversation has never been opened.
func (u *User) LastRead(peer string) (time.Time, bool) {
	t, ok := u.LastReadTimes[peer]
	return t, ok
}

func (u *User) TouchLastRead(peer string, now time.Time) {
	if u.LastReadTimes == nil {
		u.LastReadTimes = map[string]time.Time{}
	}
	u.LastReadTimes[peer] = now
}

func (u *User) LastReadGroup(groupID string) (time.Time, bool) {
	t, ok := u.LastReadGroupTimes[groupID]
	return t, ok
}

func (u *User) TouchLastReadGroup(groupID string, now time.Time) {
	if u.LastReadGroupTimes == nil {
		u.LastReadGroupTimes = map[string]time.Time{}
	}
	u.LastReadGroupTimes[groupID] = now
}

type Group struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	AdminUsername   string          `json:"admin_username"`
	Members         map[string]bool `json:"members"`
	PendingRequests []*JoinRequest  `json:"pending_requests"`
	CreatedAt       time.Time       `json:"created_at"`
}

// NewGroup constructs a group with the admin as its sole member.
func NewGroup(id, name, adminUsername string, now time.Time) *Group {
	return &Group{
		ID:              id,
		Name:            name,
		AdminUsername:   adminUsername,
		Members:         map[string]bool{adminUsername: true},
		PendingRequests: []*JoinRequest{},
		CreatedAt:       now,
	}
}

func (g *Group) IsMember(username string) bool {
	return g.Members[username]
}

func (g *Group) IsAdmin(username string) bool {
	return g.AdminUsername == username
}

func (g *Group) AddMember(username string) {
	if g.Members == nil {
		g.Members = map[string]bool{}
	}
	g.Members[username] = true
}

// RemoveMember drops a member. The admin can never be removed.
func (g *Group) RemoveMember(username string) {
	if g.IsAdmin(username) {
		return
	}
	delete(g.Members, username)
}

func (g *Group) HasPendingRequest(username string) bool {
	for _, r := range g.PendingRequests {
		if r.RequestorUsername == username {
			return true
		}
	}
	return false
}

// AddJoinRequest appends a request unless the requestor is already a
// member or already has one pending.
func (g *Group) AddJoinRequest(r *JoinRequest) {
	if g.IsMember(r.RequestorUsername) || g.HasPendingRequest(r.RequestorUsername) {
		return
	}
	g.PendingRequests = append(g.PendingRequests, r)
}

func (g *Group) RemoveJoinRequest(username string) {
	kept := g.PendingRequests[:0]
	for _, r := range g.PendingRequests {
		if r.RequestorUsername != username {
			kept = append(kept, r)
		}
	}
	g.PendingRequests = kept
}

type JoinRequest struct {
	ID                string    `json:"id"`
	GroupID           string    `json:"group_id"`
	RequestorUsername string    `json:"requestor_username"`
	RequestedAt       time.Time `json:"requested_at"`
}

type Message struct {
	ID     string `json:"id"`
	Sender string `json:"sender"`
	// Receiver is a username for direct messages, a group id otherwise.
	Receiver string    `json:"receiver"`
	Content  string    `json:"content"`
	SentAt   time.Time `json:"sent_at"`
	IsGroup  bool      `json:"is_group"`
}

// FormattedTime renders the send time for display.
func (m *Message) FormattedTime() string {
	return m.SentAt.Format("2006-01-02 15:04:05")
}
