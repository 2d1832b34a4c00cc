// Package ui is the text-menu front end. It prompts, dispatches into
// the services and renders their results; all domain rules live below
// it.
package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pliu/termchat/internal/directory"
	"github.com/pliu/termchat/internal/groups"
	"github.com/pliu/termchat/internal/messaging"
	"github.com/pliu/termchat/internal/models"
	"github.com/pliu/termchat/internal/validate"
)

type Console struct {
	in  *bufio.Scanner
	out io.Writer

	Users    *directory.Directory
	Messages *messaging.Log
	Groups   *groups.Registry
	Unread   *messaging.UnreadTracker

	session *directory.Session
	running bool
}

func New(users *directory.Directory, messages *messaging.Log, registry *groups.Registry, unread *messaging.UnreadTracker) *Console {
	return &Console{
		in:       bufio.NewScanner(os.Stdin),
		out:      os.Stdout,
		Users:    users,
		Messages: messages,
		Groups:   registry,
		Unread:   unread,
	}
}

func (c *Console) Run() {
	c.running = true
	c.clear()
	c.say(header("WELCOME TO TERMCHAT"))
	c.say(mutedStyle.Render("A terminal-based chat application"))
	c.pause()

	for c.running {
		if c.session.LoggedIn() {
			c.mainMenu()
		} else {
			c.authMenu()
		}
	}
}

func (c *Console) say(line string) {
	fmt.Fprintln(c.out, line)
}

func (c *Console) sayErr(line string) {
	c.say(errorStyle.Render(line))
}

func (c *Console) prompt(p string) string {
	fmt.Fprint(c.out, promptStyle.Render(p)+" ")
	if !c.in.Scan() {
		c.running = false
		return ""
	}
	return strings.TrimSpace(c.in.Text())
}

func (c *Console) pause() {
	c.prompt("Press Enter to continue...")
}

func (c *Console) clear() {
	fmt.Fprint(c.out, "\x1b[2J\x1b[H")
}

// pick reads a 1-based list selection; 0 or bad input means "none".
func (c *Console) pick(max int) int {
	n, err := strconv.Atoi(c.prompt(""))
	if err != nil || n < 1 || n > max {
		return 0
	}
	return n
}

func (c *Console) authMenu() {
	c.clear()
	c.say(header("AUTHENTICATION"))
	c.say("1. Login")
	c.say("2. Register")
	c.say("3. Exit")

	switch c.prompt("Choose an option (1-3):") {
	case "1":
		c.login()
	case "2":
		c.register()
	case "3":
		c.say("Thanks for using termchat!")
		c.running = false
	default:
		c.sayErr("Invalid option. Please try again.")
		c.pause()
	}
}

func (c *Console) mainMenu() {
	c.clear()
	c.say(header("MAIN MENU"))
	c.say("Logged in as: " + c.session.Username())
	c.showUnread()
	c.say("1. Message a User")
	c.say("2. Group Management")
	c.say("3. View My Contacts")
	c.say("4. Account Settings")
	c.say("5. Logout")

	switch c.prompt("Choose an option (1-5):") {
	case "1":
		c.messagingMenu()
	case "2":
		c.groupMenu()
	case "3":
		c.viewContacts()
	case "4":
		c.accountMenu()
	case "5":
		c.Users.Logout(c.session)
		c.session = nil
		c.say("You have been logged out.")
		c.pause()
	default:
		c.sayErr("Invalid option. Please try again.")
		c.pause()
	}
}

func (c *Console) login() {
	c.clear()
	c.say(header("LOGIN"))
	username := c.prompt("Enter username:")
	password := c.prompt("Enter password:")

	session, err := c.Users.Login(username, password)
	switch {
	case err == nil:
		c.session = session
		c.say(successStyle.Render("Login successful!"))
	case errors.Is(err, models.ErrUserNotFound), errors.Is(err, models.ErrAuthFailed):
		c.sayErr("Error: " + err.Error())
	default:
		c.sayErr("Login failed: " + err.Error())
	}
	c.pause()
}

func (c *Console) register() {
	c.clear()
	c.say(header("REGISTER"))

	username := c.prompt("Enter username (3-20 characters):")
	if !validate.Username(username) {
		c.sayErr("Error: Username must be 3-20 characters and contain only letters, numbers, and underscores.")
		c.pause()
		return
	}

	password := c.prompt("Enter password (6+ characters):")
	confirm := c.prompt("Confirm password:")
	if !validate.Password(password) {
		c.sayErr("Error: Password must be at least 6 characters.")
		c.pause()
		return
	}
	if password != confirm {
		c.sayErr("Error: Passwords do not match.")
		c.pause()
		return
	}

	ok, err := c.Users.Register(username, password)
	if err != nil {
		c.sayErr("Registration failed: " + err.Error())
	} else if ok {
		c.say(successStyle.Render("Registration successful! You can now login."))
	} else {
		c.sayErr("Registration failed. Username may already exist.")
	}
	c.pause()
}

func (c *Console) showUnread() {
	user, err := c.Users.Current(c.session)
	if err != nil || user == nil {
		return
	}
	peers, groupCounts, err := c.Unread.Counts(user)
	if err != nil {
		return
	}
	if len(peers) == 0 && len(groupCounts) == 0 {
		return
	}

	c.say(unreadStyle.Render("*** UNREAD MESSAGES ***"))
	for peer, n := range peers {
		c.say(fmt.Sprintf("- %d message(s) from %s", n, peer))
	}
	for groupID, n := range groupCounts {
		group, err := c.Groups.ByID(groupID)
		if err != nil {
			continue
		}
		c.say(fmt.Sprintf("- %d message(s) in group %s", n, group.Name))
	}
}

func (c *Console) messagingMenu() {
	c.clear()
	c.say(header("MESSAGING"))
	c.say("1. Message a Contact")
	c.say("2. Search for a User")
	c.say("3. Return to Main Menu")

	switch c.prompt("Choose an option (1-3):") {
	case "1":
		c.messageContact()
	case "2":
		c.searchUsers()
	case "3":
	default:
		c.sayErr("Invalid option. Please try again.")
		c.pause()
	}
}

func (c *Console) viewContacts() {
	c.clear()
	c.say(header("MY CONTACTS"))

	contacts, err := c.Users.Contacts(c.session)
	if err != nil {
		c.sayErr("Error: " + err.Error())
		c.pause()
		return
	}
	if len(contacts) == 0 {
		c.say("You don't have any contacts yet.")
		c.pause()
		return
	}

	for i, contact := range contacts {
		c.say(fmt.Sprintf("%d. %s", i+1, contact))
	}
	c.say("Enter the number to message a contact, or 0 to return:")
	if n := c.pick(len(contacts)); n > 0 {
		c.chatWith(contacts[n-1])
	}
	c.pause()
}

func (c *Console) messageContact() {
	c.clear()
	c.say(header("MESSAGE CONTACT"))

	contacts, err := c.Users.Contacts(c.session)
	if err != nil {
		c.sayErr("Error: " + err.Error())
		c.pause()
		return
	}
	if len(contacts) == 0 {
		c.say("You don't have any contacts yet.")
		c.say("Use 'Search for a User' to find users to message.")
		c.pause()
		return
	}

	for i, contact := range contacts {
		c.say(fmt.Sprintf("%d. %s", i+1, contact))
	}
	c.say("Enter the number to message a contact, or 0 to return:")
	if n := c.pick(len(contacts)); n > 0 {
		c.chatWith(contacts[n-1])
	}
}

func (c *Console) searchUsers() {
	c.clear()
	c.say(header("SEARCH USERS"))

	term := c.prompt("Enter username to search for:")
	if term == "" {
		c.sayErr("Search term cannot be empty.")
		c.pause()
		return
	}

	matches, err := c.Users.SearchUsers(c.session, term)
	if err != nil {
		c.sayErr("Error: " + err.Error())
		c.pause()
		return
	}
	if len(matches) == 0 {
		c.say("No users found matching '" + term + "'.")
		c.pause()
		return
	}

	c.say("Users found:")
	for i, username := range matches {
		c.say(fmt.Sprintf("%d. %s", i+1, username))
	}
	c.say("Enter the number to chat with a user, or 0 to return:")
	if n := c.pick(len(matches)); n > 0 {
		c.chatWith(matches[n-1])
	}
	c.pause()
}

// chatWith runs a direct conversation loop. The read cursor is stamped
// on entry and again on exit so messages exchanged during the visit do
// not count as unread afterwards.
func (c *Console) chatWith(peer string) {
	c.clear()
	c.say(header("CHAT WITH " + peer))

	if err := c.Users.AddContact(c.session, peer); err != nil {
		c.sayErr("Error: " + err.Error())
	}

	history, err := c.Messages.Between(c.session.Username(), peer)
	if err != nil {
		c.sayErr("Error: " + err.Error())
		return
	}
	if len(history) == 0 {
		c.say("No previous messages. Start chatting!")
	} else {
		c.say("Message History:")
		for _, m := range history {
			name := peer
			if m.Sender == c.session.Username() {
				name = "You"
			}
			c.say(fmt.Sprintf("[%s] %s: %s", m.FormattedTime(), name, m.Content))
		}
	}

	c.Users.TouchLastRead(c.session, peer)
	c.say(mutedStyle.Render("Type your message or enter 'EXIT' to return:"))

	for c.running {
		content := c.prompt("")
		if strings.EqualFold(content, "EXIT") {
			c.Users.TouchLastRead(c.session, peer)
			return
		}
		if !validate.Message(content) {
			continue
		}
		sent, err := c.Messages.SendDirect(c.session.Username(), peer, content)
		if err != nil {
			c.sayErr("Error: " + err.Error())
			continue
		}
		c.say(fmt.Sprintf("[%s] You: %s", sent.FormattedTime(), sent.Content))
	}
}

func (c *Console) groupMenu() {
	c.clear()
	c.say(header("GROUPS"))
	c.say("1. View My Groups")
	c.say("2. Create a New Group")
	c.say("3. Search for Groups")
	c.say("4. Return to Main Menu")

	switch c.prompt("Choose an option (1-4):") {
	case "1":
		c.viewMyGroups()
	case "2":
		c.createGroup()
	case "3":
		c.searchGroups()
	case "4":
	default:
		c.sayErr("Invalid option. Please try again.")
		c.pause()
	}
}

func (c *Console) viewMyGroups() {
	c.clear()
	c.say(header("MY GROUPS"))

	myGroups, err := c.Groups.UserGroups(c.session.Username())
	if err != nil {
		c.sayErr("Error: " + err.Error())
		c.pause()
		return
	}
	if len(myGroups) == 0 {
		c.say("You are not a member of any groups yet.")
		c.say("Use 'Create a New Group' or 'Search for Groups' to find groups to join.")
		c.pause()
		return
	}

	for i, g := range myGroups {
		label := g.Name
		if g.IsAdmin(c.session.Username()) {
			label += " (Admin)"
		}
		c.say(fmt.Sprintf("%d. %s", i+1, label))
	}
	c.say("Enter the number to select a group, or 0 to return:")
	if n := c.pick(len(myGroups)); n > 0 {
		c.groupDetails(myGroups[n-1])
	}
	c.pause()
}

func (c *Console) createGroup() {
	c.clear()
	c.say(header("CREATE NEW GROUP"))

	name := c.prompt("Enter group name (3-30 characters):")
	if !validate.GroupName(name) {
		c.sayErr("Error: Group name must be 3-30 characters.")
		c.pause()
		return
	}

	group, err := c.Groups.Create(name, c.session.Username())
	if err != nil {
		c.sayErr("Failed to create group: " + err.Error())
	} else {
		c.say(successStyle.Render("Group '" + group.Name + "' created successfully!"))
		c.say("You are the admin of this group.")
	}
	c.pause()
}

func (c *Console) searchGroups() {
	c.clear()
	c.say(header("SEARCH GROUPS"))

	term := c.prompt("Enter group name to search for:")
	if term == "" {
		c.sayErr("Search term cannot be empty.")
		c.pause()
		return
	}

	matches, err := c.Groups.Search(term)
	if err != nil {
		c.sayErr("Error: " + err.Error())
		c.pause()
		return
	}
	if len(matches) == 0 {
		c.say("No groups found matching '" + term + "'.")
		c.pause()
		return
	}

	c.say("Groups found:")
	for i, g := range matches {
		label := g.Name
		if g.IsMember(c.session.Username()) {
			label += " (Member)"
		}
		c.say(fmt.Sprintf("%d. %s", i+1, label))
	}
	c.say("Enter the number to select a group, or 0 to return:")
	if n := c.pick(len(matches)); n > 0 {
		selected := matches[n-1]
		if selected.IsMember(c.session.Username()) {
			c.groupDetails(selected)
		} else {
			c.nonMemberGroupOptions(selected)
		}
	}
	c.pause()
}

func (c *Console) groupDetails(group *models.Group) {
	isAdmin := group.IsAdmin(c.session.Username())

	for c.running {
		c.clear()
		c.say(header("GROUP: " + group.Name))
		c.say("Admin: " + group.AdminUsername)
		c.say(fmt.Sprintf("Members: %d", len(group.Members)))
		c.say("1. View Group Chat")
		c.say("2. View Members")
		if isAdmin {
			c.say("3. View Join Requests")
			c.say("4. Remove Member")
			c.say("5. Delete Group")
			c.say("6. Return")
		} else {
			c.say("3. Leave Group")
			c.say("4. Return")
		}

		choice := c.prompt("Choose an option:")
		switch {
		case choice == "1":
			c.groupChat(group)
		case choice == "2":
			c.viewGroupMembers(group)
		case choice == "3" && isAdmin:
			c.viewJoinRequests(group)
		case choice == "3":
			if c.leaveGroup(group) {
				return
			}
		case choice == "4" && isAdmin:
			c.removeMember(group)
		case choice == "4", choice == "6" && isAdmin:
			return
		case choice == "5" && isAdmin:
			if c.deleteGroup(group) {
				return
			}
		default:
			c.sayErr("Invalid option.")
			c.pause()
		}

		refreshed, err := c.Groups.ByID(group.ID)
		if err != nil {
			c.sayErr("Error: Group not found. It may have been deleted.")
			c.pause()
			return
		}
		group = refreshed
	}
}

func (c *Console) nonMemberGroupOptions(group *models.Group) {
	c.clear()
	c.say(header("GROUP: " + group.Name))
	c.say("Admin: " + group.AdminUsername)
	c.say(fmt.Sprintf("Members: %d", len(group.Members)))

	if group.HasPendingRequest(c.session.Username()) {
		c.say("You have a pending request to join this group.")
		c.say("Wait for the admin to accept your request.")
		c.pause()
		return
	}

	c.say("1. Request to Join Group")
	c.say("2. Return")
	if c.prompt("Choose an option:") != "1" {
		return
	}

	ok, err := c.Groups.RequestJoin(group.ID, c.session.Username())
	switch {
	case errors.Is(err, models.ErrGroupNotFound):
		c.sayErr("Error: Group not found. It may have been deleted.")
	case err != nil:
		c.sayErr("Error: " + err.Error())
	case ok:
		c.say(successStyle.Render("Join request sent. Wait for the admin to accept your request."))
	default:
		c.sayErr("Failed to send join request.")
	}
	c.pause()
}

func (c *Console) groupChat(group *models.Group) {
	c.clear()
	c.say(header("GROUP CHAT: " + group.Name))

	history, err := c.Messages.GroupMessages(group.ID)
	if err != nil {
		c.sayErr("Error: " + err.Error())
		return
	}
	if len(history) == 0 {
		c.say("No previous messages. Start chatting!")
	} else {
		for _, m := range history {
			name := m.Sender
			if m.Sender == c.session.Username() {
				name = "You"
			}
			c.say(fmt.Sprintf("[%s] %s: %s", m.FormattedTime(), name, m.Content))
		}
	}

	c.Users.TouchLastReadGroup(c.session, group.ID)
	c.say(mutedStyle.Render("Type your message or enter 'EXIT' to return:"))

	for c.running {
		content := c.prompt("")
		if strings.EqualFold(content, "EXIT") {
			// Stamp again so messages that arrived during the visit
			// do not show up as unread.
			c.Users.TouchLastReadGroup(c.session, group.ID)
			return
		}
		if !validate.Message(content) {
			continue
		}
		sent, err := c.Messages.SendGroup(c.session.Username(), group.ID, content)
		if err != nil {
			c.sayErr("Error: " + err.Error())
			continue
		}
		c.say(fmt.Sprintf("[%s] You: %s", sent.FormattedTime(), sent.Content))
	}
}

func (c *Console) viewGroupMembers(group *models.Group) {
	c.clear()
	c.say(header("MEMBERS OF " + group.Name))

	i := 1
	for member := range group.Members {
		label := member
		if group.IsAdmin(member) {
			label += " (Admin)"
		}
		c.say(fmt.Sprintf("%d. %s", i, label))
		i++
	}
	c.pause()
}

func (c *Console) viewJoinRequests(group *models.Group) {
	c.clear()
	c.say(header("JOIN REQUESTS FOR " + group.Name))

	requests, err := c.Groups.PendingRequests(group.ID, c.session.Username())
	if err != nil {
		c.sayErr("Error: " + err.Error())
		c.pause()
		return
	}
	if len(requests) == 0 {
		c.say("No pending join requests.")
		c.pause()
		return
	}

	for i, r := range requests {
		c.say(fmt.Sprintf("%d. %s", i+1, r.RequestorUsername))
	}
	c.say("Enter the number to accept/reject a request, or 0 to return:")
	if n := c.pick(len(requests)); n > 0 {
		c.respondToRequest(group, requests[n-1])
	}
	c.pause()
}

func (c *Console) respondToRequest(group *models.Group, request *models.JoinRequest) {
	c.clear()
	c.say(header("JOIN REQUEST FROM " + request.RequestorUsername))
	c.say("1. Accept Request")
	c.say("2. Reject Request")
	c.say("3. Return")

	switch c.prompt("Choose an option:") {
	case "1":
		ok, err := c.Groups.AcceptRequest(group.ID, request.RequestorUsername, c.session.Username())
		if err != nil {
			c.sayErr("Error: " + err.Error())
		} else if ok {
			c.say(successStyle.Render("Request accepted. " + request.RequestorUsername + " is now a member."))
		} else {
			c.sayErr("Failed to accept request.")
		}
	case "2":
		ok, err := c.Groups.RejectRequest(group.ID, request.RequestorUsername, c.session.Username())
		if err != nil {
			c.sayErr("Error: " + err.Error())
		} else if ok {
			c.say("Request rejected.")
		} else {
			c.sayErr("Failed to reject request.")
		}
	}
}

func (c *Console) removeMember(group *models.Group) {
	c.clear()
	c.say(header("REMOVE MEMBER"))

	members := []string{}
	for member := range group.Members {
		if member != c.session.Username() {
			members = append(members, member)
		}
	}
	if len(members) == 0 {
		c.say("No members to remove (besides yourself as admin).")
		c.pause()
		return
	}

	for i, member := range members {
		c.say(fmt.Sprintf("%d. %s", i+1, member))
	}
	c.say("Enter the number to remove a member, or 0 to return:")
	n := c.pick(len(members))
	if n == 0 {
		c.pause()
		return
	}
	target := members[n-1]

	confirm := strings.ToLower(c.prompt("Are you sure you want to remove " + target + " from the group? (y/n)"))
	if confirm != "y" && confirm != "yes" {
		c.say("Member removal cancelled.")
		c.pause()
		return
	}

	ok, err := c.Groups.RemoveMember(group.ID, target, c.session.Username())
	if err != nil {
		c.sayErr("Error: " + err.Error())
	} else if ok {
		c.say(target + " has been removed from the group.")
	} else {
		c.sayErr("Failed to remove member.")
	}
	c.pause()
}

// deleteGroup runs the admin's delete flow. The registry removes the
// group and membership references; group messages are deleted in a
// second call to the message log.
func (c *Console) deleteGroup(group *models.Group) bool {
	c.clear()
	c.say(header("DELETE GROUP"))
	c.say("Are you sure you want to delete the group '" + group.Name + "'?")
	c.say(errorStyle.Render("This action cannot be undone!"))

	if c.prompt("Type 'DELETE' to confirm, or anything else to cancel:") != "DELETE" {
		c.say("Group deletion cancelled.")
		c.pause()
		return false
	}

	ok, err := c.Groups.Delete(group.ID, c.session.Username())
	if err != nil {
		c.sayErr("Error: " + err.Error())
		c.pause()
		return false
	}
	if !ok {
		c.sayErr("Failed to delete group.")
		c.pause()
		return false
	}

	if err := c.Messages.DeleteGroupMessages(group.ID); err != nil {
		c.sayErr("Error deleting group messages: " + err.Error())
	}
	c.say("Group '" + group.Name + "' has been deleted.")
	c.pause()
	return true
}

func (c *Console) leaveGroup(group *models.Group) bool {
	c.clear()
	c.say(header("LEAVE GROUP"))

	confirm := strings.ToLower(c.prompt("Are you sure you want to leave the group '" + group.Name + "'? (y/n)"))
	if confirm != "y" && confirm != "yes" {
		c.say("Group exit cancelled.")
		c.pause()
		return false
	}

	ok, err := c.Groups.Leave(group.ID, c.session.Username())
	if err != nil {
		c.sayErr("Error: " + err.Error())
		c.pause()
		return false
	}
	if !ok {
		c.sayErr("Failed to leave group.")
		c.pause()
		return false
	}
	c.say("You have left the group '" + group.Name + "'.")
	c.pause()
	return true
}

func (c *Console) accountMenu() {
	c.clear()
	c.say(header("ACCOUNT SETTINGS"))
	c.say("1. Delete Account")
	c.say("2. Return to Main Menu")

	switch c.prompt("Choose an option (1-2):") {
	case "1":
		c.deleteAccount()
	case "2":
	default:
		c.sayErr("Invalid option. Please try again.")
		c.pause()
	}
}

// deleteAccount cascades before removing the account: the user's
// messages go first, then owned groups (with their messages) are
// deleted and other memberships dropped, and finally the account.
func (c *Console) deleteAccount() {
	c.clear()
	c.say(header("DELETE ACCOUNT"))
	c.say("Are you sure you want to delete your account?")
	c.say(errorStyle.Render("This action cannot be undone!"))

	if c.prompt("Type 'DELETE' to confirm, or anything else to cancel:") != "DELETE" {
		c.say("Account deletion cancelled.")
		c.pause()
		return
	}

	username := c.session.Username()
	if err := c.Messages.DeleteUserMessages(username); err != nil {
		c.sayErr("Error: " + err.Error())
	}

	userGroups, err := c.Groups.UserGroups(username)
	if err == nil {
		for _, g := range userGroups {
			if g.IsAdmin(username) {
				if ok, err := c.Groups.Delete(g.ID, username); err == nil && ok {
					c.Messages.DeleteGroupMessages(g.ID)
				}
			} else {
				c.Groups.Leave(g.ID, username)
			}
		}
	}

	deleted, err := c.Users.DeleteAccount(c.session)
	if err != nil {
		c.sayErr("Error: " + err.Error())
	} else if deleted {
		c.session = nil
		c.say("Your account has been deleted.")
	} else {
		c.sayErr("Failed to delete account.")
	}
	c.pause()
}
