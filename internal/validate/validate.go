// Package validate holds the input predicates the console front end
// applies before calling into the services.
package validate

import (
	"regexp"
	"strings"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// Username requires 3-20 characters: letters, digits and underscores.
func Username(username string) bool {
	if len(username) < 3 || len(username) > 20 {
		return false
	}
	return usernamePattern.MatchString(username)
}

// Password requires at least 6 characters.
func Password(password string) bool {
	return len(password) >= 6
}

// GroupName requires 3-30 characters.
func GroupName(name string) bool {
	return len(name) >= 3 && len(name) <= 30
}

// Message requires non-blank content.
func Message(content string) bool {
	return strings.TrimSpace(content) != ""
}
