package validate

import "testing"

func TestUsername(t *testing.T) {
	valid := []string{"bob", "alice_99", "User_Name_20_chars__"}
	for _, u := range valid {
		if !Username(u) {
			t.Errorf("Expected %q to be valid", u)
		}
	}

	invalid := []string{"", "ab", "name with spaces", "dash-name", "this_username_is_far_too_long"}
	for _, u := range invalid {
		if Username(u) {
			t.Errorf("Expected %q to be invalid", u)
		}
	}
}

func TestPassword(t *testing.T) {
	if Password("short") {
		t.Error("Expected passwords under 6 characters to be invalid")
	}
	if !Password("secret1") {
		t.Error("Expected 'secret1' to be valid")
	}
}

func TestGroupName(t *testing.T) {
	if GroupName("ab") {
		t.Error("Expected names under 3 characters to be invalid")
	}
	if !GroupName("Book Club") {
		t.Error("Expected 'Book Club' to be valid")
	}
	if GroupName("this group name is over thirty characters") {
		t.Error("Expected names over 30 characters to be invalid")
	}
}

func TestMessage(t *testing.T) {
	if Message("   ") {
		t.Error("Expected blank messages to be invalid")
	}
	if !Message("hi") {
		t.Error("Expected 'hi' to be valid")
	}
}
