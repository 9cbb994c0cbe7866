package auth

import (
	"errors"
	"regexp"
	"strings"
)

var usernameRegex = regexp.MustCompile(`^[a-z0-9_]{3,20}$`)

var reservedUsernames = map[string]bool{
	"admin":   true,
	"ecoloop": true,
	"support": true,
	"system":  true,
	"root":    true,
	"api":     true,
}

// ValidateUsername checks username format and reserved names
func ValidateUsername(username string) error {
	username = strings.ToLower(strings.TrimSpace(username))

	if !usernameRegex.MatchString(username) {
		return errors.New("username must be 3-20 characters, lowercase letters, numbers and underscores only")
	}

	if reservedUsernames[username] {
		return errors.New("this username is reserved")
	}

	return nil
}

// NormalizeUsername lowercases and trims a username for storage
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
