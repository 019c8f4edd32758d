package utils

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9.@+\-_]+$`)

var ErrInvalidUsername = errors.New("username contains invalid characters")

// ValidateUsername checks a candidate username against the allowed character
// set (latin letters, digits and . @ + - _). The returned error names every
// disallowed character found, each exactly once, sorted.
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("%w: username must not be empty", ErrInvalidUsername)
	}
	if usernamePattern.MatchString(username) {
		return nil
	}

	seen := make(map[rune]bool)
	var invalid []rune
	for _, r := range username {
		if usernamePattern.MatchString(string(r)) || seen[r] {
			continue
		}
		seen[r] = true
		invalid = append(invalid, r)
	}
	sort.Slice(invalid, func(i, j int) bool { return invalid[i] < invalid[j] })

	var b strings.Builder
	for _, r := range invalid {
		b.WriteRune(r)
	}
	return fmt.Errorf(
		"%w: %s (allowed: latin letters, digits and . @ + - _)",
		ErrInvalidUsername, b.String(),
	)
}
