package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateUsername(t *testing.T) {
	valid := []string{
		"alice",
		"alice.smith",
		"user@host",
		"first-last",
		"a_b+c",
		"User123",
	}
	for _, username := range valid {
		assert.NoError(t, ValidateUsername(username), username)
	}
}

func TestValidateUsernameEmpty(t *testing.T) {
	assert.ErrorIs(t, ValidateUsername(""), ErrInvalidUsername)
}

func TestValidateUsernameReportsInvalidChars(t *testing.T) {
	err := ValidateUsername("boo!hoo%boo!")
	assert.ErrorIs(t, err, ErrInvalidUsername)

	// Each offending character once, in sorted order.
	assert.Contains(t, err.Error(), "!%")
}

func TestValidateUsernameRejectsNonLatin(t *testing.T) {
	err := ValidateUsername("пользователь")
	assert.ErrorIs(t, err, ErrInvalidUsername)
}
