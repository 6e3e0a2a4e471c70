package validation

import (
	"errors"
	"net/mail"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var lowercase = cases.Lower(language.Und)

// ValidateEmail validates email format and length
// Uses Go's built-in net/mail parser which follows RFC 5322
func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("email address is required")
	}

	// RFC 5321: 254 characters max including the @
	if len(email) > 254 {
		return errors.New("email address is too long (max 254 characters)")
	}

	_, err := mail.ParseAddress(email)
	if err != nil {
		return errors.New("invalid email address format")
	}

	return nil
}

// NormalizeIdentifier trims and case-folds a login identifier (email or
// username) so lookups are case-insensitive regardless of how the user
// typed it.
func NormalizeIdentifier(identifier string) string {
	return lowercase.String(strings.TrimSpace(identifier))
}
