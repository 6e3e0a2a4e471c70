package validation

import (
	"errors"
)

// ValidatePassword validates password length bounds
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}

	if len(password) > 128 {
		return errors.New("password must not exceed 128 characters")
	}

	return nil
}
