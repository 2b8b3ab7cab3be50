package seeders

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// AdminPasswordHash returns the value to put in ADMIN_PASSWORD_HASH.
func AdminPasswordHash(password string) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
