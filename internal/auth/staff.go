package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/hongminglow/loyalty-ledger/internal/models"
)

// ErrInvalidCredentials is returned when a username or password does not match.
var ErrInvalidCredentials = errors.New("invalid credentials")

// StaffDirectory checks staff passwords against configured bcrypt hashes.
type StaffDirectory struct {
	users map[string]models.StaffUser
}

// NewStaffDirectory indexes users by username.
func NewStaffDirectory(users []models.StaffUser) *StaffDirectory {
	d := &StaffDirectory{users: make(map[string]models.StaffUser, len(users))}
	for _, u := range users {
		d.users[u.Username] = u
	}
	return d
}

// Authenticate returns the staff user when password matches.
func (d *StaffDirectory) Authenticate(username, password string) (models.StaffUser, error) {
	user, ok := d.users[username]
	if !ok {
		return models.StaffUser{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.StaffUser{}, ErrInvalidCredentials
	}
	return user, nil
}

// HashPassword produces a bcrypt hash suitable for STAFF_USERS.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
