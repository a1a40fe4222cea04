package models

import (
	"strings"

	"github.com/google/uuid"
)

// UserContact is what notifications need to know about a user.
type UserContact struct {
	ID       uuid.UUID
	Email    string
	FullName string
}

// DisplayName falls back to the email's local part.
func (u UserContact) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	if local, _, ok := strings.Cut(u.Email, "@"); ok {
		return local
	}
	return u.Email
}
