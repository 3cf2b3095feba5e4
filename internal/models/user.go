// Package models defines the records passed between the repositories and the
// auth service.
package models

import (
	"strings"
	"time"
)

// User is the public view of an account. It never carries the password hash.
type User struct {
	ID    int64
	Email string
}

// UserRecord is a users row as stored.
type UserRecord struct {
	ID           int64
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Public strips the credential material from the record.
func (r *UserRecord) Public() *User {
	return &User{ID: r.ID, Email: r.Email}
}

// NormalizeEmail trims surrounding whitespace and lower-cases the address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
