package models

import "time"

// Session is a sessions row. Times are stored with second precision.
type Session struct {
	ID             string
	UserID         int64
	IssuedAt       time.Time
	LastSeen       time.Time
	AbsoluteExpiry time.Time
}

// IdleExpired reports whether more than idle has passed since LastSeen.
func (s *Session) IdleExpired(now time.Time, idle time.Duration) bool {
	return now.Sub(s.LastSeen) > idle
}

// AbsoluteExpired reports whether now is past the hard deadline.
func (s *Session) AbsoluteExpired(now time.Time) bool {
	return now.After(s.AbsoluteExpiry)
}

// Valid is true while neither the idle nor the absolute limit has passed.
func (s *Session) Valid(now time.Time, idle time.Duration) bool {
	return !s.AbsoluteExpired(now) && !s.IdleExpired(now, idle)
}

// SessionWithUser is a session joined with its owning user.
type SessionWithUser struct {
	Session
	Email string
}

// User returns the owner of the session.
func (s *SessionWithUser) User() *User {
	return &User{ID: s.UserID, Email: s.Email}
}

// SessionStatus describes how long a live session has left.
type SessionStatus struct {
	User              *User
	IdleRemaining     time.Duration
	AbsoluteRemaining time.Duration
	AbsoluteExpiry    time.Time
}
