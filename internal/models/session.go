package models

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// SessionRole is the authorization role carried by a session. It is assigned
// once at session creation and never changes.
type SessionRole string

const (
	// RoleAdmin grants access to key management endpoints.
	RoleAdmin SessionRole = "admin"
	// RoleUser is the default role for authenticated players.
	RoleUser SessionRole = "user"
)

// IsValid checks if the role is a recognized value.
func (r SessionRole) IsValid() bool {
	return r == RoleAdmin || r == RoleUser
}

// SessionMaxIdle is how long a session may sit idle before the periodic
// sweep removes it.
const SessionMaxIdle = 24 * time.Hour

// Session is a server-side authenticated session record. The ID is opaque to
// clients; only its uniqueness and role-namespace prefix matter.
type Session struct {
	ID           string      `json:"sessionId"`
	UserID       string      `json:"userId"`
	Email        string      `json:"email"`
	Role         SessionRole `json:"role"`
	StartTime    time.Time   `json:"startTime"`
	LastActivity time.Time   `json:"lastActivity"`
}

// IdleExpiredAt reports whether the session has been idle past maxAge.
func (s *Session) IdleExpiredAt(now time.Time, maxAge time.Duration) bool {
	return now.Sub(s.LastActivity) > maxAge
}

// NewSessionID mints a session identifier namespaced by role. The millisecond
// timestamp plus random suffix keeps IDs unique without a central counter.
func NewSessionID(role SessionRole, now time.Time) (string, error) {
	suffix := make([]byte, 8)
	if _, err := rand.Read(suffix); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s_session_%d_%s", role, now.UnixMilli(), hex.EncodeToString(suffix)), nil
}
