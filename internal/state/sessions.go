package state

import (
	"fmt"
	"time"

	"github.com/stormfort/keygate/internal/models"
)

// CreateAdminSession mints a session with the admin role.
func (s *Store) CreateAdminSession() (*models.Session, error) {
	return s.createSession("admin", "", models.RoleAdmin)
}

// CreateUserSession mints a session for an authenticated user. The role is
// decided by the caller (admin allowlist check) before this call and is
// immutable afterward.
func (s *Store) CreateUserSession(userID, email string, role models.SessionRole) (*models.Session, error) {
	if !role.IsValid() {
		return nil, fmt.Errorf("invalid session role %q", role)
	}
	return s.createSession(userID, email, role)
}

func (s *Store) createSession(userID, email string, role models.SessionRole) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	id, err := models.NewSessionID(role, now)
	if err != nil {
		return nil, fmt.Errorf("mint session id: %w", err)
	}
	sess := &models.Session{
		ID:           id,
		UserID:       userID,
		Email:        email,
		Role:         role,
		StartTime:    now,
		LastActivity: now,
	}
	s.sessions[id] = sess
	s.dirty = true

	s.logger.Info().
		Str("role", string(role)).
		Str("user_id", userID).
		Msg("session created")

	cp := *sess
	return &cp, nil
}

// GetSession returns a copy of the session, or ErrSessionNotFound. A session
// past its idle window but not yet swept still resolves; expiry is enforced
// by the periodic sweep, not per-lookup.
func (s *Store) GetSession(id string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	cp := *sess
	return &cp, nil
}

// TouchSession refreshes a session's LastActivity. Unknown ids are ignored;
// the authorization check has already decided the request's fate.
func (s *Store) TouchSession(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok {
		sess.LastActivity = s.now()
		s.dirty = true
	}
}

// SweepExpiredSessions removes sessions idle longer than maxAge and returns
// how many were removed. Driven by the cron scheduler.
func (s *Store) SweepExpiredSessions(maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, sess := range s.sessions {
		if sess.IdleExpiredAt(now, maxAge) {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		s.dirty = true
		s.logger.Info().Int("removed", removed).Msg("swept expired sessions")
	}
	return removed
}
