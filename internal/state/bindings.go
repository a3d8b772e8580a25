package state

import "slices"

// BindResult reports the binding state after a successful bind or unbind.
type BindResult struct {
	Key          string `json:"key"`
	CurrentUsers int    `json:"currentUsers"`
	MaxUsers     int    `json:"maxUsers"`
}

// Bind associates a user with a license key. A user holds at most one key at
// a time; a key holds at most MaxUsers users. Binding to the same key twice
// is an error, not a no-op, so clients can distinguish a retry from a fresh
// bind. The first-ever binding stamps the key's informational UsedBy fields.
func (s *Store) Bind(userID, email, key string) (*BindResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k, ok := s.keys[key]
	if !ok {
		return nil, ErrKeyNotFound
	}

	if bound, exists := s.userKey[userID]; exists {
		if bound != key {
			return nil, ErrAlreadyBoundElsewhere
		}
		return nil, ErrAlreadyBoundHere
	}
	// The reverse check catches a list entry without a forward entry, which
	// only happens if the backing file was hand-edited.
	if slices.Contains(s.keyUsers[key], userID) {
		return nil, ErrAlreadyBoundHere
	}

	if len(s.keyUsers[key]) >= k.MaxUsers {
		return nil, ErrCapacityFull
	}

	firstEver := k.UsedBy == "" && len(s.keyUsers[key]) == 0
	s.keyUsers[key] = append(s.keyUsers[key], userID)
	s.userKey[userID] = key
	if firstEver {
		k.StampFirstUse(userID, email, s.now())
	}
	s.dirty = true

	s.logger.Info().
		Str("user_id", userID).
		Str("key", key).
		Int("current_users", len(s.keyUsers[key])).
		Int("max_users", k.MaxUsers).
		Msg("user bound to key")

	return &BindResult{Key: key, CurrentUsers: len(s.keyUsers[key]), MaxUsers: k.MaxUsers}, nil
}

// Unbind removes a user's binding. If key is non-empty it must match the
// bound key. When the key's user list becomes empty the denormalized UsedBy
// fields are cleared; the key itself is kept.
func (s *Store) Unbind(userID, key string) (*BindResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bound, exists := s.userKey[userID]
	if !exists {
		return nil, ErrNotBound
	}
	if key != "" && key != bound {
		return nil, ErrKeyMismatch
	}

	delete(s.userKey, userID)
	users := s.keyUsers[bound]
	if i := slices.Index(users, userID); i >= 0 {
		s.keyUsers[bound] = slices.Delete(users, i, i+1)
	}

	k, hasKey := s.keys[bound]
	if hasKey && len(s.keyUsers[bound]) == 0 {
		k.ClearFirstUse()
	}
	s.dirty = true

	res := &BindResult{Key: bound, CurrentUsers: len(s.keyUsers[bound])}
	if hasKey {
		res.MaxUsers = k.MaxUsers
	}

	s.logger.Info().
		Str("user_id", userID).
		Str("key", bound).
		Msg("user unbound from key")

	return res, nil
}

// LookupByUser returns the key a user is bound to, joined with usage. If the
// binding points at a key that no longer exists, the dangling entry is
// removed (self-heal) and the lookup reports ErrNotBound.
func (s *Store) LookupByUser(userID string) (*KeyWithUsage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bound, exists := s.userKey[userID]
	if !exists {
		return nil, ErrNotBound
	}

	k, ok := s.keys[bound]
	if !ok {
		delete(s.userKey, userID)
		s.dirty = true
		s.logger.Warn().
			Str("user_id", userID).
			Str("key", bound).
			Msg("removed dangling binding to deleted key")
		return nil, ErrNotBound
	}

	return s.joinUsageLocked(k), nil
}
