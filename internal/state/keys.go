package state

import (
	"fmt"
	"sort"
	"time"

	"github.com/stormfort/keygate/internal/models"
)

// maxKeyGenAttempts bounds the uniqueness retry loop in GenerateKey. At a
// 36^10 keyspace a single retry is already vanishingly unlikely.
const maxKeyGenAttempts = 5

// KeyWithUsage pairs a key record with its live binding state. Returned by
// ListKeys and VerifyKey; the join is computed on read, never stored.
type KeyWithUsage struct {
	models.LicenseKey
	CurrentUsers int      `json:"currentUsers"`
	BoundUsers   []string `json:"boundUsers"`
}

// GenerateKey creates a new license key. Non-positive expiryDays or maxUsers
// are coerced to 1. The key's (empty) binding list is created here so a later
// bind never has to distinguish "no list" from "empty list".
func (s *Store) GenerateKey(note, createdBy string, expiryDays, maxUsers int) (*models.LicenseKey, error) {
	if expiryDays < 1 {
		expiryDays = 1
	}
	if maxUsers < 1 {
		maxUsers = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var keyStr string
	for attempt := 0; ; attempt++ {
		if attempt >= maxKeyGenAttempts {
			return nil, ErrKeyCollision
		}
		k, err := models.NewKeyString()
		if err != nil {
			return nil, fmt.Errorf("generate key string: %w", err)
		}
		if _, exists := s.keys[k]; !exists {
			keyStr = k
			break
		}
	}

	now := s.now()
	key := &models.LicenseKey{
		ID:        s.nextKeyID,
		Key:       keyStr,
		Note:      note,
		CreatedBy: createdBy,
		CreatedAt: now,
		Expiry:    now.AddDate(0, 0, expiryDays),
		Status:    models.KeyStatusActive,
		MaxUsers:  maxUsers,
	}
	s.nextKeyID++
	s.keys[keyStr] = key
	s.keyUsers[keyStr] = []string{}
	s.dirty = true

	s.logger.Info().
		Int64("id", key.ID).
		Int("max_users", maxUsers).
		Int("expiry_days", expiryDays).
		Msg("license key generated")

	cp := *key
	return &cp, nil
}

// LookupKey returns a copy of the key record, or ErrKeyNotFound.
func (s *Store) LookupKey(key string) (*models.LicenseKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k, ok := s.keys[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	cp := *k
	return &cp, nil
}

// VerifyKey checks that a key exists, is active, and has not expired. The
// expired transition is applied lazily here (and anywhere else that calls
// markExpiredIfDueLocked): one-way, never reverting to active. On success it
// returns the record joined with its live binding usage.
func (s *Store) VerifyKey(key string) (*KeyWithUsage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k, ok := s.keys[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	if s.markExpiredIfDueLocked(k) {
		return nil, ErrKeyExpired
	}
	if k.Status != models.KeyStatusActive {
		return nil, ErrKeyInactive
	}
	return s.joinUsageLocked(k), nil
}

// markExpiredIfDueLocked flips an overdue key to expired and marks state
// dirty. Returns true if the key is expired (whether flipped now or before).
// Caller holds s.mu.
func (s *Store) markExpiredIfDueLocked(k *models.LicenseKey) bool {
	if k.Status == models.KeyStatusExpired {
		return true
	}
	if !k.IsExpiredAt(s.now()) {
		return false
	}
	k.Status = models.KeyStatusExpired
	s.dirty = true
	s.logger.Info().Int64("id", k.ID).Msg("license key expired")
	return true
}

// SetMaxUsers resizes a key's capacity. The new capacity must be at least 1
// and at least the current bound-user count.
func (s *Store) SetMaxUsers(key string, newMax int) (*models.LicenseKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k, ok := s.keys[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	if newMax < 1 || newMax < len(s.keyUsers[key]) {
		return nil, ErrInvalidCapacity
	}
	k.MaxUsers = newMax
	s.dirty = true

	cp := *k
	return &cp, nil
}

// DeleteKey removes a key and cascades its bindings: every bound user's
// reverse entry is cleared under the same lock, so the bidirectional
// invariant holds at every observable point. Returns the user ids that were
// unbound.
func (s *Store) DeleteKey(key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.keys[key]; !ok {
		return nil, ErrKeyNotFound
	}

	unbound := append([]string(nil), s.keyUsers[key]...)
	for _, userID := range unbound {
		delete(s.userKey, userID)
	}
	delete(s.keyUsers, key)
	delete(s.keys, key)
	s.dirty = true

	s.logger.Info().Str("key", key).Int("unbound_users", len(unbound)).Msg("license key deleted")
	return unbound, nil
}

// ListKeys returns every key joined with its binding state, ordered by id.
func (s *Store) ListKeys() []*KeyWithUsage {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*KeyWithUsage, 0, len(s.keys))
	for _, k := range s.keys {
		out = append(out, s.joinUsageLocked(k))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// joinUsageLocked builds the key+usage view. Caller holds s.mu.
func (s *Store) joinUsageLocked(k *models.LicenseKey) *KeyWithUsage {
	users := s.keyUsers[k.Key]
	return &KeyWithUsage{
		LicenseKey:   *k,
		CurrentUsers: len(users),
		BoundUsers:   append([]string(nil), users...),
	}
}

// ExpiryFromDays converts a day count to an absolute expiry relative to now.
// Kept separate for the admin CLI, which builds keys offline.
func ExpiryFromDays(now time.Time, days int) time.Time {
	if days < 1 {
		days = 1
	}
	return now.AddDate(0, 0, days)
}
