// Package models contains the core data types for KeyGate.
package models

import (
	"crypto/rand"
	"time"
)

// KeyStatus represents the lifecycle status of a license key.
type KeyStatus string

const (
	// KeyStatusActive means the key may be bound and verified.
	KeyStatusActive KeyStatus = "active"
	// KeyStatusExpired means the key's expiry has passed. The transition is
	// one-way: a key never returns to active.
	KeyStatusExpired KeyStatus = "expired"
)

// KeyLength is the length of the random portion of a license key.
const KeyLength = 10

// keyCharset is the alphabet used for license key generation (36^10 keyspace).
const keyCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// LicenseKey is an admin-issued credential gating access to privileged
// endpoints. The Key string is the primary identifier; ID is a monotonic
// counter kept for display ordering.
type LicenseKey struct {
	ID        int64      `json:"id"`
	Key       string     `json:"key"`
	Note      string     `json:"note"`
	CreatedBy string     `json:"createdBy"`
	CreatedAt time.Time  `json:"createdAt"`
	Expiry    time.Time  `json:"expiry"`
	Status    KeyStatus  `json:"status"`
	MaxUsers  int        `json:"maxUsers"`
	UsedBy    string     `json:"usedBy,omitempty"`
	UsedAt    *time.Time `json:"usedAt,omitempty"`
	UsedEmail string     `json:"usedEmail,omitempty"`
}

// IsExpiredAt reports whether the key's expiry has passed at the given time.
// It does not consult Status; the lazy one-way status transition lives in the
// state store.
func (k *LicenseKey) IsExpiredAt(now time.Time) bool {
	return now.After(k.Expiry)
}

// ClearFirstUse resets the denormalized first-binding fields. Called when the
// last bound user unbinds.
func (k *LicenseKey) ClearFirstUse() {
	k.UsedBy = ""
	k.UsedAt = nil
	k.UsedEmail = ""
}

// StampFirstUse records the first user ever bound to this key. Informational
// only; the binding table is authoritative for membership.
func (k *LicenseKey) StampFirstUse(userID, email string, at time.Time) {
	k.UsedBy = userID
	k.UsedAt = &at
	k.UsedEmail = email
}

// NewKeyString generates a random license key string from the key alphabet.
func NewKeyString() (string, error) {
	buf := make([]byte, KeyLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = keyCharset[int(b)%len(keyCharset)]
	}
	return string(buf), nil
}
