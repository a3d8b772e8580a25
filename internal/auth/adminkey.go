// Package auth provides authentication and authorization for KeyGate.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HashAdminKey creates a SHA-256 hash of an admin key for storage/comparison.
// The server never holds the plaintext admin key, only this hash.
func HashAdminKey(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])
}

// CheckAdminKey compares a candidate admin key against a stored hash using
// constant-time comparison. An empty stored hash rejects everything, which
// disables the admin-key login path.
func CheckAdminKey(candidate, storedHash string) bool {
	if storedHash == "" {
		return false
	}
	computed := HashAdminKey(candidate)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) == 1
}
