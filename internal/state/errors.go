package state

import "errors"

// Domain failures surfaced by the state store. Handlers map these onto the
// uniform response envelope; the messages are part of the client contract.
var (
	// ErrKeyNotFound is returned when a license key does not exist.
	ErrKeyNotFound = errors.New("license key not found")
	// ErrKeyInactive is returned when a key exists but is not active.
	ErrKeyInactive = errors.New("license key is not active")
	// ErrKeyExpired is returned when a key's expiry has passed.
	ErrKeyExpired = errors.New("license key has expired")
	// ErrInvalidCapacity is returned when maxUsers would drop below 1 or
	// below the current bound-user count.
	ErrInvalidCapacity = errors.New("invalid user capacity")
	// ErrAlreadyBoundElsewhere is returned when the user is bound to a
	// different key.
	ErrAlreadyBoundElsewhere = errors.New("user is already bound to another key")
	// ErrAlreadyBoundHere is returned when the user is already bound to the
	// requested key.
	ErrAlreadyBoundHere = errors.New("user is already bound to this key")
	// ErrCapacityFull is returned when the key has no binding slots left.
	ErrCapacityFull = errors.New("license key has reached its user limit")
	// ErrNotBound is returned when an unbind or lookup finds no binding.
	ErrNotBound = errors.New("user has no bound key")
	// ErrKeyMismatch is returned when an unbind names a key other than the
	// one the user is bound to.
	ErrKeyMismatch = errors.New("bound key does not match")
	// ErrSessionNotFound is returned when a session id is unknown.
	ErrSessionNotFound = errors.New("session not found")
	// ErrKeyCollision is returned when key generation cannot find an unused
	// key string within the retry budget.
	ErrKeyCollision = errors.New("could not generate a unique key")
)
