// Package handlers implements the KeyGate HTTP API endpoints.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stormfort/keygate/internal/state"
)

// Flusher persists state before an admin mutation response returns.
// Satisfied by *persist.Gateway.
type Flusher interface {
	Flush() error
}

// respondOK writes the success envelope.
func respondOK(c *gin.Context, data any) {
	if data == nil {
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

// respondError writes the failure envelope with the given status.
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

// domainErrors are the state failures surfaced to clients as 400 with their
// message. Everything else is an internal error.
var domainErrors = []error{
	state.ErrKeyNotFound,
	state.ErrKeyInactive,
	state.ErrKeyExpired,
	state.ErrInvalidCapacity,
	state.ErrAlreadyBoundElsewhere,
	state.ErrAlreadyBoundHere,
	state.ErrCapacityFull,
	state.ErrNotBound,
	state.ErrKeyMismatch,
}

// respondStateError maps a state error onto the envelope. Domain failures
// keep their message contract at 400; anything unexpected becomes a generic
// 500 so internals never leak.
func respondStateError(c *gin.Context, err error) {
	for _, domain := range domainErrors {
		if errors.Is(err, domain) {
			respondError(c, http.StatusBadRequest, domain.Error())
			return
		}
	}
	respondError(c, http.StatusInternalServerError, "internal error")
}
