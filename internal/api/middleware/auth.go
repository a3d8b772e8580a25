// Package middleware provides HTTP middleware for the KeyGate API.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stormfort/keygate/internal/auth"
	"github.com/stormfort/keygate/internal/models"
)

// SessionSource resolves and refreshes sessions. Satisfied by *state.Store.
type SessionSource interface {
	GetSession(id string) (*models.Session, error)
	TouchSession(id string)
}

// SessionContextKey is the Gin context key for the authenticated session.
const SessionContextKey = "session"

// SessionAuth returns a middleware that requires a valid session. The id is
// taken from the transport headers in the documented precedence order; the
// session's LastActivity is refreshed on every authorized request.
func SessionAuth(sessions SessionSource, logger zerolog.Logger) gin.HandlerFunc {
	log := logger.With().Str("component", "auth_middleware").Logger()

	return func(c *gin.Context) {
		id := auth.ExtractSessionID(c.Request)
		if id == "" {
			log.Debug().Str("path", c.Request.URL.Path).Msg("missing session id")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false, "message": "session required",
			})
			return
		}

		sess, err := sessions.GetSession(id)
		if err != nil {
			log.Debug().Str("path", c.Request.URL.Path).Msg("unknown session id")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false, "message": "invalid session",
			})
			return
		}

		sessions.TouchSession(id)
		c.Set(SessionContextKey, sess)
		c.Next()
	}
}

// AdminRequired returns a middleware that rejects non-admin sessions. Must
// run after SessionAuth.
func AdminRequired(logger zerolog.Logger) gin.HandlerFunc {
	log := logger.With().Str("component", "auth_middleware").Logger()

	return func(c *gin.Context) {
		sess := GetSession(c)
		if sess == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false, "message": "session required",
			})
			return
		}
		if sess.Role != models.RoleAdmin {
			log.Warn().
				Str("user_id", sess.UserID).
				Str("path", c.Request.URL.Path).
				Msg("non-admin session on admin endpoint")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false, "message": "admin access required",
			})
			return
		}
		c.Next()
	}
}

// GetSession retrieves the authenticated session from the Gin context.
// Returns nil if no session is present.
func GetSession(c *gin.Context) *models.Session {
	v, exists := c.Get(SessionContextKey)
	if !exists {
		return nil
	}
	sess, ok := v.(*models.Session)
	if !ok {
		return nil
	}
	return sess
}
