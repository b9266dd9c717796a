package middleware

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"regdash/domain/core"
	"regdash/internal/errors"
)

const sessionIDKey = "sessionID"

// SessionID is middleware that parses the :id path parameter and stores the
// session ID on the context. Malformed IDs are answered with 404 so they look
// the same as expired sessions.
func SessionID() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Param("id")
		id, err := core.ParseSessionID(raw)
		if err != nil {
			log.Printf("[SessionID] rejecting malformed session id %q", raw)
			notFound := errors.NotFound("session " + raw)
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": notFound.Error(), "code": errors.CodeNotFound})
			return
		}
		c.Set(sessionIDKey, id)
		c.Next()
	}
}

// GetSessionID returns the ID stored by SessionID
func GetSessionID(c *gin.Context) (core.SessionID, bool) {
	v, ok := c.Get(sessionIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(core.SessionID)
	return id, ok
}
