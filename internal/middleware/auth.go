package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/shelter-map/internal/session"
	"github.com/jengzang/shelter-map/pkg/response"
)

const sessionKey = "session"

// SessionAuth resolves the bearer token to a map session
func SessionAuth(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			response.Unauthorized(c, "Missing session token")
			return
		}

		s, err := sessions.Resolve(token)
		if err != nil {
			response.Unauthorized(c, "Invalid session", err)
			return
		}

		c.Set(sessionKey, s)
		c.Next()
	}
}

// CurrentSession returns the session set by SessionAuth
func CurrentSession(c *gin.Context) *session.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	s, _ := v.(*session.Session)
	return s
}
