package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	ContextSessionIDKey = "session_id"
	SessionHeader       = "X-Session-Id"
	SessionCookie       = "docqa_session"
)

// Session resolves the browser session from the header or cookie, and issues
// a new cookie when neither is present.
func Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		sid := strings.TrimSpace(c.GetHeader(SessionHeader))
		if sid == "" {
			if v, err := c.Cookie(SessionCookie); err == nil {
				sid = strings.TrimSpace(v)
			}
		}
		if sid == "" {
			sid = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(SessionCookie, sid, 0, "/", "", false, true)
		}
		c.Set(ContextSessionIDKey, sid)
		c.Next()
	}
}

func SessionID(c *gin.Context) string {
	return c.GetString(ContextSessionIDKey)
}
