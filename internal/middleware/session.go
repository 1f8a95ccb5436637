package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SessionKey is the gin context key holding the session id
const SessionKey = "session_id"

// SessionOptions configures the session cookie
type SessionOptions struct {
	CookieName string
	MaxAge     time.Duration
	Secure     bool
}

// Session makes sure every request carries a session id cookie. Missing or
// malformed ids are replaced with a fresh UUID.
func Session(opts SessionOptions) gin.HandlerFunc {
	if opts.CookieName == "" {
		opts.CookieName = "vroom_sid"
	}
	return func(c *gin.Context) {
		sid, err := c.Cookie(opts.CookieName)
		if err != nil || !validSessionID(sid) {
			sid = uuid.NewString()
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(opts.CookieName, sid, int(opts.MaxAge.Seconds()), "/", "", opts.Secure, true)
		c.Set(SessionKey, sid)
		c.Next()
	}
}

// SessionID returns the id set by Session, or "" outside it
func SessionID(c *gin.Context) string {
	return c.GetString(SessionKey)
}

func validSessionID(s string) bool {
	if s == "" {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
