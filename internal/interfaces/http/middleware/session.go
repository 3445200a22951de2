package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/turtacn/fluoriclogppka-studio/internal/infrastructure/monitoring/logging"
)

const (
	HeaderSessionID = "X-Session-ID"
	ctxSessionID    = "session_id"
	maxSessionIDLen = 128
)

// SessionConfig names where the session id is read from and written to.
type SessionConfig struct {
	HeaderName string
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// Session resolves the session id from the header, then the cookie, and
// otherwise starts a new session.  The id is echoed in both.
func Session(cfg SessionConfig) gin.HandlerFunc {
	if cfg.HeaderName == "" {
		cfg.HeaderName = HeaderSessionID
	}
	maxAge := int(cfg.TTL / time.Second)

	return func(c *gin.Context) {
		id := c.GetHeader(cfg.HeaderName)
		if id == "" && cfg.CookieName != "" {
			if v, err := c.Cookie(cfg.CookieName); err == nil {
				id = v
			}
		}
		if id == "" || len(id) > maxSessionIDLen {
			id = uuid.NewString()
		}

		c.Set(ctxSessionID, id)
		c.Header(cfg.HeaderName, id)
		if cfg.CookieName != "" {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(cfg.CookieName, id, maxAge, "/", "", cfg.Secure, true)
		}
		c.Request = c.Request.WithContext(logging.ContextWithFields(c.Request.Context(),
			logging.String(logging.FieldSessionID, id)))
		c.Next()
	}
}

// GetSessionID returns the id resolved by Session, or "".
func GetSessionID(c *gin.Context) string {
	return c.GetString(ctxSessionID)
}
