package gateway

import (
	"net/http"

	"github.com/example/storefront/pkg/config"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const sessionKey = "session_id"

// sessionMiddleware attaches the caller's session id, issuing a new cookie
// when none (or a malformed one) was sent.
func sessionMiddleware(cfg *config.SessionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(cfg.CookieName)
		if _, perr := uuid.Parse(id); err != nil || perr != nil {
			id = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(cfg.CookieName, id, int(cfg.TTL.Seconds()), "/", "", cfg.Secure, true)
		}
		c.Set(sessionKey, id)
		c.Next()
	}
}

func sessionID(c *gin.Context) string {
	return c.GetString(sessionKey)
}
