package middleware

import (
	"log"
	"net/http"

	"qareport/domain/core"
	"qareport/internal/report"
	"qareport/internal/session"

	"github.com/gin-gonic/gin"
)

// CookieName carries the session id between requests
const CookieName = "qareport_session"

const sessionKey = "sessionID"

// EnsureSession attaches a live session to the request, creating one when the
// cookie is absent, malformed or expired
func EnsureSession(store *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, err := c.Cookie(CookieName); err == nil {
			if id, err := core.ParseSessionID(raw); err == nil {
				if _, err := store.Get(id); err == nil {
					c.Set(sessionKey, id)
					c.Next()
					return
				}
			}
		}

		id, _ := store.Create(report.KindData)
		log.Printf("[EnsureSession] created session %s", id)
		http.SetCookie(c.Writer, &http.Cookie{
			Name:     CookieName,
			Value:    id.String(),
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		c.Set(sessionKey, id)
		c.Next()
	}
}

// SessionID returns the session attached by EnsureSession
func SessionID(c *gin.Context) core.SessionID {
	if v, ok := c.Get(sessionKey); ok {
		if id, ok := v.(core.SessionID); ok {
			return id
		}
	}
	return ""
}
