package session

import (
	"net/http"

	"session-gateway/internal/audit"
	"session-gateway/internal/auth"
	"session-gateway/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers serves the session cookie routes.
type Handlers struct {
	Relay      Relay
	Policy     CookiePolicy
	SiteURL    string
	SigninPath string
	Audit      *audit.Service
}

// VerifyEmail serves GET /api/verify-email?token=... and always answers with a redirect.
func (h Handlers) VerifyEmail(c *gin.Context) {
	log := logger.FromGin(c)

	out := h.Relay.HandleVerify(c.Request.Context(), c.Query("token"), RequestBase(c.Request, h.SiteURL))

	ev := audit.Event{
		Type:      audit.EventEmailVerified,
		IPAddress: c.ClientIP(),
		RequestID: logger.RequestID(c),
	}
	if out.SessionToken != "" {
		http.SetCookie(c.Writer, h.Policy.SessionCookie(out.SessionToken))
		log.Info("email verified")
	} else {
		ev.Type = audit.EventEmailVerificationFailed
		ev.Message = out.Reason
		if out.Err != nil {
			log.Warn("email verification failed", "reason", out.Reason, "err", out.Err)
		}
	}
	h.Audit.Record(c.Request.Context(), ev)

	c.Header("Cache-Control", "no-store")
	c.Redirect(http.StatusFound, out.Location)
}

// ClearSession serves GET /api/auth/clear-session.
func (h Handlers) ClearSession(c *gin.Context) {
	http.SetCookie(c.Writer, h.Policy.Expired(auth.CookieName))
	http.SetCookie(c.Writer, h.Policy.Expired(HandleCookieName))

	h.Audit.Record(c.Request.Context(), audit.Event{
		Type:      audit.EventSessionCleared,
		IPAddress: c.ClientIP(),
		RequestID: logger.RequestID(c),
	})

	c.Header("Cache-Control", "no-store")
	c.Redirect(http.StatusFound, h.SigninPath)
}
