package auth

import (
	"net/http"
	"net/url"

	"session-gateway/internal/audit"
	"session-gateway/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Gate applies the protected-route list to incoming requests.
type Gate struct {
	Routes     []string
	SigninPath string
	Audit      *audit.Service
}

// Middleware checks the protected-route list. Allowed requests carry the session token
// (if any) on their context. Denied page loads are redirected to sign-in, everything else gets 401.
func (g Gate) Middleware() gin.HandlerFunc {
	return g.handle(func(r *http.Request) (string, bool) { return Protect(g.Routes, r) })
}

// RequireSession is Middleware for a group that is protected as a whole.
func (g Gate) RequireSession() gin.HandlerFunc {
	return g.handle(SessionToken)
}

func (g Gate) handle(check func(*http.Request) (string, bool)) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Everything downstream, including the upstream proxies, sees the cleaned path.
		c.Request.URL.Path = CleanPath(c.Request.URL.Path)
		c.Request.URL.RawPath = ""

		token, ok := check(c.Request)
		if !ok {
			g.deny(c)
			return
		}
		if token == "" {
			// Public routes still forward a session when one is present.
			token, _ = SessionToken(c.Request)
		}
		if token != "" {
			c.Request = c.Request.WithContext(WithToken(c.Request.Context(), token))
		}
		c.Next()
	}
}

func (g Gate) deny(c *gin.Context) {
	path := c.Request.URL.Path
	logger.FromGin(c).Debug("session required", "path", path)
	g.Audit.Record(c.Request.Context(), audit.Event{
		Type:      audit.EventAccessDenied,
		Path:      path,
		IPAddress: c.ClientIP(),
		RequestID: logger.RequestID(c),
		Message:   "missing session cookie",
	})

	if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
		c.Redirect(http.StatusFound, g.SigninPath+"?redirect="+url.QueryEscape(c.Request.URL.RequestURI()))
		c.Abort()
		return
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session required"})
}
