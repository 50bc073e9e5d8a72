package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"

	"session-gateway/internal/audit"
	"session-gateway/internal/auth"
	"session-gateway/internal/backend"
	"session-gateway/internal/config"
	"session-gateway/internal/media"
	"session-gateway/internal/ratelimit"
	"session-gateway/internal/session"
	"session-gateway/pkg/logger"

	"github.com/gin-gonic/gin"
)

const backendMount = "/api/backend"

type deps struct {
	cfg     config.Config
	backend *backend.Client
	audit   *audit.Service
	limiter *ratelimit.Limiter
}

// newEngine builds the gin engine. Forwarded client IPs are honoured only from
// TRUSTED_PROXIES; with none configured the socket peer is the client IP.
func newEngine(log *slog.Logger, d deps) (*gin.Engine, error) {
	r := gin.New()
	if err := r.SetTrustedProxies(d.cfg.App.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, d)
	return r, nil
}

// registerRoutes wires HTTP routes to handlers. Keep it free of business logic.
func registerRoutes(r *gin.Engine, d deps) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	gate := auth.Gate{
		Routes:     d.cfg.Routes.Protected,
		SigninPath: d.cfg.Routes.SigninPath,
		Audit:      d.audit,
	}

	sessions := session.Handlers{
		Relay:      session.Relay{Verifier: d.backend},
		Policy:     session.CookiePolicy{Secure: d.cfg.IsProduction()},
		SiteURL:    d.cfg.App.SiteURL,
		SigninPath: d.cfg.Routes.SigninPath,
		Audit:      d.audit,
	}
	tokens := media.TokenHandler{
		Issuer: media.NewIssuer(d.cfg.Media),
		Audit:  d.audit,
	}

	api := r.Group("/api")
	{
		api.GET("/verify-email", ratelimit.Middleware(d.limiter, "verify-email"), sessions.VerifyEmail)
		api.GET("/auth/clear-session", sessions.ClearSession)
		api.GET("/token/livekit", ratelimit.Middleware(d.limiter, "media-token"), tokens.Issue)
	}

	// Backend calls always need a session; the gate hands the cookie to the proxy as a bearer.
	r.Any(backendMount+"/*path", gate.RequireSession(), d.backend.Proxy(backendMount))

	// Pages: protected-route gate, then the front end.
	r.NoRoute(gate.Middleware(), pages(d.cfg.App.UIUpstreamURL))
}

func pages(upstream string) gin.HandlerFunc {
	if upstream == "" {
		return func(c *gin.Context) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		}
	}
	target, _ := url.Parse(upstream) // validated by config
	rp := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
		},
	}
	return func(c *gin.Context) {
		rp.ServeHTTP(c.Writer, c.Request)
	}
}
