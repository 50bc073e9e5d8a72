package backend

import (
	"net/http"
	"net/http/httputil"
	"strings"

	"session-gateway/internal/auth"
	"session-gateway/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Proxy forwards requests under mountPrefix to the backend with the mount stripped.
// The session token that the gate put on the request context becomes the bearer;
// browser cookies are not forwarded.
func (c *Client) Proxy(mountPrefix string) gin.HandlerFunc {
	rp := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.Out.URL.Path = strings.TrimPrefix(pr.In.URL.Path, mountPrefix)
			pr.Out.URL.RawPath = ""
			pr.SetURL(c.baseURL)
			pr.SetXForwarded()

			pr.Out.Header.Del("Cookie")
			pr.Out.Header.Del("Authorization")
			bearer, _ := auth.Token(pr.In.Context())
			c.decorate(pr.Out.Header, bearer)
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.From(r.Context()).Warn("backend proxy failed", "path", r.URL.Path, "err", err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"error":"backend unavailable"}`))
		},
	}

	return func(ctx *gin.Context) {
		// A cleaned path like /api/backend/../x has left the mount.
		p := ctx.Request.URL.Path
		if p != mountPrefix && !strings.HasPrefix(p, mountPrefix+"/") {
			ctx.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		rp.ServeHTTP(ctx.Writer, ctx.Request)
	}
}
