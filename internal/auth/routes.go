package auth

import (
	"net/http"
	"path"
	"strings"
)

// CookieName is the session cookie carrying the backend bearer token.
const CookieName = "token"

// IsProtected reports whether path equals or starts with any prefix in routes.
// Inputs are compared literally; callers normalize trailing slashes and case.
func IsProtected(routes []string, path string) bool {
	for _, prefix := range routes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Protect gates r against routes.
// Unprotected paths pass with an empty token. Protected paths need a non-empty session cookie
// and fail closed without one. The cookie is only checked for presence; the backend
// validates it on every call.
func Protect(routes []string, r *http.Request) (token string, ok bool) {
	if !IsProtected(routes, r.URL.Path) {
		return "", true
	}
	return SessionToken(r)
}

// SessionToken returns the session cookie value, if any.
func SessionToken(r *http.Request) (string, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

// CleanPath resolves dot segments and collapses repeated slashes so that
// IsProtected sees the path the upstream will serve. A trailing slash is kept.
func CleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if p[0] != '/' {
		p = "/" + p
	}
	np := path.Clean(p)
	if p[len(p)-1] == '/' && np != "/" {
		np += "/"
	}
	return np
}
