package session

import (
	"net/http"
	"time"

	"session-gateway/internal/auth"
)

const (
	// HandleCookieName holds the signed-in user's handle for the front end.
	HandleCookieName = "handle"

	MaxAge = 30 * 24 * time.Hour
)

// CookiePolicy builds the session cookie.
//
// HttpOnly is off: front-end script reads the token to hand it to the media SDK.
// The cost is that the bearer is exposed to injected script.
type CookiePolicy struct {
	Secure bool
}

func (p CookiePolicy) SessionCookie(value string) *http.Cookie {
	return &http.Cookie{
		Name:     auth.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(MaxAge / time.Second),
		HttpOnly: false,
		Secure:   p.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Expired returns a cookie that deletes name from the browser.
func (p CookiePolicy) Expired(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   p.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
