package session

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"session-gateway/internal/backend"
)

const (
	SuccessPath = "/email-verified/"
	FailurePath = "/auth/email-verified-failed/"

	MsgMissingToken       = "Missing token"
	MsgInvalidToken       = "Invalid token"
	MsgVerificationFailed = "Email verification failed"
)

// Verifier exchanges a one-time verification token for a session token.
type Verifier interface {
	VerifyEmail(ctx context.Context, token string) (string, error)
}

// Outcome is the terminal result of a verification attempt.
type Outcome struct {
	Location string
	// SessionToken is set only on success.
	SessionToken string
	// Reason is the message shown on the failure page; empty on success.
	Reason string
	// Err is the underlying failure, for logs only.
	Err error
}

// Relay turns email-verification callbacks into session cookies.
type Relay struct {
	Verifier Verifier
}

// HandleVerify makes at most one backend call and never retries.
// base is the absolute site origin redirects are built on.
func (r Relay) HandleVerify(ctx context.Context, token, base string) Outcome {
	if token == "" {
		return failure(base, MsgMissingToken, nil)
	}

	session, err := r.Verifier.VerifyEmail(ctx, token)
	if err != nil {
		fallback := MsgVerificationFailed
		if errors.Is(err, backend.ErrNoSessionToken) {
			fallback = MsgInvalidToken
		}
		return failure(base, backend.Message(err, fallback), err)
	}
	return Outcome{Location: base + SuccessPath, SessionToken: session}
}

func failure(base, reason string, err error) Outcome {
	return Outcome{
		Location: base + FailurePath + "?error=" + encodeComponent(reason),
		Reason:   reason,
		Err:      err,
	}
}

// encodeComponent query-escapes s with spaces as %20 rather than '+'. Unlike
// encodeURIComponent it also escapes !'()*; the decoded value is the same.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// RequestBase returns siteURL when set, otherwise scheme://host of r.
// X-Forwarded-Proto is honored for deployments behind a TLS-terminating proxy.
func RequestBase(r *http.Request, siteURL string) string {
	if siteURL != "" {
		return strings.TrimRight(siteURL, "/")
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p == "http" || p == "https" {
		scheme = p
	}
	return scheme + "://" + r.Host
}
