package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type recorded struct {
	method, path, contentType, product, auth string
	body                                     map[string]string
}

func newBackend(t *testing.T, status int, respBody string) (*httptest.Server, *recorded) {
	t.Helper()
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.contentType = r.Header.Get("Content-Type")
		rec.product = r.Header.Get(HeaderProductID)
		rec.auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&rec.body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(respBody))
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func TestVerifyEmail_ReturnsSessionToken(t *testing.T) {
	srv, rec := newBackend(t, http.StatusOK, `{"data":{"token":"abc"}}`)
	c, err := New(Config{BaseURL: srv.URL + "/", ProductID: "prod-1"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	tok, err := c.VerifyEmail(context.Background(), "verify-123")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if tok != "abc" {
		t.Fatalf("expected abc, got %q", tok)
	}
	if rec.method != http.MethodPost || rec.path != "/auth/verify-email" {
		t.Fatalf("unexpected request %s %s", rec.method, rec.path)
	}
	if rec.contentType != "application/json" {
		t.Fatalf("unexpected content type %q", rec.contentType)
	}
	if rec.product != "prod-1" {
		t.Fatalf("expected product header, got %q", rec.product)
	}
	if rec.auth != "" {
		t.Fatalf("verification must not carry a bearer, got %q", rec.auth)
	}
	if rec.body["token"] != "verify-123" {
		t.Fatalf("unexpected body %v", rec.body)
	}
}

func TestVerifyEmail_OmitsProductHeaderWhenUnset(t *testing.T) {
	srv, rec := newBackend(t, http.StatusOK, `{"data":{"token":"abc"}}`)
	c, _ := New(Config{BaseURL: srv.URL})
	if _, err := c.VerifyEmail(context.Background(), "t"); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if rec.product != "" {
		t.Fatalf("expected no product header, got %q", rec.product)
	}
}

func TestVerifyEmail_Non2xxCarriesBackendMessage(t *testing.T) {
	srv, _ := newBackend(t, http.StatusGone, `{"message":"Token expired"}`)
	c, _ := New(Config{BaseURL: srv.URL})

	_, err := c.VerifyEmail(context.Background(), "t")
	if !errors.Is(err, ErrUpstreamStatus) {
		t.Fatalf("expected ErrUpstreamStatus, got %v", err)
	}
	var be *Error
	if !errors.As(err, &be) || be.Status != http.StatusGone {
		t.Fatalf("expected *Error with status, got %v", err)
	}
	if got := Message(err, "fallback"); got != "Token expired" {
		t.Fatalf("expected backend message, got %q", got)
	}
}

func TestVerifyEmail_MissingTokenInResponse(t *testing.T) {
	srv, _ := newBackend(t, http.StatusOK, `{"data":{},"message":"Already verified"}`)
	c, _ := New(Config{BaseURL: srv.URL})

	_, err := c.VerifyEmail(context.Background(), "t")
	if !errors.Is(err, ErrNoSessionToken) {
		t.Fatalf("expected ErrNoSessionToken, got %v", err)
	}
	if got := Message(err, "Invalid token"); got != "Already verified" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestVerifyEmail_MalformedBody(t *testing.T) {
	srv, _ := newBackend(t, http.StatusOK, `not json`)
	c, _ := New(Config{BaseURL: srv.URL})

	_, err := c.VerifyEmail(context.Background(), "t")
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
	if got := Message(err, "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
}

func TestVerifyEmail_TransportError(t *testing.T) {
	srv, _ := newBackend(t, http.StatusOK, `{}`)
	c, _ := New(Config{BaseURL: srv.URL})
	srv.Close()

	if _, err := c.VerifyEmail(context.Background(), "t"); err == nil {
		t.Fatalf("expected transport error")
	}
}

func TestDo_SendsBearer(t *testing.T) {
	srv, rec := newBackend(t, http.StatusOK, `{"data":{"name":"space"}}`)
	c, _ := New(Config{BaseURL: srv.URL + "/v1"})

	var out struct {
		Name string `json:"name"`
	}
	if _, err := c.Do(context.Background(), http.MethodGet, "/spaces/1", "sess", nil, &out); err != nil {
		t.Fatalf("do: %v", err)
	}
	if rec.auth != "Bearer sess" || rec.path != "/v1/spaces/1" {
		t.Fatalf("unexpected request auth=%q path=%q", rec.auth, rec.path)
	}
	if out.Name != "space" {
		t.Fatalf("unexpected data %+v", out)
	}
}

func TestNew_RejectsBadBaseURL(t *testing.T) {
	if _, err := New(Config{BaseURL: "not a url"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestVerifyEmail_OversizedSuccessBodyIsMalformed(t *testing.T) {
	huge := `{"data":{"token":"abc"},"message":"` + strings.Repeat("a", maxBody) + `"}`
	srv, _ := newBackend(t, http.StatusOK, huge)
	c, _ := New(Config{BaseURL: srv.URL})

	if _, err := c.VerifyEmail(context.Background(), "t"); !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse for body over limit, got %v", err)
	}
}
