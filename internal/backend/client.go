package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	HeaderProductID = "X-Product-Id"

	verifyEmailPath = "/auth/verify-email"

	// maxBody bounds how much of any response is decoded.
	maxBody = 1 << 20
)

var (
	ErrUpstreamStatus    = errors.New("backend: non-2xx response")
	ErrMalformedResponse = errors.New("backend: malformed response")
	ErrNoSessionToken    = errors.New("backend: response carried no session token")
)

// Error is a backend failure with the message the backend reported, if any.
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend: status %d: %v", e.Status, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Message returns the backend-reported message carried by err, or fallback.
func Message(err error, fallback string) string {
	var be *Error
	if errors.As(err, &be) && be.Message != "" {
		return be.Message
	}
	return fallback
}

type Config struct {
	BaseURL   string
	ProductID string
	Timeout   time.Duration
}

// Client talks JSON to the backend API. It holds no credentials;
// callers pass the bearer token for each call.
type Client struct {
	baseURL   *url.URL
	productID string
	http      *http.Client
}

func New(cfg Config) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("backend: invalid base url %q", cfg.BaseURL)
	}
	return &Client{
		baseURL:   u,
		productID: cfg.ProductID,
		http:      &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// envelope is the backend's response shape.
type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

func (e envelope) message() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

// Do sends a JSON request and decodes the envelope's data into out (when non-nil).
// bearer is sent as the Authorization header when non-empty.
func (c *Client) Do(ctx context.Context, method, path, bearer string, in, out any) (string, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return "", fmt.Errorf("backend: encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return "", fmt.Errorf("backend: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.decorate(req.Header, bearer)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("backend: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(&env)
		return "", &Error{Status: resp.StatusCode, Message: env.message(), Err: ErrUpstreamStatus}
	}
	if resp.StatusCode == http.StatusNoContent {
		return "", nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(&env); err != nil {
		return "", &Error{Status: resp.StatusCode, Err: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
	}
	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return "", &Error{Status: resp.StatusCode, Message: env.message(), Err: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
		}
	}
	return env.message(), nil
}

type verifyEmailRequest struct {
	Token string `json:"token"`
}

type sessionData struct {
	Token string `json:"token"`
}

// VerifyEmail exchanges a one-time verification token for a session token.
// Single use is enforced by the backend; this call is never retried.
func (c *Client) VerifyEmail(ctx context.Context, token string) (string, error) {
	var data sessionData
	msg, err := c.Do(ctx, http.MethodPost, verifyEmailPath, "", verifyEmailRequest{Token: token}, &data)
	if err != nil {
		return "", err
	}
	if data.Token == "" {
		return "", &Error{Status: http.StatusOK, Message: msg, Err: ErrNoSessionToken}
	}
	return data.Token, nil
}

func (c *Client) url(path string) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	return u.String()
}

func (c *Client) decorate(h http.Header, bearer string) {
	if c.productID != "" {
		h.Set(HeaderProductID, c.productID)
	}
	if bearer != "" {
		h.Set("Authorization", "Bearer "+bearer)
	}
}
