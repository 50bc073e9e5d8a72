package media

import (
	"errors"
	"fmt"
	"time"

	"session-gateway/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotConfigured means the signing key pair is missing. Its text is shown to clients.
var ErrNotConfigured = errors.New("environment not set up")

const DefaultTTL = 6 * time.Hour

// Issuer mints room-scoped media access tokens.
type Issuer struct {
	apiKey    string
	apiSecret []byte
	ttl       time.Duration
	clock     func() time.Time
}

// NewIssuer never fails: missing credentials are reported by IssueToken on each call.
func NewIssuer(cfg config.MediaConfig) *Issuer {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{
		apiKey:    cfg.APIKey,
		apiSecret: []byte(cfg.APISecret),
		ttl:       ttl,
		clock:     time.Now,
	}
}

// Token is the result of a successful issue.
type Token struct {
	Identity    string `json:"identity"`
	AccessToken string `json:"accessToken"`
}

// IssueToken signs a token for participantName in roomName.
// Empty names are replaced with random ones (room-XXXX-XXXX, identity-XXXX).
// The second result is the resolved room name.
func (i *Issuer) IssueToken(roomName, participantName string) (Token, string, error) {
	if i.apiKey == "" || len(i.apiSecret) == 0 {
		return Token{}, "", ErrNotConfigured
	}
	if roomName == "" {
		roomName = randomRoomName()
	}
	if participantName == "" {
		participantName = randomIdentity()
	}

	now := i.clock()
	grant := ParticipantGrant(roomName)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.apiKey,
			Subject:   participantName,
			ID:        participantName,
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		Video: &grant,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.apiSecret)
	if err != nil {
		return Token{}, "", fmt.Errorf("sign media token: %w", err)
	}
	return Token{Identity: participantName, AccessToken: signed}, roomName, nil
}

// Verify parses a token minted by this issuer and checks signature, issuer and lifetime.
func (i *Issuer) Verify(tokenString string) (Claims, error) {
	if i.apiKey == "" || len(i.apiSecret) == 0 {
		return Claims{}, ErrNotConfigured
	}

	var claims Claims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.apiKey),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.clock),
		jwt.WithLeeway(30*time.Second),
	)
	if _, err := parser.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return i.apiSecret, nil
	}); err != nil {
		return Claims{}, err
	}
	if claims.Video == nil || claims.Video.Room == "" {
		return Claims{}, errors.New("video grant missing")
	}
	return claims, nil
}
