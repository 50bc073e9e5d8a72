package media

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"session-gateway/internal/audit"
	"session-gateway/internal/config"

	"github.com/gin-gonic/gin"
)

func newTokenRouter(h TokenHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/token/livekit", h.Issue)
	return r
}

func TestTokenHandler_IssuesForNamedParticipant(t *testing.T) {
	repo := audit.NewMemoryRepo()
	issuer := NewIssuer(config.MediaConfig{APIKey: "k", APISecret: "s", TokenTTL: time.Hour})
	r := newTokenRouter(TokenHandler{Issuer: issuer, Audit: audit.NewService(repo)})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/token/livekit?roomName=test-room&participantName=alice", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		Identity    string `json:"identity"`
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Identity != "alice" || body.AccessToken == "" {
		t.Fatalf("unexpected body %+v", body)
	}

	claims, err := issuer.Verify(body.AccessToken)
	if err != nil || claims.Video.Room != "test-room" {
		t.Fatalf("expected token for test-room, got %+v %v", claims, err)
	}

	evs := repo.Events()
	if len(evs) != 1 || evs[0].Type != audit.EventMediaTokenIssued || evs[0].Room != "test-room" || evs[0].Identity != "alice" {
		t.Fatalf("unexpected audit events %+v", evs)
	}
}

func TestTokenHandler_MissingCredentialsIs400(t *testing.T) {
	r := newTokenRouter(TokenHandler{Issuer: NewIssuer(config.MediaConfig{})})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/token/livekit", nil))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["statusMessage"] != "environment not set up" {
		t.Fatalf("unexpected body %v", body)
	}
}
