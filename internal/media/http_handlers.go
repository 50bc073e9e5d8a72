package media

import (
	"errors"
	"net/http"

	"session-gateway/internal/audit"
	"session-gateway/pkg/logger"

	"github.com/gin-gonic/gin"
)

// TokenHandler serves GET /api/token/livekit.
type TokenHandler struct {
	Issuer *Issuer
	Audit  *audit.Service
}

func (h TokenHandler) Issue(c *gin.Context) {
	log := logger.FromGin(c)

	if h.Issuer == nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"statusMessage": ErrNotConfigured.Error()})
		return
	}

	tok, room, err := h.Issuer.IssueToken(c.Query("roomName"), c.Query("participantName"))
	if err != nil {
		if errors.Is(err, ErrNotConfigured) {
			log.Warn("media token requested without signing credentials")
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"statusMessage": err.Error()})
			return
		}
		log.Error("media token issue failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"statusMessage": err.Error()})
		return
	}

	h.Audit.Record(c.Request.Context(), audit.Event{
		Type:      audit.EventMediaTokenIssued,
		Identity:  tok.Identity,
		Room:      room,
		IPAddress: c.ClientIP(),
		RequestID: logger.RequestID(c),
	})

	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, tok)
}
