package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/kaidoe/docchat/internal/pkg/response"
	"github.com/kaidoe/docchat/internal/service"
)

type SessionHandler struct {
	sessions *service.SessionService
}

func NewSessionHandler(sessions *service.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

type createSessionResponse struct {
	Token     string `json:"token"`
	SessionID string `json:"session_id"`
	ExpiresAt int64  `json:"expires_at"`
}

func (h *SessionHandler) Create(c *gin.Context) {
	token, session, err := h.sessions.Create(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, createSessionResponse{
		Token:     token,
		SessionID: session.ID,
		ExpiresAt: session.ExpiresAt,
	})
}
