package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/kaidoe/docchat/internal/pkg/errcode"
	"github.com/kaidoe/docchat/internal/pkg/response"
	"github.com/kaidoe/docchat/internal/service"
)

type SourceHandler struct {
	sources  *service.SourceService
	sessions *service.SessionService
}

func NewSourceHandler(sources *service.SourceService, sessions *service.SessionService) *SourceHandler {
	return &SourceHandler{sources: sources, sessions: sessions}
}

func (h *SourceHandler) List(c *gin.Context) {
	sessionID := getSessionID(c)
	if _, err := h.sessions.Get(c.Request.Context(), sessionID); err != nil {
		handleError(c, err)
		return
	}
	sources, err := h.sources.List(c.Request.Context(), sessionID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"sources": sources})
}

func (h *SourceHandler) Delete(c *gin.Context) {
	sessionID := getSessionID(c)
	if _, err := h.sessions.Get(c.Request.Context(), sessionID); err != nil {
		handleError(c, err)
		return
	}
	sourceID := c.Param("id")
	if sourceID == "" {
		response.Error(c, errcode.ErrInvalid, "source id is required")
		return
	}
	if err := h.sources.Delete(c.Request.Context(), sessionID, sourceID); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}

func (h *SourceHandler) Collections(c *gin.Context) {
	sessionID := getSessionID(c)
	if _, err := h.sessions.Get(c.Request.Context(), sessionID); err != nil {
		handleError(c, err)
		return
	}
	ids, err := h.sources.Collections(c.Request.Context(), sessionID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"collections": ids})
}
