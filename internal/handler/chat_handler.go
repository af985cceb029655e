package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/kaidoe/docchat/internal/model"
	"github.com/kaidoe/docchat/internal/pkg/errcode"
	"github.com/kaidoe/docchat/internal/pkg/response"
	"github.com/kaidoe/docchat/internal/service"
)

const snippetMaxChars = 200

type ChatHandler struct {
	chat     *service.ChatService
	sessions *service.SessionService
}

func NewChatHandler(chat *service.ChatService, sessions *service.SessionService) *ChatHandler {
	return &ChatHandler{chat: chat, sessions: sessions}
}

type chatRequest struct {
	Message             string       `json:"message"`
	CollectionID        string       `json:"collection_id"`
	ConversationHistory []model.Turn `json:"conversation_history"`
	UseHyde             *bool        `json:"use_hyde"`
}

type chatSource struct {
	Content  string              `json:"content"`
	Metadata model.ChunkMetadata `json:"metadata"`
	Score    float32             `json:"score"`
}

type chatResponse struct {
	Response  string       `json:"response"`
	Sources   []chatSource `json:"sources"`
	HydeQuery string       `json:"hyde_query,omitempty"`
}

func (h *ChatHandler) Chat(c *gin.Context) {
	sessionID := getSessionID(c)
	if _, err := h.sessions.Get(c.Request.Context(), sessionID); err != nil {
		handleError(c, err)
		return
	}
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	useHyde := true
	if req.UseHyde != nil {
		useHyde = *req.UseHyde
	}
	result, err := h.chat.Chat(c.Request.Context(), sessionID, service.ChatRequest{
		Message:      req.Message,
		CollectionID: req.CollectionID,
		History:      req.ConversationHistory,
		UseHyde:      useHyde,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	sources := make([]chatSource, 0, len(result.Sources))
	for _, chunk := range result.Sources {
		sources = append(sources, chatSource{
			Content:  snippet(chunk.Content),
			Metadata: chunk.Metadata,
			Score:    chunk.Score,
		})
	}
	response.Success(c, chatResponse{
		Response:  result.Answer,
		Sources:   sources,
		HydeQuery: result.HydeQuery,
	})
}

func snippet(content string) string {
	runes := []rune(content)
	if len(runes) <= snippetMaxChars {
		return content
	}
	return string(runes[:snippetMaxChars]) + "..."
}
