package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kaidoe/docchat/internal/model"
	appErr "github.com/kaidoe/docchat/internal/pkg/errors"
	"github.com/kaidoe/docchat/internal/rag"
)

// ChatRequest is one question against one of the session's collections.
// History is supplied by the client, the server stores no conversation
// state.
type ChatRequest struct {
	Message      string
	CollectionID string
	History      []model.Turn
	UseHyde      bool
}

type ChatService struct {
	sources  SourceStore
	pipeline *rag.Pipeline
	timeout  time.Duration
}

func NewChatService(sources SourceStore, pipeline *rag.Pipeline, timeout time.Duration) *ChatService {
	return &ChatService{sources: sources, pipeline: pipeline, timeout: timeout}
}

func (s *ChatService) Chat(ctx context.Context, sessionID string, req ChatRequest) (*rag.Result, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, fmt.Errorf("%w: message is required", appErr.ErrInvalid)
	}
	if req.CollectionID == "" {
		return nil, fmt.Errorf("%w: collection_id is required", appErr.ErrInvalid)
	}
	source, err := s.sources.GetByCollectionID(ctx, req.CollectionID)
	if err != nil {
		return nil, err
	}
	if source.SessionID != sessionID {
		return nil, appErr.ErrNotFound
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.pipeline.Chat(ctx, rag.Request{
		Question:     req.Message,
		CollectionID: req.CollectionID,
		History:      req.History,
		UseHyde:      req.UseHyde,
	})
}
