package service

import (
	"context"

	"github.com/kaidoe/docchat/internal/model"
)

// SessionStore is the session persistence surface the services need,
// satisfied by repo.SessionRepo.
type SessionStore interface {
	Create(ctx context.Context, session *model.Session) error
	GetByID(ctx context.Context, sessionID string) (*model.Session, error)
	IncrementSourceCount(ctx context.Context, sessionID string, maxSources int) error
	DecrementSourceCount(ctx context.Context, sessionID string) error
}

// SourceStore is the source persistence surface, satisfied by
// repo.SourceRepo.
type SourceStore interface {
	Create(ctx context.Context, source *model.Source) error
	GetByID(ctx context.Context, sourceID string) (*model.Source, error)
	GetByCollectionID(ctx context.Context, collectionID string) (*model.Source, error)
	GetByFileKey(ctx context.Context, fileKey string) (*model.Source, error)
	ListBySession(ctx context.Context, sessionID string) ([]*model.Source, error)
	Delete(ctx context.Context, sourceID string) error
}
