package service

import (
	"context"
	"io"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/kaidoe/docchat/internal/filestore"
	"github.com/kaidoe/docchat/internal/model"
	appErr "github.com/kaidoe/docchat/internal/pkg/errors"
	"github.com/kaidoe/docchat/internal/vectorstore"
)

type SourceService struct {
	sessions SessionStore
	sources  SourceStore
	store    vectorstore.Store
	files    filestore.Store
}

func NewSourceService(sessions SessionStore, sources SourceStore,
	store vectorstore.Store, files filestore.Store) *SourceService {
	return &SourceService{sessions: sessions, sources: sources, store: store, files: files}
}

func (s *SourceService) List(ctx context.Context, sessionID string) ([]*model.Source, error) {
	sources, err := s.sources.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sources == nil {
		sources = []*model.Source{}
	}
	return sources, nil
}

// Collections returns the queryable collection ids of a session, oldest
// first.
func (s *SourceService) Collections(ctx context.Context, sessionID string) ([]string, error) {
	sources, err := s.sources.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(sources))
	for _, source := range sources {
		ids = append(ids, source.CollectionID)
	}
	return ids, nil
}

// Delete removes the source row, its vector collection, its retained
// file and releases the session slot. Vector and file cleanup are
// best-effort once the row is gone.
func (s *SourceService) Delete(ctx context.Context, sessionID, sourceID string) error {
	source, err := s.sources.GetByID(ctx, sourceID)
	if err != nil {
		return err
	}
	if source.SessionID != sessionID {
		return appErr.ErrNotFound
	}
	if err := s.sources.Delete(ctx, sourceID); err != nil {
		return err
	}
	if err := s.sessions.DecrementSourceCount(ctx, sessionID); err != nil {
		logutil.GetLogger(ctx).Error("release source slot failed",
			zap.String("session_id", sessionID), zap.Error(err))
	}
	if err := s.store.DeleteCollection(ctx, source.CollectionID); err != nil {
		logutil.GetLogger(ctx).Warn("delete collection failed",
			zap.String("collection_id", source.CollectionID), zap.Error(err))
	}
	if source.FileKey != "" && s.files != nil {
		if err := s.files.Delete(ctx, source.FileKey); err != nil {
			logutil.GetLogger(ctx).Warn("delete retained file failed",
				zap.String("file_key", source.FileKey), zap.Error(err))
		}
	}
	return nil
}

// OpenFile streams a retained upload after checking the key belongs to
// the calling session.
func (s *SourceService) OpenFile(ctx context.Context, sessionID, fileKey string) (io.ReadCloser, *model.Source, error) {
	source, err := s.sources.GetByFileKey(ctx, fileKey)
	if err != nil {
		return nil, nil, err
	}
	if source.SessionID != sessionID {
		return nil, nil, appErr.ErrNotFound
	}
	rc, err := s.files.Open(ctx, fileKey)
	if err != nil {
		return nil, nil, err
	}
	return rc, source, nil
}
