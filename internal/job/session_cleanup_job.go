package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/kaidoe/docchat/internal/filestore"
	"github.com/kaidoe/docchat/internal/repo"
	"github.com/kaidoe/docchat/internal/vectorstore"
)

const cleanupBatchSize = 100

// SessionCleanupJob removes expired sessions together with their
// sources, vector collections and retained files.
type SessionCleanupJob struct {
	sessions *repo.SessionRepo
	sources  *repo.SourceRepo
	store    vectorstore.Store
	files    filestore.Store
}

func NewSessionCleanupJob(sessions *repo.SessionRepo, sources *repo.SourceRepo,
	store vectorstore.Store, files filestore.Store) *SessionCleanupJob {
	return &SessionCleanupJob{sessions: sessions, sources: sources, store: store, files: files}
}

func (j *SessionCleanupJob) Name() string {
	return "session_cleanup"
}

func (j *SessionCleanupJob) Run(ctx context.Context) error {
	now := time.Now().UnixMilli()
	for {
		expired, err := j.sessions.ListExpired(ctx, now, cleanupBatchSize)
		if err != nil {
			return err
		}
		if len(expired) == 0 {
			return nil
		}
		for _, session := range expired {
			j.cleanupSession(ctx, session.ID)
		}
		if len(expired) < cleanupBatchSize {
			return nil
		}
	}
}

func (j *SessionCleanupJob) cleanupSession(ctx context.Context, sessionID string) {
	logger := logutil.GetLogger(ctx).With(zap.String("session_id", sessionID))
	sources, err := j.sources.ListBySession(ctx, sessionID)
	if err != nil {
		logger.Error("list sources for cleanup failed", zap.Error(err))
		return
	}
	for _, source := range sources {
		if err := j.store.DeleteCollection(ctx, source.CollectionID); err != nil {
			logger.Warn("delete collection failed",
				zap.String("collection_id", source.CollectionID), zap.Error(err))
		}
		if source.FileKey != "" && j.files != nil {
			if err := j.files.Delete(ctx, source.FileKey); err != nil {
				logger.Warn("delete retained file failed",
					zap.String("file_key", source.FileKey), zap.Error(err))
			}
		}
		if err := j.sources.Delete(ctx, source.ID); err != nil {
			logger.Error("delete source failed", zap.String("source_id", source.ID), zap.Error(err))
		}
	}
	if err := j.sessions.Delete(ctx, sessionID); err != nil {
		logger.Error("delete session failed", zap.Error(err))
		return
	}
	logger.Info("expired session cleaned", zap.Int("source_count", len(sources)))
}
