package service

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/kaidoe/docchat/internal/filestore"
	"github.com/kaidoe/docchat/internal/ingest"
	"github.com/kaidoe/docchat/internal/model"
	appErr "github.com/kaidoe/docchat/internal/pkg/errors"
	"github.com/kaidoe/docchat/internal/rag"
	"github.com/kaidoe/docchat/internal/vectorstore"
)

// AddSourceRequest describes one new source. Data is set for file
// uploads, Text for pasted text, URL for web pages and videos.
type AddSourceRequest struct {
	Name string
	Type model.SourceType
	Data []byte
	Text string
	URL  string
}

// IngestService owns the upload path: claim a session slot, normalize,
// chunk, embed, index, then record the source. Each source gets its own
// collection so a failed or deleted source never touches its siblings.
type IngestService struct {
	sessions   SessionStore
	sources    SourceStore
	registry   *ingest.Registry
	indexer    *rag.Indexer
	store      vectorstore.Store
	files      filestore.Store
	maxSources int
	maxBytes   int64
}

func NewIngestService(sessions SessionStore, sources SourceStore, registry *ingest.Registry,
	indexer *rag.Indexer, store vectorstore.Store, files filestore.Store, maxSources int, maxBytes int64) *IngestService {
	return &IngestService{
		sessions:   sessions,
		sources:    sources,
		registry:   registry,
		indexer:    indexer,
		store:      store,
		files:      files,
		maxSources: maxSources,
		maxBytes:   maxBytes,
	}
}

// SourceTypeForFilename maps an upload filename to its ingestor.
func SourceTypeForFilename(name string) (model.SourceType, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return model.SourceTypePDF, nil
	case ".docx":
		return model.SourceTypeDOCX, nil
	case ".txt", ".md":
		return model.SourceTypeText, nil
	case ".csv":
		return model.SourceTypeCSV, nil
	case ".json":
		return model.SourceTypeJSON, nil
	}
	return "", fmt.Errorf("%w: unsupported file extension: %s", appErr.ErrInvalidFile, filepath.Ext(name))
}

func (s *IngestService) Add(ctx context.Context, sessionID string, req AddSourceRequest) (*model.Source, error) {
	if !req.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown source type: %s", appErr.ErrInvalid, req.Type)
	}
	if s.maxBytes > 0 && int64(len(req.Data)) > s.maxBytes {
		return nil, fmt.Errorf("%w: upload exceeds %d bytes", appErr.ErrFileTooLarge, s.maxBytes)
	}
	ingestor, err := s.registry.For(req.Type)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrInvalid, err)
	}

	// Claim the slot up front so the cap holds under concurrent uploads
	// and no ingestion work starts past the limit.
	if err := s.sessions.IncrementSourceCount(ctx, sessionID, s.maxSources); err != nil {
		return nil, err
	}

	source, err := s.ingestOne(ctx, sessionID, ingestor, req)
	if err != nil {
		if derr := s.sessions.DecrementSourceCount(ctx, sessionID); derr != nil {
			logutil.GetLogger(ctx).Error("release source slot failed",
				zap.String("session_id", sessionID), zap.Error(derr))
		}
		return nil, err
	}
	return source, nil
}

func (s *IngestService) ingestOne(ctx context.Context, sessionID string, ingestor ingest.Ingestor, req AddSourceRequest) (*model.Source, error) {
	collectionID := uuid.NewString()
	records, err := ingestor.Ingest(ctx, ingest.Input{
		SourceName:   req.Name,
		CollectionID: collectionID,
		Data:         req.Data,
		Text:         req.Text,
		URL:          req.URL,
	})
	if err != nil {
		return nil, err
	}

	chunkCount, err := s.indexer.Index(ctx, collectionID, records)
	if err != nil {
		s.dropCollection(ctx, collectionID)
		return nil, err
	}
	if chunkCount == 0 {
		s.dropCollection(ctx, collectionID)
		return nil, fmt.Errorf("%w: source produced no chunks", appErr.ErrNoContent)
	}

	fileKey := ""
	if len(req.Data) > 0 && s.files != nil {
		fileKey = uuid.NewString() + strings.ToLower(filepath.Ext(req.Name))
		payload := bytes.NewReader(req.Data)
		if err := s.files.Save(ctx, fileKey, nopSeekCloser{payload}, int64(len(req.Data))); err != nil {
			logutil.GetLogger(ctx).Warn("retain original upload failed",
				zap.String("file_key", fileKey), zap.Error(err))
			fileKey = ""
		}
	}

	source := &model.Source{
		ID:           uuid.NewString(),
		SessionID:    sessionID,
		CollectionID: collectionID,
		Name:         req.Name,
		Type:         req.Type,
		ChunkCount:   chunkCount,
		FileKey:      fileKey,
		Ctime:        time.Now().UnixMilli(),
	}
	if err := s.sources.Create(ctx, source); err != nil {
		s.dropCollection(ctx, collectionID)
		return nil, err
	}
	logutil.GetLogger(ctx).Info("source ingested",
		zap.String("session_id", sessionID),
		zap.String("source_id", source.ID),
		zap.String("type", string(source.Type)),
		zap.Int("chunk_count", chunkCount))
	return source, nil
}

func (s *IngestService) dropCollection(ctx context.Context, collectionID string) {
	if err := s.store.DeleteCollection(ctx, collectionID); err != nil {
		logutil.GetLogger(ctx).Warn("cleanup collection failed",
			zap.String("collection_id", collectionID), zap.Error(err))
	}
}

type nopSeekCloser struct {
	*bytes.Reader
}

func (nopSeekCloser) Close() error { return nil }
