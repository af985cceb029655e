package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/kaidoe/docchat/internal/config"
	"github.com/kaidoe/docchat/internal/model"
)

// Point is one embedded chunk written to a collection.
type Point struct {
	ID       string
	Vector   []float32
	Content  string
	Metadata model.ChunkMetadata
}

// ScoredPoint is a search hit. Score is cosine similarity, higher is more
// similar.
type ScoredPoint struct {
	Content  string
	Metadata model.ChunkMetadata
	Score    float32
}

// Store is an isolated-namespace vector index. A collection's
// dimensionality never changes after creation and EnsureCollection is
// idempotent. Search returns an empty slice, not an error, when nothing
// matches.
type Store interface {
	EnsureCollection(ctx context.Context, id string, dims int) error
	CollectionExists(ctx context.Context, id string) (bool, error)
	DeleteCollection(ctx context.Context, id string) error
	Upsert(ctx context.Context, collectionID string, points []Point) error
	Search(ctx context.Context, collectionID string, vector []float32, k int) ([]ScoredPoint, error)
}

type Factory func(args interface{}) (Store, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func Register(name string, factory Factory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registryMu.Lock()
	registry[key] = factory
	registryMu.Unlock()
}

func New(cfg config.VectorStoreConfig) (Store, error) {
	key := strings.ToLower(strings.TrimSpace(cfg.Type))
	if key == "" {
		return nil, fmt.Errorf("vector_store.type is required")
	}
	registryMu.RLock()
	factory := registry[key]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unsupported vector store type: %s", cfg.Type)
	}
	return factory(cfg.Data)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return nil
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode vector store config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode vector store config: %w", err)
	}
	return nil
}
