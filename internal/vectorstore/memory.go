package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// memoryStore is a brute-force cosine store. It backs tests and local
// development where no Qdrant or Postgres is available.
type memoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
}

type memoryCollection struct {
	dims   int
	points []Point
}

func init() {
	Register("memory", func(args interface{}) (Store, error) {
		return NewMemoryStore(), nil
	})
}

func NewMemoryStore() Store {
	return &memoryStore{collections: make(map[string]*memoryCollection)}
}

func (s *memoryStore) EnsureCollection(ctx context.Context, id string, dims int) error {
	if dims <= 0 {
		return fmt.Errorf("invalid dimension %d", dims)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.collections[id]; ok {
		if existing.dims != dims {
			return fmt.Errorf("collection %s exists with dims %d, requested %d", id, existing.dims, dims)
		}
		return nil
	}
	s.collections[id] = &memoryCollection{dims: dims}
	return nil
}

func (s *memoryStore) CollectionExists(ctx context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.collections[id]
	return ok, nil
}

func (s *memoryStore) DeleteCollection(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, id)
	return nil
}

func (s *memoryStore) Upsert(ctx context.Context, collectionID string, points []Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	col, ok := s.collections[collectionID]
	if !ok {
		return fmt.Errorf("collection %s does not exist", collectionID)
	}
	for _, p := range points {
		if len(p.Vector) != col.dims {
			return fmt.Errorf("vector dimension mismatch: got %d, want %d", len(p.Vector), col.dims)
		}
	}
	col.points = append(col.points, points...)
	return nil
}

func (s *memoryStore) Search(ctx context.Context, collectionID string, vector []float32, k int) ([]ScoredPoint, error) {
	if k <= 0 {
		k = 5
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	col, ok := s.collections[collectionID]
	if !ok {
		return []ScoredPoint{}, nil
	}
	results := make([]ScoredPoint, 0, len(col.points))
	for _, p := range col.points {
		results = append(results, ScoredPoint{
			Content:  p.Content,
			Metadata: p.Metadata,
			Score:    cosineSimilarity(vector, p.Vector),
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func cosineSimilarity(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
