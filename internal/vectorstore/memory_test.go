package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreEnsureCollectionIdempotent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.EnsureCollection(ctx, "col-1", 3))
	require.NoError(t, store.EnsureCollection(ctx, "col-1", 3))

	exists, err := store.CollectionExists(ctx, "col-1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMemoryStoreEnsureCollectionDimsMismatch(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.EnsureCollection(ctx, "col-1", 3))
	err := store.EnsureCollection(ctx, "col-1", 4)
	require.Error(t, err)
}

func TestMemoryStoreSearchEmptyCollection(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.EnsureCollection(ctx, "col-1", 3))
	results, err := store.Search(ctx, "col-1", []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMemoryStoreSearchOrdering(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.EnsureCollection(ctx, "col-1", 3))

	points := []Point{
		{ID: "a", Vector: []float32{1, 0, 0}, Content: "exact"},
		{ID: "b", Vector: []float32{0, 1, 0}, Content: "orthogonal"},
		{ID: "c", Vector: []float32{1, 1, 0}, Content: "diagonal"},
	}
	require.NoError(t, store.Upsert(ctx, "col-1", points))

	results, err := store.Search(ctx, "col-1", []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "exact", results[0].Content)
	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i].Score, results[i-1].Score)
	}
}

func TestMemoryStoreSearchLimitsToK(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.EnsureCollection(ctx, "col-1", 2))

	points := []Point{
		{ID: "a", Vector: []float32{1, 0}},
		{ID: "b", Vector: []float32{0.9, 0.1}},
		{ID: "c", Vector: []float32{0.8, 0.2}},
	}
	require.NoError(t, store.Upsert(ctx, "col-1", points))

	results, err := store.Search(ctx, "col-1", []float32{1, 0}, 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestMemoryStoreUpsertDimsMismatch(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.EnsureCollection(ctx, "col-1", 3))

	err := store.Upsert(ctx, "col-1", []Point{{ID: "a", Vector: []float32{1, 0}}})
	require.Error(t, err)
}

func TestMemoryStoreDeleteCollection(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.EnsureCollection(ctx, "col-1", 2))
	require.NoError(t, store.DeleteCollection(ctx, "col-1"))

	exists, err := store.CollectionExists(ctx, "col-1")
	require.NoError(t, err)
	assert.False(t, exists)
}
