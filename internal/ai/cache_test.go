package ai

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	calls int
}

func (c *countingEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	c.calls++
	return []float32{1, 2, 3}, nil
}

func (c *countingEmbedder) ModelName() string { return "counting" }

func (c *countingEmbedder) Dimensions() int { return 3 }

func TestLRUEmbedderCachesByTextAndTask(t *testing.T) {
	inner := &countingEmbedder{}
	cached := WrapLRUCacheToEmbedder(inner, 16, time.Minute)

	v1, err := cached.Embed(context.Background(), "hello", TaskRetrievalDocument)
	require.NoError(t, err)
	v2, err := cached.Embed(context.Background(), "hello", TaskRetrievalDocument)
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
	assert.Equal(t, 1, inner.calls)

	// a different task type is a different cache entry
	_, err = cached.Embed(context.Background(), "hello", TaskRetrievalQuery)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)

	_, err = cached.Embed(context.Background(), "other", TaskRetrievalDocument)
	require.NoError(t, err)
	assert.Equal(t, 3, inner.calls)
}

func TestLRUEmbedderReturnsCopies(t *testing.T) {
	inner := &countingEmbedder{}
	cached := WrapLRUCacheToEmbedder(inner, 16, time.Minute)

	v1, err := cached.Embed(context.Background(), "hello", TaskRetrievalDocument)
	require.NoError(t, err)
	v1[0] = 99
	v2, err := cached.Embed(context.Background(), "hello", TaskRetrievalDocument)
	require.NoError(t, err)
	assert.Equal(t, float32(1), v2[0])
}

func TestWrapLRUCacheDisabled(t *testing.T) {
	inner := &countingEmbedder{}
	assert.Equal(t, IEmbedder(inner), WrapLRUCacheToEmbedder(inner, 0, time.Minute))
	assert.Equal(t, IEmbedder(inner), WrapLRUCacheToEmbedder(inner, 16, 0))
}
