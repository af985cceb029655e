package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPgvectorEnsureCollectionRejectsWrongDims(t *testing.T) {
	// mismatched dims must fail before any database work
	s := NewPgvectorStore(nil)
	err := s.EnsureCollection(context.Background(), "col-1", 1536)
	assert.ErrorContains(t, err, "vector(768)")
	assert.Error(t, s.EnsureCollection(context.Background(), "col-1", 0))
}
