package rag

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kaidoe/docchat/internal/ai"
	"github.com/kaidoe/docchat/internal/chunker"
	"github.com/kaidoe/docchat/internal/ingest"
	"github.com/kaidoe/docchat/internal/vectorstore"
)

// Indexer turns ingested records into stored vector points: split, embed
// with the document task type, upsert into the target collection.
type Indexer struct {
	embedder ai.IEmbedder
	store    vectorstore.Store
	splitter *chunker.Splitter
}

func NewIndexer(embedder ai.IEmbedder, store vectorstore.Store, splitter *chunker.Splitter) *Indexer {
	return &Indexer{embedder: embedder, store: store, splitter: splitter}
}

// Index writes all chunks of the records into collectionID and returns
// the chunk count. The collection is created on first use with the
// embedder's dimensionality.
func (idx *Indexer) Index(ctx context.Context, collectionID string, records []ingest.Record) (int, error) {
	if err := idx.store.EnsureCollection(ctx, collectionID, idx.embedder.Dimensions()); err != nil {
		return 0, fmt.Errorf("ensure collection: %w", err)
	}
	var points []vectorstore.Point
	for _, rec := range records {
		for _, piece := range idx.splitter.Split(rec.Text) {
			vector, err := idx.embedder.Embed(ctx, piece, ai.TaskRetrievalDocument)
			if err != nil {
				return 0, fmt.Errorf("embed chunk: %w", err)
			}
			points = append(points, vectorstore.Point{
				ID:       uuid.NewString(),
				Vector:   vector,
				Content:  piece,
				Metadata: rec.Metadata,
			})
		}
	}
	if len(points) == 0 {
		return 0, nil
	}
	if err := idx.store.Upsert(ctx, collectionID, points); err != nil {
		return 0, fmt.Errorf("upsert points: %w", err)
	}
	return len(points), nil
}
