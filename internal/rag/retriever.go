package rag

import (
	"context"
	"fmt"

	"github.com/kaidoe/docchat/internal/ai"
	"github.com/kaidoe/docchat/internal/model"
	"github.com/kaidoe/docchat/internal/vectorstore"
)

// Retriever embeds a query with the query task type and returns the top
// scored chunks of one collection.
type Retriever struct {
	embedder ai.IEmbedder
	store    vectorstore.Store
	topK     int
}

func NewRetriever(embedder ai.IEmbedder, store vectorstore.Store, topK int) *Retriever {
	return &Retriever{embedder: embedder, store: store, topK: topK}
}

func (r *Retriever) Retrieve(ctx context.Context, collectionID string, query string) ([]model.RetrievedChunk, error) {
	vector, err := r.embedder.Embed(ctx, query, ai.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	hits, err := r.store.Search(ctx, collectionID, vector, r.topK)
	if err != nil {
		return nil, fmt.Errorf("search collection: %w", err)
	}
	chunks := make([]model.RetrievedChunk, 0, len(hits))
	for _, hit := range hits {
		chunks = append(chunks, model.RetrievedChunk{
			Content:  hit.Content,
			Metadata: hit.Metadata,
			Score:    hit.Score,
		})
	}
	return chunks, nil
}
