package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/kaidoe/docchat/internal/model"
)

// Record is one logical content unit produced by an ingestor: a PDF page,
// a pasted text blob, a scraped page body, a transcript. Records carry the
// full provenance their chunks will inherit.
type Record struct {
	Text     string
	Metadata model.ChunkMetadata
}

// Input is the raw material handed to an ingestor. Exactly one of Data,
// Text or URL is meaningful depending on the source type.
type Input struct {
	SourceName   string
	CollectionID string
	Data         []byte
	Text         string
	URL          string
}

// Ingestor normalizes one source format into ordered records. Zero
// records is reported as ErrNoContent by the implementation, never as an
// empty success.
type Ingestor interface {
	Type() model.SourceType
	Ingest(ctx context.Context, in Input) ([]Record, error)
}

// Registry holds one ingestor per source type. New formats are added by
// registering a new implementation, not by editing a dispatch switch.
type Registry struct {
	ingestors map[model.SourceType]Ingestor
}

func NewRegistry(ingestors ...Ingestor) *Registry {
	r := &Registry{ingestors: make(map[model.SourceType]Ingestor, len(ingestors))}
	for _, ing := range ingestors {
		if ing == nil {
			continue
		}
		r.ingestors[ing.Type()] = ing
	}
	return r
}

func (r *Registry) For(t model.SourceType) (Ingestor, error) {
	ing, ok := r.ingestors[t]
	if !ok {
		return nil, fmt.Errorf("unsupported source type: %s", t)
	}
	return ing, nil
}

func stamp(in Input, t model.SourceType) model.ChunkMetadata {
	return model.ChunkMetadata{
		Source:       in.SourceName,
		Type:         t,
		Timestamp:    time.Now().UnixMilli(),
		CollectionID: in.CollectionID,
	}
}
