package rag

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/kaidoe/docchat/internal/model"
)

// NoResultResponse is returned verbatim when retrieval finds nothing.
const NoResultResponse = "I couldn't find relevant information in the uploaded document to answer your question."

// Request is one chat turn against a single collection.
type Request struct {
	Question     string
	CollectionID string
	History      []model.Turn
	UseHyde      bool
}

// Result carries the answer plus the retrieval evidence. HydeQuery is the
// hypothetical answer used for retrieval, empty in direct mode or when
// generation fell back to the question.
type Result struct {
	Answer    string
	Sources   []model.RetrievedChunk
	HydeQuery string
}

// Pipeline is the two-stage chat flow: pick a retrieval query (the raw
// question, or a hypothetical answer to it), retrieve, then synthesize a
// grounded answer.
type Pipeline struct {
	hyde        *HydeGenerator
	retriever   *Retriever
	synthesizer *Synthesizer
}

func NewPipeline(hyde *HydeGenerator, retriever *Retriever, synthesizer *Synthesizer) *Pipeline {
	return &Pipeline{hyde: hyde, retriever: retriever, synthesizer: synthesizer}
}

func (p *Pipeline) Chat(ctx context.Context, req Request) (*Result, error) {
	query := req.Question
	hydeQuery := ""
	if req.UseHyde {
		query, hydeQuery = p.hyde.Query(ctx, req.Question, req.History)
	}

	chunks, err := p.retriever.Retrieve(ctx, req.CollectionID, query)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		logutil.GetLogger(ctx).Info("retrieval returned no chunks",
			zap.String("collection_id", req.CollectionID), zap.Bool("hyde", req.UseHyde))
		return &Result{Answer: NoResultResponse, Sources: []model.RetrievedChunk{}, HydeQuery: hydeQuery}, nil
	}

	answer, err := p.synthesizer.Answer(ctx, req.Question, req.History, chunks)
	if err != nil {
		return nil, err
	}
	return &Result{Answer: answer, Sources: chunks, HydeQuery: hydeQuery}, nil
}
