package rag

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaidoe/docchat/internal/ai"
	"github.com/kaidoe/docchat/internal/chunker"
	"github.com/kaidoe/docchat/internal/ingest"
	appErr "github.com/kaidoe/docchat/internal/pkg/errors"
	"github.com/kaidoe/docchat/internal/model"
	"github.com/kaidoe/docchat/internal/vectorstore"
)

type fakeGenerator struct {
	answers []string
	err     error
	prompts []string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	if len(f.answers) == 0 {
		return "", errors.New("no scripted answer")
	}
	answer := f.answers[0]
	f.answers = f.answers[1:]
	return answer, nil
}

// fakeEmbedder maps known texts to fixed vectors so similarity ordering
// in tests is fully deterministic.
type fakeEmbedder struct {
	vectors map[string][]float32
	dims    int
	tasks   []string
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	f.tasks = append(f.tasks, taskType)
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	v := make([]float32, f.dims)
	v[0] = 1
	return v, nil
}

func (f *fakeEmbedder) ModelName() string { return "fake-embed" }

func (f *fakeEmbedder) Dimensions() int { return f.dims }

func historyOf(contents ...string) []model.Turn {
	turns := make([]model.Turn, 0, len(contents))
	for i, c := range contents {
		role := model.RoleUser
		if i%2 == 1 {
			role = model.RoleAssistant
		}
		turns = append(turns, model.Turn{Role: role, Content: c})
	}
	return turns
}

func TestRenderHistory(t *testing.T) {
	text := renderHistory(historyOf("hi", "hello"))
	assert.Equal(t, "Human: hi\nAssistant: hello", text)
	assert.Equal(t, "", renderHistory(nil))
}

func TestHydeUsesGeneratedAnswer(t *testing.T) {
	gen := &fakeGenerator{answers: []string{"a sufficiently long hypothetical answer about the topic"}}
	h := NewHydeGenerator(gen, 4, 20, 0)
	query, hydeQuery := h.Query(context.Background(), "what is the topic?", nil)
	assert.Equal(t, "a sufficiently long hypothetical answer about the topic", query)
	assert.Equal(t, query, hydeQuery)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "Question: what is the topic?")
	assert.Contains(t, gen.prompts[0], "Hypothetical Answer:")
}

func TestHydeFallbackOnError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("model down")}
	h := NewHydeGenerator(gen, 4, 20, 0)
	query, hydeQuery := h.Query(context.Background(), "original question", nil)
	assert.Equal(t, "original question", query)
	assert.Empty(t, hydeQuery)
}

func TestHydeFallbackOnShortAnswer(t *testing.T) {
	gen := &fakeGenerator{answers: []string{"too short"}}
	h := NewHydeGenerator(gen, 4, 20, 0)
	query, hydeQuery := h.Query(context.Background(), "original question", nil)
	assert.Equal(t, "original question", query)
	assert.Empty(t, hydeQuery)
}

func TestHydeHistoryWindow(t *testing.T) {
	gen := &fakeGenerator{answers: []string{"a sufficiently long hypothetical answer text"}}
	h := NewHydeGenerator(gen, 4, 20, 0)
	history := historyOf("turn1", "turn2", "turn3", "turn4", "turn5", "turn6")
	h.Query(context.Background(), "q", history)
	require.Len(t, gen.prompts, 1)
	assert.NotContains(t, gen.prompts[0], "turn2")
	assert.Contains(t, gen.prompts[0], "turn3")
	assert.Contains(t, gen.prompts[0], "turn6")
}

func TestSynthesizerPromptShape(t *testing.T) {
	gen := &fakeGenerator{answers: []string{" the answer "}}
	s := NewSynthesizer(gen, 6)
	chunks := []model.RetrievedChunk{
		{Content: "first chunk", Score: 0.91234},
		{Content: "second chunk", Score: 0.5},
	}
	answer, err := s.Answer(context.Background(), "q", historyOf("earlier question", "earlier answer"), chunks)
	require.NoError(t, err)
	assert.Equal(t, "the answer", answer)
	require.Len(t, gen.prompts, 1)
	prompt := gen.prompts[0]
	assert.Contains(t, prompt, "[Source 1] (Relevance: 0.912)\nfirst chunk")
	assert.Contains(t, prompt, "[Source 2] (Relevance: 0.500)\nsecond chunk")
	assert.Contains(t, prompt, "\n\n---\n\n")
	assert.Contains(t, prompt, "Previous conversation:\nHuman: earlier question\nAssistant: earlier answer")
	assert.Contains(t, prompt, "Current question: q")
}

func TestSynthesizerHistoryWindow(t *testing.T) {
	gen := &fakeGenerator{answers: []string{"final answer"}}
	s := NewSynthesizer(gen, 6)
	history := historyOf(
		"turn01", "turn02", "turn03", "turn04", "turn05", "turn06",
		"turn07", "turn08", "turn09", "turn10", "turn11", "turn12",
	)
	_, err := s.Answer(context.Background(), "q", history, []model.RetrievedChunk{{Content: "c", Score: 1}})
	require.NoError(t, err)
	require.Len(t, gen.prompts, 1)
	prompt := gen.prompts[0]
	for _, absent := range []string{"turn01", "turn02", "turn03", "turn04", "turn05", "turn06"} {
		assert.NotContains(t, prompt, absent)
	}
	for _, present := range []string{"turn07", "turn08", "turn09", "turn10", "turn11", "turn12"} {
		assert.Contains(t, prompt, present)
	}
}

func TestSynthesizerErrorIsFatal(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("model down")}
	s := NewSynthesizer(gen, 6)
	_, err := s.Answer(context.Background(), "q", nil, []model.RetrievedChunk{{Content: "c", Score: 1}})
	assert.ErrorIs(t, err, appErr.ErrGenerateFailed)
}

func newTestPipeline(t *testing.T, gen *fakeGenerator, emb *fakeEmbedder, store vectorstore.Store) *Pipeline {
	t.Helper()
	return NewPipeline(
		NewHydeGenerator(gen, 4, 20, 0),
		NewRetriever(emb, store, 5),
		NewSynthesizer(gen, 6),
	)
}

func TestChatEndToEnd(t *testing.T) {
	emb := &fakeEmbedder{dims: 3, vectors: map[string][]float32{
		"cats are small carnivorous mammals": {1, 0, 0},
		"go is a programming language":       {0, 1, 0},
		"tell me about cats":                 {0.9, 0.1, 0},
	}}
	store := vectorstore.NewMemoryStore()
	splitter := chunker.New(1000, 200)
	indexer := NewIndexer(emb, store, splitter)

	count, err := indexer.Index(context.Background(), "col-1", []ingest.Record{
		{Text: "cats are small carnivorous mammals", Metadata: model.ChunkMetadata{Source: "cats.txt", Type: model.SourceTypeText}},
		{Text: "go is a programming language", Metadata: model.ChunkMetadata{Source: "go.txt", Type: model.SourceTypeText}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	gen := &fakeGenerator{answers: []string{"According to Source 1, cats are mammals."}}
	p := newTestPipeline(t, gen, emb, store)
	res, err := p.Chat(context.Background(), Request{
		Question:     "tell me about cats",
		CollectionID: "col-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "According to Source 1, cats are mammals.", res.Answer)
	require.NotEmpty(t, res.Sources)
	assert.Equal(t, "cats are small carnivorous mammals", res.Sources[0].Content)
	assert.Equal(t, "cats.txt", res.Sources[0].Metadata.Source)
	assert.Empty(t, res.HydeQuery)
}

func TestChatHydeRetainsHypotheticalAnswer(t *testing.T) {
	hypothetical := "cats are small carnivorous mammals kept as pets"
	emb := &fakeEmbedder{dims: 3, vectors: map[string][]float32{
		"cats are small carnivorous mammals": {1, 0, 0},
		hypothetical:                         {0.95, 0, 0},
	}}
	store := vectorstore.NewMemoryStore()
	indexer := NewIndexer(emb, store, chunker.New(1000, 200))
	_, err := indexer.Index(context.Background(), "col-1", []ingest.Record{
		{Text: "cats are small carnivorous mammals"},
	})
	require.NoError(t, err)

	gen := &fakeGenerator{answers: []string{hypothetical, "final grounded answer"}}
	p := newTestPipeline(t, gen, emb, store)
	res, err := p.Chat(context.Background(), Request{
		Question:     "tell me about cats",
		CollectionID: "col-1",
		UseHyde:      true,
	})
	require.NoError(t, err)
	assert.Equal(t, "final grounded answer", res.Answer)
	assert.Equal(t, hypothetical, res.HydeQuery)
	// first call generated the hypothetical answer, second synthesized
	require.Len(t, gen.prompts, 2)
	assert.Contains(t, gen.prompts[0], "Hypothetical Answer:")
	assert.Contains(t, gen.prompts[1], "Context from documents:")
}

func TestChatHydeFallbackStillAnswers(t *testing.T) {
	emb := &fakeEmbedder{dims: 3, vectors: map[string][]float32{
		"cats are small carnivorous mammals": {1, 0, 0},
		"tell me about cats":                 {0.9, 0, 0},
	}}
	store := vectorstore.NewMemoryStore()
	indexer := NewIndexer(emb, store, chunker.New(1000, 200))
	_, err := indexer.Index(context.Background(), "col-1", []ingest.Record{
		{Text: "cats are small carnivorous mammals"},
	})
	require.NoError(t, err)

	// hypothetical generation comes back too short, then synthesis succeeds
	gen := &fakeGenerator{answers: []string{"nope", "grounded answer"}}
	p := newTestPipeline(t, gen, emb, store)
	res, err := p.Chat(context.Background(), Request{
		Question:     "tell me about cats",
		CollectionID: "col-1",
		UseHyde:      true,
	})
	require.NoError(t, err)
	assert.Equal(t, "grounded answer", res.Answer)
	assert.Empty(t, res.HydeQuery)
}

// stallingGenerator hangs until its context is done.
type stallingGenerator struct{}

func (stallingGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestChatHydeStallDegradesToQuestion(t *testing.T) {
	emb := &fakeEmbedder{dims: 3, vectors: map[string][]float32{
		"cats are small carnivorous mammals": {1, 0, 0},
		"tell me about cats":                 {0.9, 0, 0},
	}}
	store := vectorstore.NewMemoryStore()
	indexer := NewIndexer(emb, store, chunker.New(1000, 200))
	_, err := indexer.Index(context.Background(), "col-1", []ingest.Record{
		{Text: "cats are small carnivorous mammals"},
	})
	require.NoError(t, err)

	// the hypothetical-answer call never returns on its own, synthesis
	// still has to run inside the turn deadline
	gen := &fakeGenerator{answers: []string{"grounded answer"}}
	p := NewPipeline(
		NewHydeGenerator(stallingGenerator{}, 4, 20, 0),
		NewRetriever(emb, store, 5),
		NewSynthesizer(gen, 6),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	res, err := p.Chat(ctx, Request{
		Question:     "tell me about cats",
		CollectionID: "col-1",
		UseHyde:      true,
	})
	require.NoError(t, err)
	assert.Equal(t, "grounded answer", res.Answer)
	assert.Empty(t, res.HydeQuery)
	require.NotEmpty(t, res.Sources)
}

func TestHydeStallRespectsConfiguredTimeout(t *testing.T) {
	h := NewHydeGenerator(stallingGenerator{}, 4, 20, 50*time.Millisecond)
	start := time.Now()
	query, hydeQuery := h.Query(context.Background(), "original question", nil)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, "original question", query)
	assert.Empty(t, hydeQuery)
}

func TestChatEmptyCollectionShortCircuits(t *testing.T) {
	emb := &fakeEmbedder{dims: 3}
	store := vectorstore.NewMemoryStore()
	require.NoError(t, store.EnsureCollection(context.Background(), "col-1", 3))

	gen := &fakeGenerator{}
	p := newTestPipeline(t, gen, emb, store)
	res, err := p.Chat(context.Background(), Request{
		Question:     "anything",
		CollectionID: "col-1",
	})
	require.NoError(t, err)
	assert.Equal(t, NoResultResponse, res.Answer)
	assert.NotNil(t, res.Sources)
	assert.Empty(t, res.Sources)
	// synthesis is never attempted without retrieved context
	assert.Empty(t, gen.prompts)
}

func TestIndexerSplitsLongRecords(t *testing.T) {
	emb := &fakeEmbedder{dims: 3}
	store := vectorstore.NewMemoryStore()
	indexer := NewIndexer(emb, store, chunker.New(100, 20))

	long := strings.Repeat("word ", 100)
	count, err := indexer.Index(context.Background(), "col-1", []ingest.Record{{Text: strings.TrimSpace(long)}})
	require.NoError(t, err)
	assert.Greater(t, count, 1)
	// every embed call during indexing used the document task type
	for _, task := range emb.tasks {
		assert.Equal(t, ai.TaskRetrievalDocument, task)
	}
}

func TestRetrieverUsesQueryTaskType(t *testing.T) {
	emb := &fakeEmbedder{dims: 3}
	store := vectorstore.NewMemoryStore()
	require.NoError(t, store.EnsureCollection(context.Background(), "col-1", 3))
	r := NewRetriever(emb, store, 5)
	_, err := r.Retrieve(context.Background(), "col-1", "query text")
	require.NoError(t, err)
	require.Len(t, emb.tasks, 1)
	assert.Equal(t, ai.TaskRetrievalQuery, emb.tasks[0])
}
