package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/kaidoe/docchat/internal/ai"
	appErr "github.com/kaidoe/docchat/internal/pkg/errors"
	"github.com/kaidoe/docchat/internal/model"
)

// Synthesizer builds the grounded answer prompt and runs the generator.
// Unlike hypothetical-answer generation there is no fallback here, a
// failed generation fails the chat turn.
type Synthesizer struct {
	generator    ai.IGenerator
	historyTurns int
}

func NewSynthesizer(generator ai.IGenerator, historyTurns int) *Synthesizer {
	return &Synthesizer{generator: generator, historyTurns: historyTurns}
}

func (s *Synthesizer) Answer(ctx context.Context, question string, history []model.Turn, chunks []model.RetrievedChunk) (string, error) {
	prompt := s.buildPrompt(question, history, chunks)
	answer, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", appErr.ErrGenerateFailed, err)
	}
	return strings.TrimSpace(answer), nil
}

func (s *Synthesizer) buildPrompt(question string, history []model.Turn, chunks []model.RetrievedChunk) string {
	blocks := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		blocks = append(blocks, fmt.Sprintf("[Source %d] (Relevance: %.3f)\n%s", i+1, chunk.Score, chunk.Content))
	}
	contextText := strings.Join(blocks, "\n\n---\n\n")
	historyText := renderHistory(model.LastTurns(history, s.historyTurns))

	var sb strings.Builder
	sb.WriteString("You are a smart assistant. Your job is to answer the user's question based on the provided context and conversation history.\n\n")
	sb.WriteString(fmt.Sprintf("Context from documents:\n%s\n\n", contextText))
	if historyText != "" {
		sb.WriteString(fmt.Sprintf("Previous conversation:\n%s\n\n", historyText))
	}
	sb.WriteString(fmt.Sprintf("Current question: %s\n\n", question))
	sb.WriteString(`Instructions:
- Answer based primarily on the provided context
- If the answer cannot be found in the context, say so clearly
- Be concise but comprehensive
- When providing links, use this format: [Link name](url)
- Cite which sources you're referencing when possible (e.g., "According to Source 1...")
- If multiple sources contradict each other, mention this

Answer:`)
	return sb.String()
}
