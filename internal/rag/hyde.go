package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/kaidoe/docchat/internal/ai"
	"github.com/kaidoe/docchat/internal/model"
)

const hydeMinChars = 20

// HydeGenerator writes a hypothetical answer to the question and hands it
// back as the retrieval query. A short or failed generation degrades to
// the original question, never to an error.
type HydeGenerator struct {
	generator    ai.IGenerator
	historyTurns int
	minChars     int
	timeout      time.Duration
}

func NewHydeGenerator(generator ai.IGenerator, historyTurns int, minChars int, timeout time.Duration) *HydeGenerator {
	if minChars <= 0 {
		minChars = hydeMinChars
	}
	return &HydeGenerator{generator: generator, historyTurns: historyTurns, minChars: minChars, timeout: timeout}
}

// Query returns the text to embed for retrieval. The second return is the
// hypothetical answer actually produced, empty when generation fell back.
func (h *HydeGenerator) Query(ctx context.Context, question string, history []model.Turn) (string, string) {
	prompt := h.buildPrompt(question, history)
	genCtx, cancel := h.generateContext(ctx)
	answer, err := h.generator.Generate(genCtx, prompt)
	cancel()
	if err != nil {
		logutil.GetLogger(ctx).Warn("generate hypothetical answer failed, fallback to question", zap.Error(err))
		return question, ""
	}
	answer = strings.TrimSpace(answer)
	if len(answer) < h.minChars {
		logutil.GetLogger(ctx).Debug("hypothetical answer too short, fallback to question",
			zap.Int("length", len(answer)))
		return question, ""
	}
	return answer, answer
}

// generateContext bounds the hypothetical-answer call to at most half of
// the remaining turn deadline, so a stalled provider still leaves live
// context for retrieval with the fallback question.
func (h *HydeGenerator) generateContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := h.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if half := time.Until(deadline) / 2; timeout <= 0 || half < timeout {
			timeout = half
		}
	}
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (h *HydeGenerator) buildPrompt(question string, history []model.Turn) string {
	historyText := renderHistory(model.LastTurns(history, h.historyTurns))
	var sb strings.Builder
	sb.WriteString("You are an expert assistant. Based on the conversation context and the current question, write a comprehensive hypothetical answer that would likely contain the information the user is looking for.\n\n")
	if historyText != "" {
		sb.WriteString(fmt.Sprintf("Previous conversation:\n%s\n\n", historyText))
	}
	sb.WriteString(fmt.Sprintf("Question: %s\n\n", question))
	sb.WriteString("Write a small hypothetical answer that covers the key aspects someone would typically want to know about this question. This answer will be used to find relevant documents, so include various terms and concepts that might appear in relevant documents.\n\n")
	sb.WriteString("Hypothetical Answer:")
	return sb.String()
}
