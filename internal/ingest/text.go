package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"

	appErr "github.com/kaidoe/docchat/internal/pkg/errors"
	"github.com/kaidoe/docchat/internal/model"
)

// TextIngestor handles pasted text and .txt/.md uploads. Markdown files
// are reduced to plain text before chunking so formatting syntax does not
// pollute embeddings.
type TextIngestor struct{}

func NewTextIngestor() *TextIngestor {
	return &TextIngestor{}
}

func (t *TextIngestor) Type() model.SourceType {
	return model.SourceTypeText
}

func (t *TextIngestor) Ingest(ctx context.Context, in Input) ([]Record, error) {
	content := in.Text
	if content == "" && len(in.Data) > 0 {
		content = string(in.Data)
	}
	if strings.EqualFold(filepath.Ext(in.SourceName), ".md") {
		content = extractMarkdownText(content)
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: no text content provided", appErr.ErrNoContent)
	}
	return []Record{{Text: content, Metadata: stamp(in, model.SourceTypeText)}}, nil
}

// extractMarkdownText walks the goldmark AST and keeps only the textual
// content, block by block. Fenced code is preserved verbatim.
func extractMarkdownText(markdown string) string {
	md := goldmark.New()
	reader := gmtext.NewReader([]byte(markdown))
	doc := md.Parser().Parse(reader)

	var blocks []string
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		switch n := node.(type) {
		case *ast.FencedCodeBlock:
			var code strings.Builder
			for i := 0; i < n.Lines().Len(); i++ {
				line := n.Lines().At(i)
				code.Write(line.Value(reader.Source()))
			}
			if block := strings.TrimSpace(code.String()); block != "" {
				blocks = append(blocks, block)
			}
		default:
			if block := extractNodeText(node, reader.Source()); block != "" {
				blocks = append(blocks, block)
			}
		}
	}
	return strings.Join(blocks, "\n\n")
}

func extractNodeText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if node.Kind() == ast.KindText {
			sb.Write(node.(*ast.Text).Segment.Value(source))
			if node.(*ast.Text).SoftLineBreak() || node.(*ast.Text).HardLineBreak() {
				sb.WriteString("\n")
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}
