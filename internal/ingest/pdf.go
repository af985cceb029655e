package ingest

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	appErr "github.com/kaidoe/docchat/internal/pkg/errors"
	"github.com/kaidoe/docchat/internal/model"
)

// CommandRunner abstracts external tool execution so tests can substitute
// canned output.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// PDFIngestor extracts text with the poppler pdftotext tool, one record
// per page.
type PDFIngestor struct {
	runner CommandRunner
}

func NewPDFIngestor(runner CommandRunner) *PDFIngestor {
	if runner == nil {
		runner = execRunner{}
	}
	return &PDFIngestor{runner: runner}
}

func (p *PDFIngestor) Type() model.SourceType {
	return model.SourceTypePDF
}

func (p *PDFIngestor) Ingest(ctx context.Context, in Input) ([]Record, error) {
	if len(in.Data) == 0 {
		return nil, fmt.Errorf("%w: empty pdf payload", appErr.ErrInvalidFile)
	}
	if !bytes.HasPrefix(in.Data, []byte("%PDF-")) {
		return nil, fmt.Errorf("%w: not a pdf file", appErr.ErrInvalidFile)
	}

	tmpPath, cleanup, err := saveTempFile("upload-*.pdf", in.Data)
	if err != nil {
		return nil, fmt.Errorf("write temp pdf: %w", err)
	}
	defer cleanup()

	out, err := p.runner.Run(ctx, "pdftotext", "-layout", "-enc", "UTF-8", tmpPath, "-")
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}

	// pdftotext separates pages with form feeds.
	pages := strings.Split(string(out), "\f")
	records := make([]Record, 0, len(pages))
	for i, page := range pages {
		page = strings.TrimSpace(page)
		if page == "" {
			continue
		}
		meta := stamp(in, model.SourceTypePDF)
		meta.Page = i + 1
		records = append(records, Record{Text: page, Metadata: meta})
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: pdf contains no extractable text", appErr.ErrNoContent)
	}
	return records, nil
}
