package ingest

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	appErr "github.com/kaidoe/docchat/internal/pkg/errors"
	"github.com/kaidoe/docchat/internal/model"
)

// DOCXIngestor pulls paragraph text out of word/document.xml inside the
// OOXML zip container.
type DOCXIngestor struct{}

func NewDOCXIngestor() *DOCXIngestor {
	return &DOCXIngestor{}
}

func (d *DOCXIngestor) Type() model.SourceType {
	return model.SourceTypeDOCX
}

func (d *DOCXIngestor) Ingest(ctx context.Context, in Input) ([]Record, error) {
	if len(in.Data) == 0 {
		return nil, fmt.Errorf("%w: empty docx payload", appErr.ErrInvalidFile)
	}
	reader, err := zip.NewReader(bytes.NewReader(in.Data), int64(len(in.Data)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a docx file", appErr.ErrInvalidFile)
	}
	content, err := extractDocumentText(reader)
	if err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: docx contains no text", appErr.ErrNoContent)
	}
	return []Record{{Text: content, Metadata: stamp(in, model.SourceTypeDOCX)}}, nil
}

func extractDocumentText(reader *zip.Reader) (string, error) {
	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("%w: unreadable docx entry", appErr.ErrInvalidFile)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("%w: unreadable docx entry", appErr.ErrInvalidFile)
		}
		return parseDocumentXML(content), nil
	}
	return "", nil
}

type documentXML struct {
	Body struct {
		Paragraphs []docxParagraph `xml:"p"`
	} `xml:"body"`
}

type docxParagraph struct {
	Runs []docxRun `xml:"r"`
}

type docxRun struct {
	Text []docxText `xml:"t"`
}

type docxText struct {
	Content string `xml:",chardata"`
}

func parseDocumentXML(content []byte) string {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return ""
	}
	var result strings.Builder
	for i, para := range doc.Body.Paragraphs {
		if i > 0 {
			result.WriteString("\n")
		}
		for _, run := range para.Runs {
			for _, text := range run.Text {
				result.WriteString(text.Content)
			}
		}
	}
	return result.String()
}
