package ingest

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"

	appErr "github.com/kaidoe/docchat/internal/pkg/errors"
	"github.com/kaidoe/docchat/internal/model"
)

// CSVIngestor turns every data row into a record, labelling each cell
// with its column header so the row remains meaningful on its own after
// chunking and retrieval.
type CSVIngestor struct{}

func NewCSVIngestor() *CSVIngestor {
	return &CSVIngestor{}
}

func (c *CSVIngestor) Type() model.SourceType {
	return model.SourceTypeCSV
}

func (c *CSVIngestor) Ingest(ctx context.Context, in Input) ([]Record, error) {
	reader := csv.NewReader(bytes.NewReader(in.Data))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: parse csv failed: %v", appErr.ErrInvalidFile, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: csv has no data rows", appErr.ErrNoContent)
	}
	header := rows[0]
	meta := stamp(in, model.SourceTypeCSV)
	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		var parts []string
		for i, cell := range row {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			name := fmt.Sprintf("column_%d", i+1)
			if i < len(header) && strings.TrimSpace(header[i]) != "" {
				name = strings.TrimSpace(header[i])
			}
			parts = append(parts, fmt.Sprintf("%s: %s", name, cell))
		}
		if len(parts) == 0 {
			continue
		}
		records = append(records, Record{Text: strings.Join(parts, "\n"), Metadata: meta})
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: csv has no non-empty rows", appErr.ErrNoContent)
	}
	return records, nil
}
