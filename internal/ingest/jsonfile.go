package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	appErr "github.com/kaidoe/docchat/internal/pkg/errors"
	"github.com/kaidoe/docchat/internal/model"
)

// JSONIngestor flattens an uploaded JSON document into "path: value"
// lines. Nested keys are joined with dots and array elements indexed,
// so retrieval can surface any leaf value with its full path.
type JSONIngestor struct{}

func NewJSONIngestor() *JSONIngestor {
	return &JSONIngestor{}
}

func (j *JSONIngestor) Type() model.SourceType {
	return model.SourceTypeJSON
}

func (j *JSONIngestor) Ingest(ctx context.Context, in Input) ([]Record, error) {
	var root interface{}
	if err := json.Unmarshal(in.Data, &root); err != nil {
		return nil, fmt.Errorf("%w: parse json failed: %v", appErr.ErrInvalidFile, err)
	}
	var lines []string
	flattenJSON("", root, &lines)
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: json document is empty", appErr.ErrNoContent)
	}
	text := strings.Join(lines, "\n")
	return []Record{{Text: text, Metadata: stamp(in, model.SourceTypeJSON)}}, nil
}

func flattenJSON(prefix string, v interface{}, out *[]string) {
	switch val := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			flattenJSON(joinPath(prefix, k), val[k], out)
		}
	case []interface{}:
		for i, item := range val {
			flattenJSON(fmt.Sprintf("%s[%d]", prefix, i), item, out)
		}
	case nil:
		*out = append(*out, fmt.Sprintf("%s: null", prefix))
	case string:
		if strings.TrimSpace(val) == "" {
			return
		}
		*out = append(*out, fmt.Sprintf("%s: %s", prefix, val))
	default:
		*out = append(*out, fmt.Sprintf("%s: %v", prefix, val))
	}
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
