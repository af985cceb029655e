package ingest

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	appErr "github.com/kaidoe/docchat/internal/pkg/errors"
	"github.com/kaidoe/docchat/internal/model"
)

const maxFetchBytes = 10 << 20

// URLIngestor fetches a web page and reduces it to readable text.
type URLIngestor struct {
	client   *http.Client
	maxBytes int64
}

func NewURLIngestor(timeout time.Duration) *URLIngestor {
	return &URLIngestor{client: &http.Client{Timeout: timeout}, maxBytes: maxFetchBytes}
}

func (u *URLIngestor) Type() model.SourceType {
	return model.SourceTypeURL
}

func (u *URLIngestor) Ingest(ctx context.Context, in Input) ([]Record, error) {
	parsed, err := url.Parse(strings.TrimSpace(in.URL))
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, fmt.Errorf("%w: %s", appErr.ErrInvalidURL, in.URL)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", appErr.ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", "docchat/1.0")
	rsp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch url failed: %w", err)
	}
	defer rsp.Body.Close()
	if rsp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch url failed, status: %d", rsp.StatusCode)
	}
	// read one byte past the cap so truncation is detectable
	raw, err := io.ReadAll(io.LimitReader(rsp.Body, u.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read response body failed: %w", err)
	}
	if int64(len(raw)) > u.maxBytes {
		return nil, fmt.Errorf("%w: page exceeds %d bytes", appErr.ErrFileTooLarge, u.maxBytes)
	}

	page := string(raw)
	content := stripHTML(page)
	if content == "" {
		return nil, fmt.Errorf("%w: page has no readable text", appErr.ErrNoContent)
	}
	meta := stamp(in, model.SourceTypeURL)
	if title := extractHTMLTitle(page); title != "" {
		meta.Title = title
	}
	return []Record{{Text: content, Metadata: meta}}, nil
}

var (
	titleTag          = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	scriptTag         = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleTag          = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	noscriptTag       = regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`)
	headTag           = regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`)
	svgTag            = regexp.MustCompile(`(?is)<svg[^>]*>.*?</svg>`)
	htmlComments      = regexp.MustCompile(`(?s)<!--.*?-->`)
	openBlockElements = regexp.MustCompile(`(?i)<(p|div|h[1-6]|li|tr|blockquote|pre|table|section|article)[^>]*>`)
	closeBlockElements = regexp.MustCompile(`(?i)</(p|div|br|hr|h[1-6]|li|tr|blockquote|pre|table|section|article)>`)
	brTags        = regexp.MustCompile(`(?i)<br\s*/?>`)
	hrTags        = regexp.MustCompile(`(?i)<hr\s*/?>`)
	allTags       = regexp.MustCompile(`<[^>]+>`)
	multiSpaces   = regexp.MustCompile(`[ \t]+`)
	multiNewlines = regexp.MustCompile(`\n{3,}`)
)

func extractHTMLTitle(content string) string {
	matches := titleTag.FindStringSubmatch(content)
	if len(matches) > 1 {
		return strings.TrimSpace(html.UnescapeString(matches[1]))
	}
	return ""
}

// stripHTML removes markup and keeps readable text, one trimmed line per
// block element.
func stripHTML(content string) string {
	content = scriptTag.ReplaceAllString(content, "")
	content = styleTag.ReplaceAllString(content, "")
	content = noscriptTag.ReplaceAllString(content, "")
	content = headTag.ReplaceAllString(content, "")
	content = svgTag.ReplaceAllString(content, "")
	content = htmlComments.ReplaceAllString(content, "")
	content = openBlockElements.ReplaceAllString(content, "\n")
	content = closeBlockElements.ReplaceAllString(content, "\n")
	content = brTags.ReplaceAllString(content, "\n")
	content = hrTags.ReplaceAllString(content, "\n")
	content = allTags.ReplaceAllString(content, "")
	content = html.UnescapeString(content)
	content = multiSpaces.ReplaceAllString(content, " ")
	content = multiNewlines.ReplaceAllString(content, "\n\n")

	lines := strings.Split(content, "\n")
	var kept []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
