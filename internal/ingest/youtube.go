package ingest

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	appErr "github.com/kaidoe/docchat/internal/pkg/errors"
	"github.com/kaidoe/docchat/internal/model"
)

// YouTubeIngestor fetches a video transcript from the public timedtext
// endpoint. Title and author come from oEmbed and are best-effort, a
// missing transcript is a hard failure.
type YouTubeIngestor struct {
	client  *http.Client
	baseURL string
}

func NewYouTubeIngestor(timeout time.Duration) *YouTubeIngestor {
	return &YouTubeIngestor{
		client:  &http.Client{Timeout: timeout},
		baseURL: "https://www.youtube.com",
	}
}

func (y *YouTubeIngestor) Type() model.SourceType {
	return model.SourceTypeYouTube
}

func (y *YouTubeIngestor) Ingest(ctx context.Context, in Input) ([]Record, error) {
	videoID, err := extractVideoID(in.URL)
	if err != nil {
		return nil, err
	}
	captions, err := y.fetchTranscript(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if len(captions) == 0 {
		return nil, fmt.Errorf("%w: video %s has no transcript", appErr.ErrNoContent, videoID)
	}

	var parts []string
	for _, cap := range captions {
		text := strings.TrimSpace(html.UnescapeString(cap.Text))
		if text != "" {
			parts = append(parts, text)
		}
	}
	transcript := strings.Join(parts, " ")
	if transcript == "" {
		return nil, fmt.Errorf("%w: video %s transcript is empty", appErr.ErrNoContent, videoID)
	}

	meta := stamp(in, model.SourceTypeYouTube)
	last := captions[len(captions)-1]
	meta.Duration = int(last.Start + last.Dur)
	if title, author, err := y.fetchOEmbed(ctx, videoID); err != nil {
		logutil.GetLogger(ctx).Warn("fetch video oembed failed", zap.String("video_id", videoID), zap.Error(err))
	} else {
		meta.Title = title
		meta.Author = author
	}
	return []Record{{Text: transcript, Metadata: meta}}, nil
}

// extractVideoID accepts watch, youtu.be, shorts and embed link shapes.
func extractVideoID(raw string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || parsed.Host == "" {
		return "", fmt.Errorf("%w: %s", appErr.ErrInvalidURL, raw)
	}
	host := strings.TrimPrefix(strings.ToLower(parsed.Host), "www.")
	switch host {
	case "youtu.be":
		if id := strings.Trim(parsed.Path, "/"); id != "" {
			return id, nil
		}
	case "youtube.com", "m.youtube.com", "music.youtube.com":
		if parsed.Path == "/watch" {
			if id := parsed.Query().Get("v"); id != "" {
				return id, nil
			}
		}
		for _, prefix := range []string{"/shorts/", "/embed/", "/live/"} {
			if strings.HasPrefix(parsed.Path, prefix) {
				if id := strings.Trim(strings.TrimPrefix(parsed.Path, prefix), "/"); id != "" {
					return id, nil
				}
			}
		}
	}
	return "", fmt.Errorf("%w: not a recognized youtube link: %s", appErr.ErrInvalidURL, raw)
}

type timedTextCaption struct {
	Start float64 `xml:"start,attr"`
	Dur   float64 `xml:"dur,attr"`
	Text  string  `xml:",chardata"`
}

type timedTextDocument struct {
	XMLName  xml.Name           `xml:"transcript"`
	Captions []timedTextCaption `xml:"text"`
}

func (y *YouTubeIngestor) fetchTranscript(ctx context.Context, videoID string) ([]timedTextCaption, error) {
	endpoint := fmt.Sprintf("%s/api/timedtext?lang=en&v=%s", y.baseURL, url.QueryEscape(videoID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build transcript request failed: %w", err)
	}
	rsp, err := y.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch transcript failed: %w", err)
	}
	defer rsp.Body.Close()
	if rsp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch transcript failed, status: %d", rsp.StatusCode)
	}
	raw, err := io.ReadAll(io.LimitReader(rsp.Body, maxFetchBytes))
	if err != nil {
		return nil, fmt.Errorf("read transcript body failed: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var doc timedTextDocument
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse transcript xml failed: %w", err)
	}
	return doc.Captions, nil
}

func (y *YouTubeIngestor) fetchOEmbed(ctx context.Context, videoID string) (string, string, error) {
	endpoint := fmt.Sprintf("%s/oembed?format=json&url=%s", y.baseURL,
		url.QueryEscape("https://www.youtube.com/watch?v="+videoID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", "", err
	}
	rsp, err := y.client.Do(req)
	if err != nil {
		return "", "", err
	}
	defer rsp.Body.Close()
	if rsp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("oembed status: %d", rsp.StatusCode)
	}
	var payload struct {
		Title      string `json:"title"`
		AuthorName string `json:"author_name"`
	}
	if err := json.NewDecoder(rsp.Body).Decode(&payload); err != nil {
		return "", "", err
	}
	return payload.Title, payload.AuthorName, nil
}
