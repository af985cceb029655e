package handler

import (
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/kaidoe/docchat/internal/model"
	"github.com/kaidoe/docchat/internal/pkg/errcode"
	"github.com/kaidoe/docchat/internal/pkg/response"
	"github.com/kaidoe/docchat/internal/service"
)

type UploadHandler struct {
	ingest   *service.IngestService
	sessions *service.SessionService
	maxBytes int64
}

func NewUploadHandler(ingest *service.IngestService, sessions *service.SessionService, maxBytes int64) *UploadHandler {
	return &UploadHandler{ingest: ingest, sessions: sessions, maxBytes: maxBytes}
}

type uploadResultItem struct {
	Name         string `json:"name"`
	SourceID     string `json:"source_id,omitempty"`
	CollectionID string `json:"collection_id,omitempty"`
	ChunkCount   int    `json:"chunk_count,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Upload accepts one multipart request carrying file parts, pasted text
// or a url, depending on the form's type field. Each source is processed
// on its own, one failure never aborts its siblings.
func (h *UploadHandler) Upload(c *gin.Context) {
	sessionID := getSessionID(c)
	if _, err := h.sessions.Get(c.Request.Context(), sessionID); err != nil {
		handleError(c, err)
		return
	}

	sourceType := model.SourceType(strings.TrimSpace(c.PostForm("type")))
	switch sourceType {
	case model.SourceTypeText:
		h.addText(c, sessionID)
	case model.SourceTypeURL, model.SourceTypeYouTube:
		h.addURL(c, sessionID, sourceType)
	default:
		h.addFiles(c, sessionID)
	}
}

func (h *UploadHandler) addText(c *gin.Context, sessionID string) {
	text := c.PostForm("text")
	name := strings.TrimSpace(c.PostForm("name"))
	if name == "" {
		name = "pasted text"
	}
	source, err := h.ingest.Add(c.Request.Context(), sessionID, service.AddSourceRequest{
		Name: name,
		Type: model.SourceTypeText,
		Text: text,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, []uploadResultItem{sourceResult(source)})
}

func (h *UploadHandler) addURL(c *gin.Context, sessionID string, sourceType model.SourceType) {
	rawURL := strings.TrimSpace(c.PostForm("url"))
	name := strings.TrimSpace(c.PostForm("name"))
	if name == "" {
		name = rawURL
	}
	source, err := h.ingest.Add(c.Request.Context(), sessionID, service.AddSourceRequest{
		Name: name,
		Type: sourceType,
		URL:  rawURL,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, []uploadResultItem{sourceResult(source)})
}

func (h *UploadHandler) addFiles(c *gin.Context, sessionID string) {
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, errcode.ErrInvalid, "multipart form is required")
		return
	}
	files := form.File["file"]
	if len(files) == 0 {
		response.Error(c, errcode.ErrInvalid, "at least one file is required")
		return
	}

	results := make([]uploadResultItem, 0, len(files))
	for _, fh := range files {
		item := uploadResultItem{Name: fh.Filename}
		sourceType, err := service.SourceTypeForFilename(fh.Filename)
		if err != nil {
			item.Error = errorMessage(err)
			results = append(results, item)
			continue
		}
		if h.maxBytes > 0 && fh.Size > h.maxBytes {
			item.Error = "file too large"
			results = append(results, item)
			continue
		}
		opened, err := fh.Open()
		if err != nil {
			item.Error = "failed to open file"
			results = append(results, item)
			continue
		}
		data, err := io.ReadAll(opened)
		_ = opened.Close()
		if err != nil {
			item.Error = "failed to read file"
			results = append(results, item)
			continue
		}
		source, err := h.ingest.Add(c.Request.Context(), sessionID, service.AddSourceRequest{
			Name: fh.Filename,
			Type: sourceType,
			Data: data,
		})
		if err != nil {
			logutil.GetLogger(c.Request.Context()).Error("ingest file failed",
				zap.String("name", fh.Filename), zap.Error(err))
			item.Error = errorMessage(err)
			results = append(results, item)
			continue
		}
		results = append(results, sourceResult(source))
	}
	response.Success(c, results)
}

func sourceResult(source *model.Source) uploadResultItem {
	return uploadResultItem{
		Name:         source.Name,
		SourceID:     source.ID,
		CollectionID: source.CollectionID,
		ChunkCount:   source.ChunkCount,
	}
}
