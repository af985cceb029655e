package handler

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kaidoe/docchat/internal/service"
)

type FileHandler struct {
	sources *service.SourceService
}

func NewFileHandler(sources *service.SourceService) *FileHandler {
	return &FileHandler{sources: sources}
}

// Get streams a retained upload back to its owning session.
func (h *FileHandler) Get(c *gin.Context) {
	key := c.Param("key")
	if key == "" || strings.Contains(key, "/") || strings.Contains(key, "\\") {
		c.Status(http.StatusBadRequest)
		return
	}
	rc, source, err := h.sources.OpenFile(c.Request.Context(), getSessionID(c), key)
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	defer rc.Close()
	contentType := mime.TypeByExtension(filepath.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", `attachment; filename="`+source.Name+`"`)
	_, _ = io.Copy(c.Writer, rc)
}
