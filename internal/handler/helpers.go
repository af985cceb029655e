package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/kaidoe/docchat/internal/ai"
	"github.com/kaidoe/docchat/internal/middleware"
	"github.com/kaidoe/docchat/internal/pkg/errcode"
	appErr "github.com/kaidoe/docchat/internal/pkg/errors"
	"github.com/kaidoe/docchat/internal/pkg/response"
)

func getSessionID(c *gin.Context) string {
	value, _ := c.Get(middleware.ContextSessionIDKey)
	sessionID, _ := value.(string)
	return sessionID
}

// classifyError maps an app error to its response code and a safe,
// client-facing message. Anything unrecognized stays an opaque internal
// error, wrapped provider text never reaches the client.
func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, appErr.ErrUnauthorized):
		return errcode.ErrUnauthorized, "unauthorized"
	case errors.Is(err, appErr.ErrNotFound):
		return errcode.ErrNotFound, "not found"
	case errors.Is(err, appErr.ErrUploadLimit):
		return errcode.ErrUploadLimit, "session source limit reached"
	case errors.Is(err, appErr.ErrFileTooLarge):
		return errcode.ErrInvalidFile, "file too large"
	case errors.Is(err, appErr.ErrInvalidFile):
		return errcode.ErrInvalidFile, "invalid file"
	case errors.Is(err, appErr.ErrInvalidURL):
		return errcode.ErrInvalidURL, "invalid url"
	case errors.Is(err, appErr.ErrNoContent):
		return errcode.ErrNoContent, "no content could be extracted"
	case errors.Is(err, appErr.ErrGenerateFailed):
		return errcode.ErrGenerateFailed, "failed to generate response"
	case errors.Is(err, ai.ErrUnavailable):
		return errcode.ErrAIUnavailable, "ai backend unavailable"
	case errors.Is(err, appErr.ErrInvalid):
		return errcode.ErrInvalid, "invalid request"
	default:
		return errcode.ErrInternal, "internal error"
	}
}

func errorMessage(err error) string {
	_, msg := classifyError(err)
	return msg
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("session_id", getSessionID(c)),
		zap.Error(err))
	code, msg := classifyError(err)
	response.Error(c, code, msg)
}
