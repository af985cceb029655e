package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kaidoe/docchat/internal/middleware"
)

type RouterDeps struct {
	Sessions        *SessionHandler
	Uploads         *UploadHandler
	Chat            *ChatHandler
	Sources         *SourceHandler
	Files           *FileHandler
	JWTSecret       []byte
	RateLimitWindow time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/session", deps.Sessions.Create)

	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))

	aiGroup := authGroup.Group("")
	aiGroup.Use(middleware.RateLimit(deps.RateLimitWindow))
	aiGroup.POST("/documents/upload", deps.Uploads.Upload)
	aiGroup.POST("/chat", deps.Chat.Chat)

	authGroup.GET("/sources", deps.Sources.List)
	authGroup.DELETE("/sources/:id", deps.Sources.Delete)
	authGroup.GET("/collections", deps.Sources.Collections)
	authGroup.GET("/files/:key", deps.Files.Get)
}
