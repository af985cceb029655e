package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/kaidoe/docchat/internal/ai"
	"github.com/kaidoe/docchat/internal/chunker"
	"github.com/kaidoe/docchat/internal/config"
	"github.com/kaidoe/docchat/internal/db"
	"github.com/kaidoe/docchat/internal/filestore"
	"github.com/kaidoe/docchat/internal/handler"
	"github.com/kaidoe/docchat/internal/ingest"
	"github.com/kaidoe/docchat/internal/job"
	"github.com/kaidoe/docchat/internal/middleware"
	"github.com/kaidoe/docchat/internal/rag"
	"github.com/kaidoe/docchat/internal/repo"
	"github.com/kaidoe/docchat/internal/schedule"
	"github.com/kaidoe/docchat/internal/service"
	"github.com/kaidoe/docchat/internal/vectorstore"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "docchat",
		Short: "docchat backend server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run docchat server",
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			database, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(database); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, database)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, database *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("vector_store", cfg.VectorStore.Type),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.String("file_store", cfg.FileStore.Type),
	)

	sessionRepo := repo.NewSessionRepo(database)
	sourceRepo := repo.NewSourceRepo(database)

	store, err := buildVectorStore(cfg, database)
	if err != nil {
		return fmt.Errorf("init vector store: %w", err)
	}
	files, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}

	generator, embedder, err := buildAI(cfg.AI)
	if err != nil {
		return fmt.Errorf("init ai provider: %w", err)
	}

	splitter := chunker.New(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	indexer := rag.NewIndexer(embedder, store, splitter)
	pipeline := rag.NewPipeline(
		rag.NewHydeGenerator(generator, cfg.Chat.HydeHistoryTurns, cfg.Chat.HydeMinChars,
			time.Duration(cfg.Chat.HydeTimeoutSecs)*time.Second),
		rag.NewRetriever(embedder, store, cfg.Chat.TopK),
		rag.NewSynthesizer(generator, cfg.Chat.AnswerHistoryTurns),
	)

	fetchTimeout := time.Duration(cfg.Ingest.FetchTimeoutSeconds) * time.Second
	registry := ingest.NewRegistry(
		ingest.NewPDFIngestor(nil),
		ingest.NewDOCXIngestor(),
		ingest.NewTextIngestor(),
		ingest.NewCSVIngestor(),
		ingest.NewJSONIngestor(),
		ingest.NewURLIngestor(fetchTimeout),
		ingest.NewYouTubeIngestor(fetchTimeout),
	)

	sessionTTL := time.Duration(cfg.SessionTTLHours) * time.Hour
	sessionService := service.NewSessionService(sessionRepo, cfg.JWTSecret, sessionTTL)
	ingestService := service.NewIngestService(sessionRepo, sourceRepo, registry, indexer,
		store, files, cfg.Ingest.MaxSources, cfg.Ingest.MaxUploadBytes)
	chatService := service.NewChatService(sourceRepo, pipeline,
		time.Duration(cfg.AI.TimeoutSeconds)*time.Second)
	sourceService := service.NewSourceService(sessionRepo, sourceRepo, store, files)

	scheduler := schedule.NewCronScheduler()
	cleanupJob := job.NewSessionCleanupJob(sessionRepo, sourceRepo, store, files)
	if err := scheduler.AddJob(cleanupJob, cfg.CleanupCron); err != nil {
		return fmt.Errorf("schedule cleanup job: %w", err)
	}

	deps := handler.RouterDeps{
		Sessions:        handler.NewSessionHandler(sessionService),
		Uploads:         handler.NewUploadHandler(ingestService, sessionService, cfg.Ingest.MaxUploadBytes),
		Chat:            handler.NewChatHandler(chatService, sessionService),
		Sources:         handler.NewSourceHandler(sourceService, sessionService),
		Files:           handler.NewFileHandler(sourceService),
		JWTSecret:       []byte(cfg.JWTSecret),
		RateLimitWindow: time.Duration(cfg.RateLimitSecs) * time.Second,
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(ctx).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}

// buildAI assembles the generator and embedder, chaining configured
// fallback providers behind the primary. The embedder is wrapped with
// the LRU cache last so a fallback hit is cached too.
func buildAI(cfg config.AIConfig) (ai.IGenerator, ai.IEmbedder, error) {
	refs := append([]config.AIProviderConfig{{
		Provider:      cfg.Provider,
		Data:          cfg.Data,
		GenerateModel: cfg.GenerateModel,
		EmbedModel:    cfg.EmbedModel,
	}}, cfg.Fallbacks...)

	var generators []ai.GeneratorEntry
	var embedders []ai.EmbedderEntry
	for _, ref := range refs {
		provider, err := ai.NewProvider(ref.Provider, ref.Data)
		if err != nil {
			return nil, nil, err
		}
		embedProvider, err := ai.NewEmbedProvider(ref.Provider, ref.Data)
		if err != nil {
			return nil, nil, err
		}
		generateModel := ref.GenerateModel
		if generateModel == "" {
			generateModel = cfg.GenerateModel
		}
		embedModel := ref.EmbedModel
		if embedModel == "" {
			embedModel = cfg.EmbedModel
		}
		generators = append(generators, ai.GeneratorEntry{
			Name:      ref.Provider,
			Generator: ai.NewGenerator(provider, generateModel),
		})
		embedders = append(embedders, ai.EmbedderEntry{
			Name:     ref.Provider,
			Embedder: ai.NewEmbedder(embedProvider, embedModel, cfg.EmbedDimensions),
		})
	}

	generator := generators[0].Generator
	embedder := embedders[0].Embedder
	if len(generators) > 1 {
		generator = ai.NewGroupGenerator(generators)
		embedder = ai.NewGroupEmbedder(embedders)
	}
	embedder = ai.WrapLRUCacheToEmbedder(embedder, cfg.CacheSize,
		time.Duration(cfg.CacheTTLMinutes)*time.Minute)
	return generator, embedder, nil
}

// buildVectorStore reuses the main database connection when the pgvector
// backend has no dsn of its own.
func buildVectorStore(cfg *config.Config, database *sql.DB) (vectorstore.Store, error) {
	if cfg.VectorStore.Type == "pgvector" {
		if cfg.AI.EmbedDimensions != vectorstore.PgvectorDims {
			return nil, fmt.Errorf("pgvector backend stores vector(%d), embed_dimensions is %d",
				vectorstore.PgvectorDims, cfg.AI.EmbedDimensions)
		}
		if cfg.VectorStore.Data == nil {
			return vectorstore.NewPgvectorStore(database), nil
		}
	}
	return vectorstore.New(cfg.VectorStore)
}
