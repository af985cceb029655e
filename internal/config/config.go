package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port            int               `json:"port"`
	JWTSecret       string            `json:"jwt_secret"`
	SessionTTLHours int               `json:"session_ttl_hours"`
	CORSAllowlist   []string          `json:"cors_allowlist"`
	RateLimitSecs   int               `json:"rate_limit_seconds"`
	CleanupCron     string            `json:"cleanup_cron"`
	LogConfig       logger.LogConfig  `json:"log_config"`
	Database        DatabaseConfig    `json:"database"`
	VectorStore     VectorStoreConfig `json:"vector_store"`
	AI              AIConfig          `json:"ai"`
	Ingest          IngestConfig      `json:"ingest"`
	Chat            ChatConfig        `json:"chat"`
	FileStore       FileStoreConfig   `json:"file_store"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

type VectorStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type AIConfig struct {
	Provider        string             `json:"provider"`
	Data            interface{}        `json:"data"`
	GenerateModel   string             `json:"generate_model"`
	EmbedModel      string             `json:"embed_model"`
	EmbedDimensions int                `json:"embed_dimensions"`
	TimeoutSeconds  int                `json:"timeout_seconds"`
	CacheSize       int                `json:"cache_size"`
	CacheTTLMinutes int                `json:"cache_ttl_minutes"`
	Fallbacks       []AIProviderConfig `json:"fallbacks"`
}

// AIProviderConfig is one extra provider tried in order when the primary
// fails.
type AIProviderConfig struct {
	Provider      string      `json:"provider"`
	Data          interface{} `json:"data"`
	GenerateModel string      `json:"generate_model"`
	EmbedModel    string      `json:"embed_model"`
}

type IngestConfig struct {
	MaxUploadBytes      int64 `json:"max_upload_bytes"`
	ChunkSize           int   `json:"chunk_size"`
	ChunkOverlap        int   `json:"chunk_overlap"`
	FetchTimeoutSeconds int   `json:"fetch_timeout_seconds"`
	MaxSources          int   `json:"max_sources_per_session"`
}

type ChatConfig struct {
	TopK               int `json:"top_k"`
	HydeHistoryTurns   int `json:"hyde_history_turns"`
	AnswerHistoryTurns int `json:"answer_history_turns"`
	HydeMinChars       int `json:"hyde_min_chars"`
	HydeTimeoutSecs    int `json:"hyde_timeout_seconds"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required")
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.SessionTTLHours == 0 {
		cfg.SessionTTLHours = 24
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "pgvector"
	}
	if cfg.AI.Provider == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	if cfg.AI.GenerateModel == "" {
		cfg.AI.GenerateModel = "gemini-2.5-flash"
	}
	if cfg.AI.EmbedModel == "" {
		cfg.AI.EmbedModel = "embedding-001"
	}
	if cfg.AI.EmbedDimensions == 0 {
		cfg.AI.EmbedDimensions = 768
	}
	if cfg.AI.TimeoutSeconds == 0 {
		cfg.AI.TimeoutSeconds = 60
	}
	if cfg.AI.CacheSize == 0 {
		cfg.AI.CacheSize = 10000
	}
	if cfg.AI.CacheTTLMinutes == 0 {
		cfg.AI.CacheTTLMinutes = 120
	}
	if cfg.Ingest.MaxUploadBytes == 0 {
		cfg.Ingest.MaxUploadBytes = 5 * 1024 * 1024
	}
	if cfg.Ingest.ChunkSize == 0 {
		cfg.Ingest.ChunkSize = 1000
	}
	if cfg.Ingest.ChunkOverlap == 0 {
		cfg.Ingest.ChunkOverlap = 200
	}
	if cfg.Ingest.ChunkOverlap >= cfg.Ingest.ChunkSize {
		return nil, fmt.Errorf("ingest.chunk_overlap must be smaller than ingest.chunk_size")
	}
	if cfg.Ingest.FetchTimeoutSeconds == 0 {
		cfg.Ingest.FetchTimeoutSeconds = 30
	}
	if cfg.Ingest.MaxSources == 0 {
		cfg.Ingest.MaxSources = 5
	}
	if cfg.Chat.TopK == 0 {
		cfg.Chat.TopK = 5
	}
	if cfg.Chat.HydeHistoryTurns == 0 {
		cfg.Chat.HydeHistoryTurns = 4
	}
	if cfg.Chat.AnswerHistoryTurns == 0 {
		cfg.Chat.AnswerHistoryTurns = 6
	}
	if cfg.Chat.HydeMinChars == 0 {
		cfg.Chat.HydeMinChars = 20
	}
	if cfg.Chat.HydeTimeoutSecs == 0 {
		cfg.Chat.HydeTimeoutSecs = 15
	}
	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
	}
	if cfg.CleanupCron == "" {
		cfg.CleanupCron = "*/30 * * * *"
	}
	return &cfg, nil
}
