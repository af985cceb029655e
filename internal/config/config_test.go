package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"port": 8080,
		"jwt_secret": "secret",
		"database": {"dsn": "postgres://localhost/docchat"},
		"ai": {"provider": "gemini"}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 24, cfg.SessionTTLHours)
	assert.Equal(t, "pgvector", cfg.VectorStore.Type)
	assert.Equal(t, "local", cfg.FileStore.Type)
	assert.Equal(t, 768, cfg.AI.EmbedDimensions)
	assert.Equal(t, int64(5*1024*1024), cfg.Ingest.MaxUploadBytes)
	assert.Equal(t, 1000, cfg.Ingest.ChunkSize)
	assert.Equal(t, 200, cfg.Ingest.ChunkOverlap)
	assert.Equal(t, 5, cfg.Ingest.MaxSources)
	assert.Equal(t, 5, cfg.Chat.TopK)
	assert.Equal(t, 4, cfg.Chat.HydeHistoryTurns)
	assert.Equal(t, 6, cfg.Chat.AnswerHistoryTurns)
	assert.Equal(t, "*/30 * * * *", cfg.CleanupCron)
}

func TestLoadRejectsMissingRequired(t *testing.T) {
	cases := map[string]string{
		"port":       `{"jwt_secret": "s", "database": {"dsn": "d"}, "ai": {"provider": "gemini"}}`,
		"jwt secret": `{"port": 8080, "database": {"dsn": "d"}, "ai": {"provider": "gemini"}}`,
		"database":   `{"port": 8080, "jwt_secret": "s", "ai": {"provider": "gemini"}}`,
		"provider":   `{"port": 8080, "jwt_secret": "s", "database": {"dsn": "d"}}`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}

func TestLoadRejectsOverlapLargerThanChunk(t *testing.T) {
	path := writeConfig(t, `{
		"port": 8080,
		"jwt_secret": "secret",
		"database": {"dsn": "d"},
		"ai": {"provider": "gemini"},
		"ingest": {"chunk_size": 100, "chunk_overlap": 100}
	}`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
