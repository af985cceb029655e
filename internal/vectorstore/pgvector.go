package vectorstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

type pgvectorConfig struct {
	DSN string `json:"dsn"`
}

// PgvectorDims is the fixed dimensionality of the doc_chunks embedding
// column. Other embedders need the qdrant or memory backend.
const PgvectorDims = 768

// pgvectorStore keeps one row per collection in doc_collections and the
// embedded chunks in doc_chunks. Cosine similarity is computed as
// 1 - (embedding <=> query).
type pgvectorStore struct {
	db *sql.DB
}

func init() {
	Register("pgvector", createPgvectorStore)
}

func createPgvectorStore(args interface{}) (Store, error) {
	cfg := &pgvectorConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("pgvector dsn is required")
	}
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return NewPgvectorStore(db), nil
}

func NewPgvectorStore(db *sql.DB) Store {
	return &pgvectorStore{db: db}
}

func (s *pgvectorStore) EnsureCollection(ctx context.Context, id string, dims int) error {
	if dims != PgvectorDims {
		return fmt.Errorf("chunk column is vector(%d), cannot hold %d-dim embeddings", PgvectorDims, dims)
	}
	var existing int
	err := s.db.QueryRowContext(ctx, `SELECT dims FROM doc_collections WHERE id = $1`, id).Scan(&existing)
	switch {
	case err == nil:
		if existing != dims {
			return fmt.Errorf("collection %s exists with dims %d, requested %d", id, existing, dims)
		}
		return nil
	case err != sql.ErrNoRows:
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO doc_collections (id, dims, ctime)
		VALUES ($1, $2, EXTRACT(EPOCH FROM NOW())::bigint)
		ON CONFLICT (id) DO NOTHING
	`, id, dims)
	return err
}

func (s *pgvectorStore) CollectionExists(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM doc_collections WHERE id = $1`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *pgvectorStore) DeleteCollection(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM doc_chunks WHERE collection_id = $1`, id); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM doc_collections WHERE id = $1`, id)
	return err
}

func (s *pgvectorStore) Upsert(ctx context.Context, collectionID string, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	const query = `
		INSERT INTO doc_chunks (id, collection_id, embedding, content, metadata)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			content = EXCLUDED.content,
			metadata = EXCLUDED.metadata
	`
	for _, p := range points {
		meta, err := json.Marshal(p.Metadata)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, p.ID, collectionID, pgvector.NewVector(p.Vector), p.Content, meta); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *pgvectorStore) Search(ctx context.Context, collectionID string, vector []float32, k int) ([]ScoredPoint, error) {
	if k <= 0 {
		k = 5
	}
	const query = `
		SELECT content, metadata, 1 - (embedding <=> $1) AS score
		FROM doc_chunks
		WHERE collection_id = $2
		ORDER BY embedding <=> $1
		LIMIT $3
	`
	rows, err := s.db.QueryContext(ctx, query, pgvector.NewVector(vector), collectionID, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []ScoredPoint
	for rows.Next() {
		var item ScoredPoint
		var meta []byte
		if err := rows.Scan(&item.Content, &meta, &item.Score); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(meta, &item.Metadata); err != nil {
			return nil, err
		}
		results = append(results, item)
	}
	if results == nil {
		results = []ScoredPoint{}
	}
	return results, rows.Err()
}
