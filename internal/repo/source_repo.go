package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/kaidoe/docchat/internal/model"
	"github.com/kaidoe/docchat/internal/pkg/dbutil"
	appErr "github.com/kaidoe/docchat/internal/pkg/errors"
)

var sourceFields = []string{"id", "session_id", "collection_id", "name", "type", "chunk_count", "file_key", "ctime"}

type SourceRepo struct {
	db *sql.DB
}

func NewSourceRepo(db *sql.DB) *SourceRepo {
	return &SourceRepo{db: db}
}

func (r *SourceRepo) Create(ctx context.Context, source *model.Source) error {
	data := map[string]interface{}{
		"id":            source.ID,
		"session_id":    source.SessionID,
		"collection_id": source.CollectionID,
		"name":          source.Name,
		"type":          string(source.Type),
		"chunk_count":   source.ChunkCount,
		"file_key":      source.FileKey,
		"ctime":         source.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("sources", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrInvalid
		}
		return err
	}
	return nil
}

func (r *SourceRepo) GetByID(ctx context.Context, sourceID string) (*model.Source, error) {
	where := map[string]interface{}{"id": sourceID}
	sqlStr, args, err := builder.BuildSelect("sources", where, sourceFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	return scanSource(rows)
}

func (r *SourceRepo) GetByCollectionID(ctx context.Context, collectionID string) (*model.Source, error) {
	where := map[string]interface{}{"collection_id": collectionID}
	sqlStr, args, err := builder.BuildSelect("sources", where, sourceFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	return scanSource(rows)
}

func (r *SourceRepo) GetByFileKey(ctx context.Context, fileKey string) (*model.Source, error) {
	where := map[string]interface{}{"file_key": fileKey}
	sqlStr, args, err := builder.BuildSelect("sources", where, sourceFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	return scanSource(rows)
}

func (r *SourceRepo) ListBySession(ctx context.Context, sessionID string) ([]*model.Source, error) {
	where := map[string]interface{}{"session_id": sessionID, "_orderby": "ctime asc"}
	sqlStr, args, err := builder.BuildSelect("sources", where, sourceFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var sources []*model.Source
	for rows.Next() {
		source, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, source)
	}
	return sources, rows.Err()
}

func (r *SourceRepo) Delete(ctx context.Context, sourceID string) error {
	where := map[string]interface{}{"id": sourceID}
	sqlStr, args, err := builder.BuildDelete("sources", where)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func scanSource(rows *sql.Rows) (*model.Source, error) {
	var source model.Source
	var sourceType string
	if err := rows.Scan(&source.ID, &source.SessionID, &source.CollectionID, &source.Name,
		&sourceType, &source.ChunkCount, &source.FileKey, &source.Ctime); err != nil {
		return nil, err
	}
	source.Type = model.SourceType(sourceType)
	return &source, nil
}
