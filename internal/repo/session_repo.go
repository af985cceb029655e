package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/kaidoe/docchat/internal/model"
	"github.com/kaidoe/docchat/internal/pkg/dbutil"
	appErr "github.com/kaidoe/docchat/internal/pkg/errors"
)

type SessionRepo struct {
	db *sql.DB
}

func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

func (r *SessionRepo) Create(ctx context.Context, session *model.Session) error {
	data := map[string]interface{}{
		"id":           session.ID,
		"source_count": session.SourceCount,
		"ctime":        session.Ctime,
		"expires_at":   session.ExpiresAt,
	}
	sqlStr, args, err := builder.BuildInsert("sessions", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *SessionRepo) GetByID(ctx context.Context, sessionID string) (*model.Session, error) {
	where := map[string]interface{}{"id": sessionID}
	sqlStr, args, err := builder.BuildSelect("sessions", where, []string{"id", "source_count", "ctime", "expires_at"})
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
	var session model.Session
	if err := rows.Scan(&session.ID, &session.SourceCount, &session.Ctime, &session.ExpiresAt); err != nil {
		return nil, err
	}
	return &session, nil
}

// IncrementSourceCount claims one source slot. The conditional update is
// the cap check, concurrent uploads can never exceed maxSources.
func (r *SessionRepo) IncrementSourceCount(ctx context.Context, sessionID string, maxSources int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET source_count = source_count + 1 WHERE id = $1 AND source_count < $2`,
		sessionID, maxSources)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrUploadLimit
	}
	return nil
}

// DecrementSourceCount releases a slot after a failed ingest or a source
// deletion.
func (r *SessionRepo) DecrementSourceCount(ctx context.Context, sessionID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET source_count = source_count - 1 WHERE id = $1 AND source_count > 0`,
		sessionID)
	return err
}

func (r *SessionRepo) ListExpired(ctx context.Context, now int64, limit int) ([]*model.Session, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, source_count, ctime, expires_at FROM sessions WHERE expires_at <= $1 ORDER BY expires_at LIMIT $2`,
		now, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var sessions []*model.Session
	for rows.Next() {
		var session model.Session
		if err := rows.Scan(&session.ID, &session.SourceCount, &session.Ctime, &session.ExpiresAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, &session)
	}
	return sessions, rows.Err()
}

func (r *SessionRepo) Delete(ctx context.Context, sessionID string) error {
	where := map[string]interface{}{"id": sessionID}
	sqlStr, args, err := builder.BuildDelete("sessions", where)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}
