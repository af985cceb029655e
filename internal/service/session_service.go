package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kaidoe/docchat/internal/model"
	appErr "github.com/kaidoe/docchat/internal/pkg/errors"
	"github.com/kaidoe/docchat/internal/pkg/jwt"
)

// SessionService issues anonymous sessions. There are no accounts, a
// bearer token is the only handle on a session and its sources.
type SessionService struct {
	sessions  SessionStore
	jwtSecret string
	ttl       time.Duration
}

func NewSessionService(sessions SessionStore, jwtSecret string, ttl time.Duration) *SessionService {
	return &SessionService{sessions: sessions, jwtSecret: jwtSecret, ttl: ttl}
}

func (s *SessionService) Create(ctx context.Context) (string, *model.Session, error) {
	now := time.Now()
	session := &model.Session{
		ID:        uuid.NewString(),
		Ctime:     now.UnixMilli(),
		ExpiresAt: now.Add(s.ttl).UnixMilli(),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return "", nil, err
	}
	token, err := jwt.GenerateToken(session.ID, []byte(s.jwtSecret), s.ttl)
	if err != nil {
		return "", nil, err
	}
	return token, session, nil
}

// Get returns the session or ErrUnauthorized when it is missing or past
// its expiry.
func (s *SessionService) Get(ctx context.Context, sessionID string) (*model.Session, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if appErr.IsNotFound(err) {
			return nil, appErr.ErrUnauthorized
		}
		return nil, err
	}
	if session.ExpiresAt <= time.Now().UnixMilli() {
		return nil, appErr.ErrUnauthorized
	}
	return session, nil
}
