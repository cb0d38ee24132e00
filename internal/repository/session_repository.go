package repository

import (
	"context"

	"github.com/noah-isme/sma-roster-api/internal/models"
	appErrors "github.com/noah-isme/sma-roster-api/pkg/errors"
)

// SessionRepository caches the latest login of each user, keyed by user id,
// so a client can refresh its own session after a reload.
type SessionRepository struct {
	store KVStore
}

// NewSessionRepository constructs the repository.
func NewSessionRepository(store KVStore) *SessionRepository {
	return &SessionRepository{store: store}
}

// Get returns the cached session of userID or appErrors.ErrCacheMiss.
func (r *SessionRepository) Get(ctx context.Context, userID string) (*models.Session, error) {
	sessions, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	session, ok := sessions[userID]
	if !ok || userID == "" {
		return nil, appErrors.ErrCacheMiss
	}
	return &session, nil
}

// Set stores session under its user id, replacing that user's previous entry.
func (r *SessionRepository) Set(ctx context.Context, session models.Session) error {
	sessions, err := r.load(ctx)
	if err != nil {
		return err
	}
	sessions[session.UserID] = session
	return writeJSON(ctx, r.store, KeySession, sessions)
}

// Clear drops the cached session of userID only.
func (r *SessionRepository) Clear(ctx context.Context, userID string) error {
	sessions, err := r.load(ctx)
	if err != nil {
		return err
	}
	if _, ok := sessions[userID]; !ok {
		return nil
	}
	delete(sessions, userID)
	if len(sessions) == 0 {
		return deleteKey(ctx, r.store, KeySession)
	}
	return writeJSON(ctx, r.store, KeySession, sessions)
}

func (r *SessionRepository) load(ctx context.Context) (map[string]models.Session, error) {
	var sessions map[string]models.Session
	if _, err := readJSON(ctx, r.store, KeySession, &sessions); err != nil {
		return nil, err
	}
	if sessions == nil {
		sessions = map[string]models.Session{}
	}
	return sessions, nil
}
