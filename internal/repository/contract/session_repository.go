package contract

import (
	"context"
	"errors"

	"trackbot-be/pkg/store"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionRepository stores dialogue sessions by ID. Get returns
// ErrSessionNotFound for unknown or expired sessions.
type SessionRepository interface {
	Get(ctx context.Context, id string) (store.Session, error)
	Save(ctx context.Context, session store.Session) error
	Delete(ctx context.Context, id string) error
}
