package memory

import (
	"context"
	"time"

	"trackbot-be/internal/repository/contract"
	"trackbot-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

type SessionRepository struct {
	cache *cache.Cache
}

// NewSessionRepository keeps sessions for ttl after their last save and
// purges expired items every 10 minutes.
func NewSessionRepository(ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	c := cache.New(ttl, 10*time.Minute)
	return &SessionRepository{
		cache: c,
	}
}

var _ contract.SessionRepository = (*SessionRepository)(nil)

func (r *SessionRepository) Save(_ context.Context, session store.Session) error {
	// store a private copy so callers cannot mutate the cached value
	r.cache.Set(session.ID, session.Clone(), cache.DefaultExpiration)
	return nil
}

func (r *SessionRepository) Get(_ context.Context, id string) (store.Session, error) {
	if x, found := r.cache.Get(id); found {
		return x.(store.Session).Clone(), nil
	}
	return store.Session{}, contract.ErrSessionNotFound
}

func (r *SessionRepository) Delete(_ context.Context, id string) error {
	r.cache.Delete(id)
	return nil
}
