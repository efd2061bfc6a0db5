// Package redisstore keeps dialogue sessions in Redis so several API
// replicas can serve the same conversation.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"trackbot-be/internal/repository/contract"
	"trackbot-be/pkg/store"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "trackbot:session:"

type SessionRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSessionRepository(rdb *redis.Client, ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SessionRepository{rdb: rdb, ttl: ttl}
}

var _ contract.SessionRepository = (*SessionRepository)(nil)

func (r *SessionRepository) Save(ctx context.Context, session store.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return r.rdb.Set(ctx, keyPrefix+session.ID, payload, r.ttl).Err()
}

func (r *SessionRepository) Get(ctx context.Context, id string) (store.Session, error) {
	payload, err := r.rdb.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return store.Session{}, contract.ErrSessionNotFound
	}
	if err != nil {
		return store.Session{}, err
	}

	var s store.Session
	if err := json.Unmarshal(payload, &s); err != nil {
		return store.Session{}, fmt.Errorf("decode session %s: %w", id, err)
	}
	if s.Record == nil {
		s.Record = store.Record{}
	}
	return s, nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	return r.rdb.Del(ctx, keyPrefix+id).Err()
}
