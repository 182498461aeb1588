package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/diagnosis/hotel-bookings/internal/domain"
)

const (
	historyPrefix = "booking-storage:"
	userPrefix    = "auth-storage:"
)

func historyKey(sessionID string) string { return historyPrefix + sessionID }
func userKey(sessionID string) string    { return userPrefix + sessionID }

// StateRepo stores booking history and the signed-in user under two keys per
// session, both refreshed to ttl on every save.
type StateRepo struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStateRepo(client *redis.Client, ttl time.Duration) *StateRepo {
	return &StateRepo{client: client, ttl: ttl}
}

func (r *StateRepo) Load(ctx context.Context, sessionID string) (domain.PersistedState, error) {
	vals, err := r.client.MGet(ctx, historyKey(sessionID), userKey(sessionID)).Result()
	if err != nil {
		return domain.PersistedState{}, fmt.Errorf("load state: %w", err)
	}
	if vals[0] == nil && vals[1] == nil {
		return domain.PersistedState{}, domain.ErrSessionNotFound
	}

	var state domain.PersistedState
	if raw, ok := vals[0].(string); ok {
		if err := json.Unmarshal([]byte(raw), &state.History); err != nil {
			return domain.PersistedState{}, fmt.Errorf("decode history: %w", err)
		}
	}
	if raw, ok := vals[1].(string); ok {
		if err := json.Unmarshal([]byte(raw), &state.User); err != nil {
			return domain.PersistedState{}, fmt.Errorf("decode user: %w", err)
		}
	}
	return state, nil
}

func (r *StateRepo) Save(ctx context.Context, sessionID string, state domain.PersistedState) error {
	history, err := json.Marshal(state.History)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	user, err := json.Marshal(state.User)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, historyKey(sessionID), history, r.ttl)
		pipe.Set(ctx, userKey(sessionID), user, r.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

func (r *StateRepo) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, historyKey(sessionID), userKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete state: %w", err)
	}
	return nil
}

// KV is the Redis flavour of the idempotency cache and login counter.
type KV struct {
	client *redis.Client
}

func NewKV(client *redis.Client) *KV {
	return &KV{client: client}
}

// Get returns "" when key is missing.
func (kv *KV) Get(ctx context.Context, key string) (string, error) {
	v, err := kv.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return v, err
}

func (kv *KV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return kv.client.Set(ctx, key, value, ttl).Err()
}

// Incr bumps a fixed-window counter; the window starts with the first hit.
func (kv *KV) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	n, err := kv.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		if err := kv.client.Expire(ctx, key, window).Err(); err != nil {
			return n, err
		}
	}
	return n, nil
}
