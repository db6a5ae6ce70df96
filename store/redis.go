package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hurtener/penguiflow-go/emit"
)

// RedisStore is a Redis-backed Store, for multi-process deployments that
// need pause/resume records visible across planner workers. Grounded on
// goadesign-goa-ai/registry/service.go's go-redis/v9 usage and
// jemygraw-langgraphgo's use of go-redis as a store backend. Each pause
// record is stored as a JSON string key written with SET and the record's
// TTL as its expiration.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisStore wraps rdb. keyPrefix namespaces every key this store
// writes (e.g. "penguiflow:"), letting multiple applications share one
// Redis instance.
func NewRedisStore(rdb *redis.Client, keyPrefix string) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: keyPrefix}
}

func (s *RedisStore) pauseKey(token string) string { return s.prefix + "pause:" + token }
func (s *RedisStore) eventsKey(traceID string) string { return s.prefix + "events:" + traceID }

func (s *RedisStore) SavePause(ctx context.Context, token string, record PauseRecord, ttl time.Duration) error {
	record.Token = token
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("store: marshal pause record: %w", err)
	}
	if err := s.rdb.Set(ctx, s.pauseKey(token), data, ttl).Err(); err != nil {
		return fmt.Errorf("store: save pause: %w", err)
	}
	return nil
}

func (s *RedisStore) LoadPause(ctx context.Context, token string) (PauseRecord, error) {
	data, err := s.rdb.Get(ctx, s.pauseKey(token)).Bytes()
	if err == redis.Nil {
		return PauseRecord{}, ErrNotFound
	}
	if err != nil {
		return PauseRecord{}, fmt.Errorf("store: load pause: %w", err)
	}
	var record PauseRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return PauseRecord{}, fmt.Errorf("store: unmarshal pause record: %w", err)
	}
	return record, nil
}

func (s *RedisStore) DeletePause(ctx context.Context, token string) error {
	if err := s.rdb.Del(ctx, s.pauseKey(token)).Err(); err != nil {
		return fmt.Errorf("store: delete pause: %w", err)
	}
	return nil
}

func (s *RedisStore) AppendEvent(ctx context.Context, traceID string, ev emit.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("store: marshal event: %w", err)
	}
	if err := s.rdb.RPush(ctx, s.eventsKey(traceID), data).Err(); err != nil {
		return fmt.Errorf("store: append event: %w", err)
	}
	return nil
}

func (s *RedisStore) ListEvents(ctx context.Context, traceID string) ([]emit.Event, error) {
	items, err := s.rdb.LRange(ctx, s.eventsKey(traceID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("store: list events: %w", err)
	}
	out := make([]emit.Event, 0, len(items))
	for _, item := range items {
		var ev emit.Event
		if err := json.Unmarshal([]byte(item), &ev); err != nil {
			return nil, fmt.Errorf("store: unmarshal event: %w", err)
		}
		out = append(out, ev)
	}
	return out, nil
}

var _ Store = (*RedisStore)(nil)
