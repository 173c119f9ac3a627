package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps sessions as JSON strings under "<prefix>:<id>".  Keys
// carry a TTL longer than the inactivity timeout so that an expired
// session is still readable and the Auth Gate can report the timeout
// instead of treating the browser as never logged in.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore returns a store whose keys live for ttl after each save.
func NewRedisStore(rdb *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "sess"
	}
	return &RedisStore{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(id string) string { return s.prefix + ":" + id }

func (s *RedisStore) Get(ctx context.Context, id string) (*Data, error) {
	bs, err := s.rdb.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get session: %w", err)
	}
	var d Data
	if err := json.Unmarshal(bs, &d); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	d.ID = id
	return &d, nil
}

func (s *RedisStore) Save(ctx context.Context, d *Data) error {
	bs, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key(d.ID), bs, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis save session: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}
