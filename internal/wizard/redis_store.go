package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/evidenceledger/proxybid/internal/errl"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "proxybid:wizard:"

// Connect creates a Redis client from a redis:// URL or a plain host:port
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	var client *redis.Client
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: redisURL})
	}

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errl.Errorf("connecting to redis at %s: %w", redisURL, err)
	}
	return client, nil
}

// RedisStore keeps wizards in Redis as JSON, so that several server instances can share them
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Load(ctx context.Context, key string) (*Wizard, error) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return New(), nil
		}
		return nil, errl.Error(err)
	}

	w := New()
	if err := json.Unmarshal(raw, w); err != nil {
		return nil, errl.Errorf("decoding wizard state: %w", err)
	}
	return w, nil
}

func (s *RedisStore) Save(ctx context.Context, key string, w *Wizard) error {
	raw, err := json.Marshal(w)
	if err != nil {
		return errl.Error(err)
	}
	return errl.Error(s.client.Set(ctx, redisKeyPrefix+key, raw, s.ttl).Err())
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return errl.Error(s.client.Del(ctx, redisKeyPrefix+key).Err())
}
