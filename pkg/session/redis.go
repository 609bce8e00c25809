package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/civic_mirror/pkg/authclient"
)

// RedisStore keeps the session in a hash under "civic:session:<profile>".
// With a TTL the whole session expires together.
type RedisStore struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opt.PoolSize = 10
	opt.MinIdleConns = 1

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func NewRedisStore(rdb *redis.Client, profile string, ttl time.Duration) *RedisStore {
	if profile == "" {
		profile = "default"
	}
	return &RedisStore{rdb: rdb, key: "civic:session:" + profile, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context) (authclient.Session, error) {
	vals, err := s.rdb.HGetAll(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return authclient.Session{}, authclient.ErrNoSession
	}
	if err != nil {
		return authclient.Session{}, fmt.Errorf("load session: %w", err)
	}
	out := authclient.Session{
		AccessToken:  vals[keyAccessToken],
		RefreshToken: vals[keyRefreshToken],
		TokenType:    vals[keyTokenType],
	}
	if out.AccessToken == "" {
		return authclient.Session{}, authclient.ErrNoSession
	}
	return out, nil
}

func (s *RedisStore) Set(ctx context.Context, sess authclient.Session) error {
	if sess.AccessToken == "" {
		return authclient.ErrEmptySession
	}
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		fields := map[string]any{keyAccessToken: sess.AccessToken}
		if sess.RefreshToken != "" {
			fields[keyRefreshToken] = sess.RefreshToken
		}
		if sess.TokenType != "" {
			fields[keyTokenType] = sess.TokenType
		}
		pipe.HSet(ctx, s.key, fields)
		if s.ttl > 0 {
			pipe.Expire(ctx, s.key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
