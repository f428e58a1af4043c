package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "postbot:session:"

// RedisStore keeps sessions in Redis so they survive restarts.
// Each save refreshes the key TTL.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
	now func() time.Time
}

// ConnectRedis parses url, pings the server and returns a RedisStore.
func ConnectRedis(ctx context.Context, url string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewRedisStore(rdb, ttl), nil
}

// NewRedisStore wraps an existing client. ttl <= 0 selects DefaultTTL.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{rdb: rdb, ttl: ttl, now: time.Now}
}

func redisKey(userID int64) string {
	return redisKeyPrefix + strconv.FormatInt(userID, 10)
}

// Load fetches and decodes the session; a missing key yields an idle session.
func (r *RedisStore) Load(ctx context.Context, userID int64) (Session, error) {
	raw, err := r.rdb.Get(ctx, redisKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return NewSession(), nil
	}
	if err != nil {
		return NewSession(), fmt.Errorf("load session %d: %w", userID, err)
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return NewSession(), fmt.Errorf("decode session %d: %w", userID, err)
	}
	if s.State == "" {
		s.State = StateIdle
	}
	return s, nil
}

// Save stores the session with the configured TTL; idle empty sessions are deleted.
func (r *RedisStore) Save(ctx context.Context, userID int64, s Session) error {
	if s.Idle() && len(s.Data) == 0 {
		return r.Clear(ctx, userID)
	}
	s.UpdatedAt = r.now()
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session %d: %w", userID, err)
	}
	if err := r.rdb.Set(ctx, redisKey(userID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("save session %d: %w", userID, err)
	}
	return nil
}

// Clear deletes the session key.
func (r *RedisStore) Clear(ctx context.Context, userID int64) error {
	if err := r.rdb.Del(ctx, redisKey(userID)).Err(); err != nil {
		return fmt.Errorf("clear session %d: %w", userID, err)
	}
	return nil
}

// Close releases the underlying client.
func (r *RedisStore) Close() error {
	return r.rdb.Close()
}
