package state

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb, ttl), mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedisStore(t, time.Minute)

	s, err := r.Load(ctx, 7)
	if err != nil {
		t.Fatalf("load missing: %v", err)
	}
	if !s.Idle() || len(s.Data) != 0 {
		t.Fatalf("expected idle session for missing key, got %+v", s)
	}

	s.State = "awaiting_text"
	s.Set("title", "hello")
	s.SetInt64("post_id", 42)
	if err := r.Save(ctx, 7, s); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !mr.Exists(redisKey(7)) {
		t.Fatalf("expected key %s", redisKey(7))
	}

	got, err := r.Load(ctx, 7)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	id, _ := got.GetInt64("post_id")
	if got.State != "awaiting_text" || got.Get("title") != "hello" || id != 42 {
		t.Fatalf("unexpected session %+v", got)
	}
	if got.UpdatedAt.IsZero() {
		t.Fatal("expected updated_at to be stamped")
	}

	if err := r.Clear(ctx, 7); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if mr.Exists(redisKey(7)) {
		t.Fatal("key survived clear")
	}
}

func TestRedisStoreIdleSaveRemoves(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedisStore(t, time.Minute)

	s := NewSession()
	s.State = "awaiting_title"
	if err := r.Save(ctx, 3, s); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !mr.Exists(redisKey(3)) {
		t.Fatal("expected key after save")
	}
	if err := r.Save(ctx, 3, NewSession()); err != nil {
		t.Fatalf("save idle: %v", err)
	}
	if mr.Exists(redisKey(3)) {
		t.Fatal("idle save must delete the key")
	}
}

func TestRedisStoreSaveRefreshesTTL(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedisStore(t, 30*time.Minute)

	s := NewSession()
	s.State = "awaiting_title"
	if err := r.Save(ctx, 5, s); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got := mr.TTL(redisKey(5)); got != 30*time.Minute {
		t.Fatalf("ttl = %s", got)
	}

	mr.FastForward(20 * time.Minute)
	if err := r.Save(ctx, 5, s); err != nil {
		t.Fatalf("save again: %v", err)
	}
	if got := mr.TTL(redisKey(5)); got != 30*time.Minute {
		t.Fatalf("ttl after second save = %s", got)
	}

	mr.FastForward(31 * time.Minute)
	got, err := r.Load(ctx, 5)
	if err != nil {
		t.Fatalf("load expired: %v", err)
	}
	if !got.Idle() {
		t.Fatalf("expired session must load idle, got %q", got.State)
	}
}

func TestRedisStoreCorruptPayload(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedisStore(t, time.Minute)

	if err := mr.Set(redisKey(9), "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	s, err := r.Load(ctx, 9)
	if err == nil {
		t.Fatal("expected decode error")
	}
	if !s.Idle() {
		t.Fatalf("failed load must return an idle session, got %q", s.State)
	}
}

func TestRedisStoreDefaultTTL(t *testing.T) {
	r, _ := newTestRedisStore(t, 0)
	if r.ttl != DefaultTTL {
		t.Fatalf("ttl = %s, want %s", r.ttl, DefaultTTL)
	}
}
