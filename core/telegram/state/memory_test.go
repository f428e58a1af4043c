package state

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(time.Minute)

	s, err := m.Load(ctx, 7)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !s.Idle() {
		t.Fatalf("expected idle session, got %q", s.State)
	}

	s.State = "awaiting_title"
	s.Set("title", "hello")
	if err := m.Save(ctx, 7, s); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, _ := m.Load(ctx, 7)
	if got.State != "awaiting_title" || got.Get("title") != "hello" {
		t.Fatalf("unexpected session %+v", got)
	}

	// returned copies must not alias the stored map
	got.Set("title", "changed")
	again, _ := m.Load(ctx, 7)
	if again.Get("title") != "hello" {
		t.Fatalf("stored data mutated through copy: %q", again.Get("title"))
	}
}

func TestMemoryStoreIdleSaveRemoves(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(time.Minute)
	s := NewSession()
	s.State = "awaiting_text"
	_ = m.Save(ctx, 1, s)
	if m.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", m.Len())
	}
	s.Reset()
	_ = m.Save(ctx, 1, s)
	if m.Len() != 0 {
		t.Fatalf("expected idle save to remove session, got %d", m.Len())
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemoryStore(10 * time.Minute)
	m.now = func() time.Time { return now }

	s := NewSession()
	s.State = "awaiting_photo"
	_ = m.Save(ctx, 1, s)
	_ = m.Save(ctx, 2, s)

	now = now.Add(5 * time.Minute)
	_ = m.Save(ctx, 2, s)

	now = now.Add(6 * time.Minute)
	got, _ := m.Load(ctx, 1)
	if !got.Idle() {
		t.Fatalf("expected expired session to load idle, got %q", got.State)
	}
	if n := m.Sweep(); n != 1 {
		t.Fatalf("expected 1 swept session, got %d", n)
	}
	got, _ = m.Load(ctx, 2)
	if got.State != "awaiting_photo" {
		t.Fatalf("expected refreshed session to survive, got %q", got.State)
	}
}

func TestSessionInt64(t *testing.T) {
	var s Session
	if _, ok := s.GetInt64("post"); ok {
		t.Fatal("expected missing key")
	}
	s.SetInt64("post", 42)
	if v, ok := s.GetInt64("post"); !ok || v != 42 {
		t.Fatalf("got %d %v", v, ok)
	}
	s.Set("post", "x")
	if _, ok := s.GetInt64("post"); ok {
		t.Fatal("expected parse failure")
	}
}
