package sender

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestDispatcherRunsJobs(t *testing.T) {
	d := NewDispatcher(Options{QueueSize: 8, Workers: 2})
	var ran atomic.Int32
	for range 5 {
		if err := d.Enqueue(context.Background(), "notify", "sendMessage", func() error {
			ran.Add(1)
			return nil
		}); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}
	d.Close()
	if ran.Load() != 5 {
		t.Fatalf("expected 5 runs, got %d", ran.Load())
	}
	if s := d.Stats(); s.Sent != 5 || s.Failed != 0 {
		t.Fatalf("unexpected stats %+v", s)
	}
}

func TestDispatcherCountsFailuresWithoutRetry(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1})
	var calls atomic.Int32
	_ = d.Enqueue(context.Background(), "notify", "sendMessage", func() error {
		calls.Add(1)
		return errors.New("boom")
	})
	d.Close()
	if calls.Load() != 1 {
		t.Fatalf("expected a single attempt, got %d", calls.Load())
	}
	if s := d.Stats(); s.Failed != 1 {
		t.Fatalf("unexpected stats %+v", s)
	}
}

func TestDispatcherQueueFullAndClosed(t *testing.T) {
	d := NewDispatcher(Options{QueueSize: 1, Workers: 1})
	block := make(chan struct{})
	started := make(chan struct{})
	_ = d.Enqueue(context.Background(), "a", "", func() error {
		close(started)
		<-block
		return nil
	})
	<-started
	if err := d.Enqueue(context.Background(), "b", "", func() error { return nil }); err != nil {
		t.Fatalf("second job should fit the queue: %v", err)
	}
	if err := d.Enqueue(context.Background(), "c", "", func() error { return nil }); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	close(block)
	d.Close()
	if err := d.Enqueue(context.Background(), "d", "", func() error { return nil }); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("expected ErrQueueClosed, got %v", err)
	}
}

func TestDispatcherCanceledContextStillRuns(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxDuration: time.Second})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var ran atomic.Bool
	_ = d.Enqueue(ctx, "notify", "", func() error { ran.Store(true); return nil })
	d.Close()
	if !ran.Load() {
		t.Fatal("job queued from a finished request should still run")
	}
}

func TestSanitizeErrorMessage(t *testing.T) {
	err := errors.New(`Post "https://api.telegram.org/bot123456:ABC-def_ghi/sendMessage": EOF`)
	got := sanitizeErrorMessage(err)
	if got != `Post "https://api.telegram.org/bot<redacted>/sendMessage": EOF` {
		t.Fatalf("token not redacted: %q", got)
	}
}

func TestClassifyError(t *testing.T) {
	if got := classifyError(context.DeadlineExceeded); got != "timeout" {
		t.Fatalf("got %q", got)
	}
	if got := classifyError(errors.New("x")); got != "unknown" {
		t.Fatalf("got %q", got)
	}
}
