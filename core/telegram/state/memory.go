package state

import (
	"context"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/m3rciful/postbot/core/logger"
)

// MemoryStore keeps sessions in process memory with idle expiry.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]Session
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryStore constructs an in-memory Store. ttl <= 0 selects DefaultTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		sessions: make(map[int64]Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Load returns a copy of the user's session, or an idle one if absent or expired.
func (m *MemoryStore) Load(_ context.Context, userID int64) (Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[userID]
	m.mu.RUnlock()
	if !ok || m.expired(s) {
		return NewSession(), nil
	}
	s.Data = maps.Clone(s.Data)
	return s, nil
}

// Save stores the session; idle sessions without data are removed instead.
func (m *MemoryStore) Save(_ context.Context, userID int64, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.Idle() && len(s.Data) == 0 {
		delete(m.sessions, userID)
		return nil
	}
	s.UpdatedAt = m.now()
	s.Data = maps.Clone(s.Data)
	m.sessions[userID] = s
	return nil
}

// Clear removes the entire session for a user.
func (m *MemoryStore) Clear(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}

// Len reports the number of stored sessions, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep drops expired sessions and returns how many were removed.
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if m.expired(s) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

// Run sweeps expired sessions every interval until ctx is done.
func (m *MemoryStore) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = m.ttl / 2
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				logger.Sessions.Debug("sessions swept",
					slog.String("event", "sessions.sweep"),
					slog.Int("count", n),
				)
			}
		}
	}
}

func (m *MemoryStore) expired(s Session) bool {
	return m.now().Sub(s.UpdatedAt) > m.ttl
}
