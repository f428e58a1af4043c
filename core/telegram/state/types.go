package state

import (
	"context"
	"strconv"
	"time"
)

// State identifies a finite-state-machine step used in conversations.
type State string

const (
	// StateIdle indicates there is no active conversation with the user.
	StateIdle State = "idle"
)

// Session stores conversation state and scratch data for a user.
type Session struct {
	State     State             `json:"state"`
	Data      map[string]string `json:"data,omitempty"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// NewSession returns an idle session with no scratch data.
func NewSession() Session {
	return Session{State: StateIdle}
}

// Get returns a scratch value or "".
func (s *Session) Get(key string) string {
	return s.Data[key]
}

// GetInt64 parses a scratch value as int64.
func (s *Session) GetInt64(key string) (int64, bool) {
	v, ok := s.Data[key]
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	return n, err == nil
}

// Set stores a scratch value.
func (s *Session) Set(key, value string) {
	if s.Data == nil {
		s.Data = make(map[string]string)
	}
	s.Data[key] = value
}

// SetInt64 stores an int64 scratch value.
func (s *Session) SetInt64(key string, value int64) {
	s.Set(key, strconv.FormatInt(value, 10))
}

// Delete removes a scratch value.
func (s *Session) Delete(key string) {
	delete(s.Data, key)
}

// Reset moves the session back to idle and drops scratch data.
func (s *Session) Reset() {
	s.State = StateIdle
	s.Data = nil
}

// Idle reports whether the session holds no conversation in progress.
func (s *Session) Idle() bool {
	return s.State == "" || s.State == StateIdle
}

// Store persists sessions keyed by Telegram user id.
// Load returns an idle session when none exists or it has expired.
type Store interface {
	Load(ctx context.Context, userID int64) (Session, error)
	Save(ctx context.Context, userID int64, s Session) error
	Clear(ctx context.Context, userID int64) error
}

// DefaultTTL bounds how long an abandoned conversation is kept.
const DefaultTTL = 30 * time.Minute
