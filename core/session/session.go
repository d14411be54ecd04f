package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dryack/dndice/core/dsl"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionManager keeps named dice in memory, addressed by session id. Roll
// history lives only as long as the session does.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	src      dsl.Source
	now      func() time.Time
}

// Session wraps one named Dice. Its methods serialize access to the Dice, so a
// Session may be shared between requests.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	dice     *dsl.Dice
	lastUsed time.Time
	now      func() time.Time
}

func NewSessionManager(src dsl.Source) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		src:      src,
		now:      time.Now,
	}
}

// CreateSession parses expression and stores it under a new id. A parse error
// is returned unchanged.
func (sm *SessionManager) CreateSession(name, expression string) (*Session, error) {
	dice, err := dsl.FromString(expression)
	if err != nil {
		return nil, err
	}
	dice.SetName(name)
	dice.SetSource(sm.src)

	now := sm.now()
	session := &Session{
		ID:        uuid.New().String(),
		CreatedAt: now,
		dice:      dice,
		lastUsed:  now,
		now:       sm.now,
	}

	sm.mu.Lock()
	sm.sessions[session.ID] = session
	sm.mu.Unlock()

	log.Debug().Str("session_id", session.ID).Str("dice", dice.String()).Msg("session created")
	return session, nil
}

func (sm *SessionManager) GetSession(sessionID string) (*Session, error) {
	sm.mu.RLock()
	session, ok := sm.sessions[sessionID]
	sm.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return session, nil
}

func (sm *SessionManager) DeleteSession(sessionID string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if _, ok := sm.sessions[sessionID]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	delete(sm.sessions, sessionID)
	return nil
}

func (sm *SessionManager) Len() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// StartCleanupTask drops sessions unused for longer than idle, checking every
// interval until ctx is done.
func (sm *SessionManager) StartCleanupTask(ctx context.Context, interval, idle time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := sm.cleanupIdleSessions(idle); n > 0 {
					log.Info().Int("removed", n).Msg("idle dice sessions removed")
				}
			}
		}
	}()
}

func (sm *SessionManager) cleanupIdleSessions(idle time.Duration) int {
	cutoff := sm.now().Add(-idle)

	sm.mu.Lock()
	defer sm.mu.Unlock()
	removed := 0
	for id, s := range sm.sessions {
		if s.LastUsed().Before(cutoff) {
			delete(sm.sessions, id)
			removed++
		}
	}
	return removed
}

// Roll rolls the session's dice and returns the value with its breakdown.
func (s *Session) Roll() (int, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = s.now()
	value := s.dice.Roll()
	return value, s.dice.Last().Log()
}

// Log returns the breakdown of the back-th most recent roll.
func (s *Session) Log(back int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dice.Log(back)
}

func (s *Session) Rolls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dice.Len()
}

func (s *Session) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dice.Name()
}

func (s *Session) Expression() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return dsl.Render(s.dice.Expr())
}

func (s *Session) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dice.String()
}

func (s *Session) LastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}
