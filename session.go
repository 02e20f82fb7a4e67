package main

import (
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

const defaultMaxSessions = 100

// SessionIdleTimeout is how long a session with no clients survives
var SessionIdleTimeout = 2 * time.Minute

// ErrTooManySessions is returned when the session limit is reached
var ErrTooManySessions = errors.New("too many active sessions")

// Session represents a duel that clients can watch or drive
type Session struct {
	ID         string
	Name       string
	Game       *Game
	lastActive time.Time
}

// SessionManager handles creation and lookup of sessions
type SessionManager struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	maxSessions int
	match       MatchConfig
	opts        GameOptions
}

// NewSessionManager creates a SessionManager that starts every duel with
// the given rules
func NewSessionManager(match MatchConfig, opts GameOptions, maxSessions int) *SessionManager {
	if maxSessions <= 0 {
		maxSessions = defaultMaxSessions
	}
	return &SessionManager{
		sessions:    make(map[string]*Session),
		maxSessions: maxSessions,
		match:       match,
		opts:        opts,
	}
}

// CreateSession creates and starts a new session
func (sm *SessionManager) CreateSession(name string) (*Session, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if len(sm.sessions) >= sm.maxSessions {
		return nil, ErrTooManySessions
	}

	id := uuid.NewString()
	game, err := NewGame(id, sm.match, sm.opts)
	if err != nil {
		return nil, err
	}
	sess := &Session{
		ID:         id,
		Name:       name,
		Game:       game,
		lastActive: time.Now(),
	}
	sm.sessions[id] = sess
	go game.Run()
	return sess, nil
}

// GetSession returns a session by ID
func (sm *SessionManager) GetSession(id string) *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[id]
}

// MarkActive refreshes a session's idle timer
func (sm *SessionManager) MarkActive(id string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sess, ok := sm.sessions[id]; ok {
		sess.lastActive = time.Now()
	}
}

// RemoveClient detaches a client and refreshes the idle timer so an empty
// session lingers for SessionIdleTimeout before it is swept
func (sm *SessionManager) RemoveClient(sessionID, clientID string) {
	sess := sm.GetSession(sessionID)
	if sess == nil {
		return
	}
	sess.Game.RemoveClient(clientID)
	sm.MarkActive(sessionID)
}

// Sweep stops and removes sessions that have had no clients for longer than
// SessionIdleTimeout. Returns how many were removed.
func (sm *SessionManager) Sweep(now time.Time) int {
	sm.mu.Lock()
	var idle []*Session
	for id, sess := range sm.sessions {
		if sess.Game.ClientCount() == 0 && now.Sub(sess.lastActive) > SessionIdleTimeout {
			idle = append(idle, sess)
			delete(sm.sessions, id)
		}
	}
	sm.mu.Unlock()

	for _, sess := range idle {
		sess.Game.Stop()
		log.Info("session swept", "sid", sess.ID, "name", sess.Name)
	}
	return len(idle)
}

// RunJanitor sweeps idle sessions until stop is closed
func (sm *SessionManager) RunJanitor(stop <-chan struct{}) {
	interval := SessionIdleTimeout / 2
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			sm.Sweep(now)
		case <-stop:
			return
		}
	}
}

// StopAll stops every session, used on shutdown
func (sm *SessionManager) StopAll() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	for id, sess := range sm.sessions {
		sess.Game.Stop()
		delete(sm.sessions, id)
	}
}

// Count returns the number of live sessions
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// ListSessions returns info about all active sessions
func (sm *SessionManager) ListSessions() []SessionInfo {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	list := make([]SessionInfo, 0, len(sm.sessions))
	for _, sess := range sm.sessions {
		list = append(list, SessionInfo{
			ID:      sess.ID,
			Name:    sess.Name,
			Clients: sess.Game.ClientCount(),
			Scores:  sess.Game.Scores(),
		})
	}
	return list
}
