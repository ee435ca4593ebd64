package player

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// SessionManager maintains the registry of all live PlayerSessions,
// keyed by player UUID. It is the session resolver: a player with an
// entry here has a live session, everyone else is snapshot-only.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*PlayerSession
	logger   *zap.Logger
}

// NewSessionManager creates a new SessionManager.
func NewSessionManager(logger *zap.Logger) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*PlayerSession),
		logger:   logger,
	}
}

// Register adds a session. If a previous session exists for the same
// player, it is closed first (handles duplicate login / reconnect).
func (sm *SessionManager) Register(s *PlayerSession) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if old, ok := sm.sessions[s.PlayerID]; ok {
		old.Close()
		sm.logger.Info("duplicate session displaced",
			zap.String("player_id", s.PlayerID))
	}
	sm.sessions[s.PlayerID] = s
	sm.logger.Info("player session registered",
		zap.String("player_id", s.PlayerID),
		zap.String("name", s.Name))
}

// Unregister removes the session for a player if it is still the
// registered one (a displaced session must not evict its replacement)
// and reports whether it was. Callers use the result to decide whether
// the session's state is still authoritative for the player.
func (sm *SessionManager) Unregister(s *PlayerSession) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if cur, ok := sm.sessions[s.PlayerID]; ok && cur == s {
		delete(sm.sessions, s.PlayerID)
		sm.logger.Info("player session unregistered", zap.String("player_id", s.PlayerID))
		return true
	}
	return false
}

// Get returns the session for a player UUID, or nil if not found.
func (sm *SessionManager) Get(playerID string) *PlayerSession {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[playerID]
}

// IsOnline reports whether a player currently has a live session.
func (sm *SessionManager) IsOnline(playerID string) bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	_, ok := sm.sessions[playerID]
	return ok
}

// Count returns the number of currently connected sessions.
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// All returns a snapshot slice of all current sessions.
func (sm *SessionManager) All() []*PlayerSession {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	out := make([]*PlayerSession, 0, len(sm.sessions))
	for _, s := range sm.sessions {
		out = append(out, s)
	}
	return out
}

// CloseAllSessions gracefully closes all connected sessions.
func (sm *SessionManager) CloseAllSessions() {
	sm.mu.Lock()
	sessions := make([]*PlayerSession, 0, len(sm.sessions))
	for _, s := range sm.sessions {
		sessions = append(sessions, s)
	}
	sm.mu.Unlock()

	sm.logger.Info("closing all sessions", zap.Int("count", len(sessions)))
	for _, s := range sessions {
		s.Close()
	}

	// Wait for disconnect handlers to unregister everything (with timeout).
	maxWait := 10 * time.Second
	start := time.Now()
	for time.Since(start) < maxWait {
		sm.mu.RLock()
		count := len(sm.sessions)
		sm.mu.RUnlock()
		if count == 0 {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
}
