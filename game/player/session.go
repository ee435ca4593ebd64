package player

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	sendChanBuf   = 256
	writeDeadline = 10 * time.Second
	readDeadlineS = 60 * time.Second
	pingInterval  = 30 * time.Second // server-side WS ping
)

// Packet is the unified WS message envelope.
type Packet struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// PlayerSession represents a connected player's live session. It holds
// the authoritative in-memory objective state, mutated continuously
// while the session is active. The session handle (not the bare player
// UUID) is what live-data accessors and the event executor require.
type PlayerSession struct {
	PlayerID  string
	Name      string
	StartedAt time.Time

	Conn     *websocket.Conn
	SendChan chan []byte
	Done     chan struct{}

	mu         sync.Mutex
	objectives map[string]string
	logger     *zap.Logger
}

// NewPlayerSession creates a new PlayerSession with the write goroutine started.
func NewPlayerSession(playerID, name string, conn *websocket.Conn, logger *zap.Logger) *PlayerSession {
	s := &PlayerSession{
		PlayerID:   playerID,
		Name:       name,
		StartedAt:  time.Now(),
		Conn:       conn,
		SendChan:   make(chan []byte, sendChanBuf),
		Done:       make(chan struct{}),
		objectives: make(map[string]string),
		logger:     logger,
	}
	go s.writePump()
	return s
}

// NewDetachedSession creates a session without a transport. Packets
// sent to it accumulate in SendChan. Used by tests and offline tooling
// that exercise live state without a real connection.
func NewDetachedSession(playerID, name string, logger *zap.Logger) *PlayerSession {
	return &PlayerSession{
		PlayerID:   playerID,
		Name:       name,
		StartedAt:  time.Now(),
		SendChan:   make(chan []byte, sendChanBuf),
		Done:       make(chan struct{}),
		objectives: make(map[string]string),
		logger:     logger,
	}
}

// writePump drains SendChan and writes to the WebSocket connection.
// Also sends periodic WebSocket pings to detect dead connections quickly.
func (s *PlayerSession) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer s.Conn.Close()
	for {
		select {
		case data, ok := <-s.SendChan:
			if !ok {
				return
			}
			_ = s.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := s.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.logger.Warn("ws write error",
					zap.String("player_id", s.PlayerID),
					zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = s.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := s.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.Done:
			_ = s.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// Send encodes pkt and sends it non-blocking. Drops if channel full or closed.
func (s *PlayerSession) Send(pkt *Packet) {
	if s.IsClosed() {
		return
	}
	data, err := json.Marshal(pkt)
	if err != nil {
		return
	}
	select {
	case s.SendChan <- data:
	case <-s.Done:
		// Session closed while sending
	default:
		if !s.IsClosed() {
			s.logger.Warn("send channel full, dropping packet",
				zap.String("player_id", s.PlayerID),
				zap.String("type", pkt.Type))
		}
	}
}

// Close signals the writePump to shut down.
func (s *PlayerSession) Close() {
	select {
	case <-s.Done:
	default:
		close(s.Done)
	}
}

// IsClosed returns true if the session has been closed.
func (s *PlayerSession) IsClosed() bool {
	select {
	case <-s.Done:
		return true
	default:
		return false
	}
}

// SetReadDeadline resets the WebSocket read deadline to 60 s from now.
func (s *PlayerSession) SetReadDeadline() {
	_ = s.Conn.SetReadDeadline(time.Now().Add(readDeadlineS))
}

// SetObjective stores one objective's serialized state.
func (s *PlayerSession) SetObjective(label, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objectives[label] = value
}

// Objective returns one objective's serialized state.
func (s *PlayerSession) Objective(label string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.objectives[label]
	return v, ok
}

// Objectives returns a copy of the live objective state map.
func (s *PlayerSession) Objectives() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.objectives))
	for k, v := range s.objectives {
		out[k] = v
	}
	return out
}

// ReplaceObjectives swaps in a full objective state map. Called once at
// session start when the persisted snapshot is loaded.
func (s *PlayerSession) ReplaceObjectives(m map[string]string) {
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objectives = cp
}

// RemoveObjectivesWithPrefix deletes every objective whose label starts
// with prefix and returns how many were removed.
func (s *PlayerSession) RemoveObjectivesWithPrefix(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k := range s.objectives {
		if strings.HasPrefix(k, prefix) {
			delete(s.objectives, k)
			n++
		}
	}
	return n
}
