package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/morinoparty/dailyquest/server/cache"
	"github.com/morinoparty/dailyquest/server/config"
	"github.com/morinoparty/dailyquest/server/game/daily"
	"github.com/morinoparty/dailyquest/server/game/player"
	"github.com/morinoparty/dailyquest/server/game/quest"
	mw "github.com/morinoparty/dailyquest/server/middleware"
	"go.uber.org/zap"
)

// Handler is the Gin handler for GET /ws. A successful upgrade starts a
// live session for the authenticated player; the game client streams
// objective progress over the socket while connected.
type Handler struct {
	cache    cache.Cache
	sec      config.SecurityConfig
	sm       *player.SessionManager
	questSvc *quest.Service
	schedule daily.ResetSchedule
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates a new WebSocket Handler.
// sec.AllowedOrigins controls which WebSocket origins are accepted.
// An empty slice permits all origins (development only).
func NewHandler(
	c cache.Cache,
	sec config.SecurityConfig,
	sm *player.SessionManager,
	questSvc *quest.Service,
	schedule daily.ResetSchedule,
	logger *zap.Logger,
) *Handler {
	h := &Handler{
		cache:    c,
		sec:      sec,
		sm:       sm,
		questSvc: questSvc,
		schedule: schedule,
		logger:   logger,
	}
	allowed := sec.AllowedOrigins
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowed) == 0 {
				return true // dev mode: allow all
			}
			origin := r.Header.Get("Origin")
			for _, o := range allowed {
				if o == origin {
					return true
				}
			}
			return false
		},
	}
	return h
}

// ServeWS handles GET /ws?token=<jwt>.
func (h *Handler) ServeWS(c *gin.Context) {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	// Validate JWT.
	claims, err := mw.ParseToken(tokenStr, h.sec.JWTSecret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	// Validate session cache.
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	exists, err := h.cache.Exists(ctx, "session:"+tokenStr)
	if err != nil || !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
		return
	}

	// Upgrade to WebSocket.
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("ws upgrade failed", zap.Error(err))
		return
	}

	sess := player.NewPlayerSession(claims.PlayerID, "", conn, h.logger)
	h.sm.Register(sess)

	// Session start: snapshot load, cycle rollover, last-session stamp.
	startCtx, startCancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = h.questSvc.OnSessionStart(startCtx, sess, h.schedule)
	startCancel()
	if err != nil {
		h.logger.Error("session start failed",
			zap.String("player_id", sess.PlayerID), zap.Error(err))
		h.sm.Unregister(sess)
		sess.Close()
		return
	}

	h.readPump(sess)
}

type progressPayload struct {
	QuestPackage string `json:"questPackage"`
	Amount       int    `json:"amount"`
}

type claimPayload struct {
	QuestPackage string `json:"questPackage"`
}

// readPump reads messages from the WebSocket connection and dispatches them.
func (h *Handler) readPump(s *player.PlayerSession) {
	defer h.handleDisconnect(s)

	s.SetReadDeadline()
	s.Conn.SetPongHandler(func(string) error {
		s.SetReadDeadline()
		return nil
	})

	for {
		_, raw, err := s.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
				websocket.CloseNoStatusReceived) {
				h.logger.Warn("ws unexpected close",
					zap.String("player_id", s.PlayerID),
					zap.Error(err))
			}
			return
		}
		// Reset read deadline on any message (heartbeat or otherwise).
		s.SetReadDeadline()
		h.dispatch(s, raw)
	}
}

// dispatch routes one client packet.
func (h *Handler) dispatch(s *player.PlayerSession, raw []byte) {
	var pkt player.Packet
	if err := json.Unmarshal(raw, &pkt); err != nil {
		h.logger.Warn("ws malformed packet",
			zap.String("player_id", s.PlayerID), zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	switch pkt.Type {
	case "ping":
		s.Send(&player.Packet{Type: "pong"})
	case "progress":
		var p progressPayload
		if err := json.Unmarshal(pkt.Payload, &p); err != nil {
			return
		}
		if _, err := h.questSvc.AdvanceProgress(ctx, s, p.QuestPackage, p.Amount); err != nil {
			h.logger.Warn("progress update failed",
				zap.String("player_id", s.PlayerID), zap.Error(err))
		}
	case "claim":
		var p claimPayload
		if err := json.Unmarshal(pkt.Payload, &p); err != nil {
			return
		}
		if _, err := h.questSvc.ClaimReward(ctx, s, p.QuestPackage); err != nil {
			h.logger.Warn("reward claim failed",
				zap.String("player_id", s.PlayerID), zap.Error(err))
		}
	default:
		h.logger.Debug("ws unknown packet type",
			zap.String("player_id", s.PlayerID),
			zap.String("type", pkt.Type))
	}
}

// handleDisconnect cleans up the session after the connection closes.
// A session displaced by a duplicate login no longer owns the player's
// state; flushing it would overwrite the snapshot the replacement
// session wrote, so only the registered session flushes.
func (h *Handler) handleDisconnect(s *player.PlayerSession) {
	s.Close()
	if !h.sm.Unregister(s) {
		h.logger.Info("displaced session closed without flush",
			zap.String("player_id", s.PlayerID))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	h.questSvc.OnSessionEnd(ctx, s)

	h.logger.Info("player disconnected",
		zap.String("player_id", s.PlayerID))
}
