package daily

import (
	"context"

	"github.com/morinoparty/dailyquest/server/game/engine"
	"github.com/morinoparty/dailyquest/server/game/player"
	"go.uber.org/zap"
)

// Source names reported by the resolver, for logging and tests.
const (
	SourceLive     = "live"
	SourceSnapshot = "snapshot"
	SourceEmpty    = "empty"
)

// source is one fallback tier: a named fetch attempt. The live tier is
// bound to the session handle, the snapshot tier to the bare identity;
// the handle kind is fixed when the tier is built, never at call sites.
type source struct {
	name  string
	fetch func(ctx context.Context) (map[string]string, error)
}

// SourceResolver produces the objective state map for a player,
// choosing between the live session and the persisted snapshot and
// falling back silently. It never returns an error: every failure mode
// degrades to an empty map.
type SourceResolver struct {
	sm     *player.SessionManager
	disp   *engine.Dispatcher
	store  *SnapshotStore
	logger *zap.Logger
}

// NewSourceResolver creates a SourceResolver.
func NewSourceResolver(sm *player.SessionManager, disp *engine.Dispatcher, store *SnapshotStore, logger *zap.Logger) *SourceResolver {
	return &SourceResolver{sm: sm, disp: disp, store: store, logger: logger}
}

// Resolve fetches the objective map for a player and reports which
// source supplied it. Tiers are tried in order: live (only when a
// session exists), then snapshot. Failures are logged, never raised.
func (r *SourceResolver) Resolve(ctx context.Context, playerID string) (map[string]string, string) {
	var tiers []source
	if s := r.sm.Get(playerID); s != nil {
		tiers = append(tiers, r.liveSource(s))
	}
	tiers = append(tiers, r.snapshotSource(playerID))

	for _, t := range tiers {
		m, err := t.fetch(ctx)
		if err != nil {
			r.logger.Warn("objective source fetch failed, falling back",
				zap.String("player_id", playerID),
				zap.String("source", t.name),
				zap.Error(err))
			continue
		}
		return m, t.name
	}
	return map[string]string{}, SourceEmpty
}

// liveSource reads the in-memory objective state through the session
// handle on the simulation goroutine.
func (r *SourceResolver) liveSource(s *player.PlayerSession) source {
	return source{
		name: SourceLive,
		fetch: func(ctx context.Context) (map[string]string, error) {
			val, err := r.disp.Submit(ctx, func() (interface{}, error) {
				return s.Objectives(), nil
			})
			if err != nil {
				return nil, err
			}
			return val.(map[string]string), nil
		},
	}
}

// snapshotSource reads the persisted snapshot by bare identity.
func (r *SourceResolver) snapshotSource(playerID string) source {
	return source{
		name: SourceSnapshot,
		fetch: func(ctx context.Context) (map[string]string, error) {
			return r.store.Load(ctx, playerID)
		},
	}
}
