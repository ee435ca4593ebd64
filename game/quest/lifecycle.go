package quest

import (
	"context"
	"strings"

	"github.com/morinoparty/dailyquest/server/game/daily"
	"github.com/morinoparty/dailyquest/server/game/player"
	"go.uber.org/zap"
)

// OnSessionStart loads the persisted snapshot into the session's live
// objective state and stamps the player's last-session-start instant.
// When the snapshot predates the reset boundary the previous cycle's
// quests are discarded, reroll points are regranted and a fresh set is
// assigned.
func (svc *Service) OnSessionStart(ctx context.Context, s *player.PlayerSession, schedule daily.ResetSchedule) error {
	snapshot, err := svc.store.Load(ctx, s.PlayerID)
	if err != nil {
		svc.logger.Warn("snapshot load failed at session start, starting empty",
			zap.String("player_id", s.PlayerID), zap.Error(err))
		snapshot = map[string]string{}
	}
	last, err := svc.store.LastSessionStart(ctx, s.PlayerID)
	if err != nil {
		svc.logger.Warn("last session lookup failed at session start",
			zap.String("player_id", s.PlayerID), zap.Error(err))
	}
	newCycle := schedule.IsStale(last, s.StartedAt)

	if _, err := svc.disp.Submit(ctx, func() (interface{}, error) {
		s.ReplaceObjectives(snapshot)
		if newCycle {
			s.RemoveObjectivesWithPrefix(daily.QuestRegistryPackage + "-")
			svc.setPoints(s, svc.rerollPoints)
		}
		if !svc.hasDailyQuests(s) {
			for _, diff := range []daily.Difficulty{daily.DifficultyEasy, daily.DifficultyNormal, daily.DifficultyHard} {
				if tmpl, ok := svc.pickRandom(diff); ok {
					svc.assign(s, diff, tmpl)
				}
			}
		}
		return nil, nil
	}); err != nil {
		return err
	}

	return svc.store.TouchSessionStart(ctx, s.PlayerID, s.Name, s.StartedAt)
}

// OnSessionEnd flushes the live objective state back to the snapshot
// store. The session may already be closed; its state map remains
// readable.
func (svc *Service) OnSessionEnd(ctx context.Context, s *player.PlayerSession) {
	if err := svc.Flush(ctx, s); err != nil {
		svc.logger.Error("snapshot writeback failed at session end",
			zap.String("player_id", s.PlayerID), zap.Error(err))
		return
	}
	svc.logger.Info("session state flushed",
		zap.String("player_id", s.PlayerID))
}

// Flush persists one session's live objective state.
func (svc *Service) Flush(ctx context.Context, s *player.PlayerSession) error {
	val, err := svc.disp.Submit(ctx, func() (interface{}, error) {
		return s.Objectives(), nil
	})
	if err != nil {
		return err
	}
	return svc.store.Save(ctx, s.PlayerID, val.(map[string]string))
}

// hasDailyQuests reports whether any quest-pool entry is present in the
// session's live state. Dispatcher-thread only.
func (svc *Service) hasDailyQuests(s *player.PlayerSession) bool {
	for label := range s.Objectives() {
		if strings.HasPrefix(label, daily.QuestRegistryPackage+"-") {
			return true
		}
	}
	return false
}
