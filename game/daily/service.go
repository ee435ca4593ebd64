package daily

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/morinoparty/dailyquest/server/game/engine"
	"github.com/morinoparty/dailyquest/server/game/player"
	"go.uber.org/zap"
)

// ErrNoLiveSession rejects an action requested for a player who is not
// connected; event execution requires the session-scoped handle.
var ErrNoLiveSession = errors.New("daily: player must be online to perform this action")

// InvalidDifficultyError rejects a select request whose difficulty is
// not one of the selectable set.
type InvalidDifficultyError struct {
	Input string
}

func (e *InvalidDifficultyError) Error() string {
	return fmt.Sprintf("invalid difficulty: %q, must be one of: easy, normal, hard", e.Input)
}

// difficultyEventMap maps a selectable difficulty to the quest registry
// event that assigns a random quest from that pool. Event difficulty is
// deliberately absent: event quests are engine-assigned only.
var difficultyEventMap = map[Difficulty]string{
	DifficultyEasy:   "QuestRegistry#selectRandomEasyDailyQuest",
	DifficultyNormal: "QuestRegistry#selectRandomNormalDailyQuest",
	DifficultyHard:   "QuestRegistry#selectRandomHardDailyQuest",
}

// ActionResult is the outcome of a reroll or select action. Success
// false with a message is a domain no-op (conditions unmet), not an
// error.
type ActionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Service composes the session resolver, staleness policy, source
// resolver and extractor for reads, and bridges reroll/select actions
// to the quest engine's event executor.
type Service struct {
	sm       *player.SessionManager
	executor *engine.EventExecutor
	resolver *SourceResolver
	store    *SnapshotStore
	schedule ResetSchedule
	decoder  EntryDecoder
	now      func() time.Time
	logger   *zap.Logger
}

// NewService creates a daily quest Service.
func NewService(
	sm *player.SessionManager,
	executor *engine.EventExecutor,
	resolver *SourceResolver,
	store *SnapshotStore,
	schedule ResetSchedule,
	logger *zap.Logger,
) *Service {
	return &Service{
		sm:       sm,
		executor: executor,
		resolver: resolver,
		store:    store,
		schedule: schedule,
		decoder:  V1Decoder{PoolPrefix: QuestRegistryPackage},
		now:      time.Now,
		logger:   logger,
	}
}

// FetchDailyQuests returns the player's current daily quest records.
// This is an informational read: every failure mode degrades to an
// empty list, never an error.
func (svc *Service) FetchDailyQuests(ctx context.Context, playerID string) []QuestInfo {
	// Snapshot-only access is gated by the staleness policy: a snapshot
	// from before the last reset boundary describes yesterday's quests.
	if !svc.sm.IsOnline(playerID) {
		last, err := svc.store.LastSessionStart(ctx, playerID)
		if err != nil {
			svc.logger.Warn("last session lookup failed",
				zap.String("player_id", playerID), zap.Error(err))
			return []QuestInfo{}
		}
		if svc.schedule.IsStale(last, svc.now()) {
			svc.logger.Debug("snapshot stale, reporting empty quest list",
				zap.String("player_id", playerID))
			return []QuestInfo{}
		}
	}

	objectives, sourceName := svc.resolver.Resolve(ctx, playerID)
	quests := ExtractMap(objectives, svc.decoder)
	svc.logger.Debug("daily quests extracted",
		zap.String("player_id", playerID),
		zap.String("source", sourceName),
		zap.Int("count", len(quests)))
	return quests
}

// Reroll fires the reroll event for the player. Requires a live
// session.
func (svc *Service) Reroll(ctx context.Context, playerID string) (ActionResult, error) {
	s := svc.sm.Get(playerID)
	if s == nil {
		return ActionResult{}, ErrNoLiveSession
	}

	fired, err := svc.executor.Fire(ctx, s, RerollPackage, RerollEvent)
	if err != nil {
		return ActionResult{}, fmt.Errorf("failed to execute reroll: %w", err)
	}
	if !fired {
		return ActionResult{Success: false, Message: "Reroll conditions not met"}, nil
	}
	return ActionResult{Success: true, Message: "Daily quests rerolled successfully"}, nil
}

// SelectDifficulty fires the quest-selection event for the requested
// difficulty. The difficulty string is validated (case-insensitive)
// before anything touches the engine; a live session is required.
func (svc *Service) SelectDifficulty(ctx context.Context, playerID, difficulty string) (ActionResult, error) {
	diff, ok := ParseDifficulty(difficulty)
	if !ok {
		return ActionResult{}, &InvalidDifficultyError{Input: difficulty}
	}
	eventName, ok := difficultyEventMap[diff]
	if !ok {
		return ActionResult{}, &InvalidDifficultyError{Input: difficulty}
	}

	s := svc.sm.Get(playerID)
	if s == nil {
		return ActionResult{}, ErrNoLiveSession
	}

	fired, err := svc.executor.Fire(ctx, s, QuestRegistryPackage, eventName)
	if err != nil {
		return ActionResult{}, fmt.Errorf("failed to select quest: %w", err)
	}
	if !fired {
		return ActionResult{Success: false, Message: "Quest selection conditions not met"}, nil
	}
	return ActionResult{Success: true, Message: "Quest selected with difficulty: " + string(diff)}, nil
}
