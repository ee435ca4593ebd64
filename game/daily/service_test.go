package daily

import (
	"context"
	"testing"
	"time"

	"github.com/morinoparty/dailyquest/server/game/engine"
	"github.com/morinoparty/dailyquest/server/game/player"
	"github.com/morinoparty/dailyquest/server/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type serviceFixture struct {
	sm       *player.SessionManager
	disp     *engine.Dispatcher
	executor *engine.EventExecutor
	store    *SnapshotStore
	svc      *Service
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	logger := zap.NewNop()
	db := testutil.SetupTestDB(t)
	f := &serviceFixture{
		sm:    player.NewSessionManager(logger),
		disp:  engine.NewDispatcher(logger),
		store: NewSnapshotStore(db),
	}
	t.Cleanup(f.disp.Stop)
	f.executor = engine.NewEventExecutor(f.disp, logger)
	resolver := NewSourceResolver(f.sm, f.disp, f.store, logger)
	f.svc = NewService(f.sm, f.executor, resolver, f.store, DefaultResetSchedule, logger)
	return f
}

// connect registers a detached live session for the player.
func (f *serviceFixture) connect(playerID string) *player.PlayerSession {
	s := player.NewDetachedSession(playerID, "Steve", zap.NewNop())
	f.sm.Register(s)
	return s
}

func questSnapshot() map[string]string {
	base := QuestPackagePath(DifficultyEasy, "mining_coal")
	return map[string]string{
		EntryLabel(base, SectionDisplay):  EncodeFields("title", "Coal Miner", "description", "Mine 32 coal ore"),
		EntryLabel(base, SectionState):    EncodeFields("taskCompleted", "false", "questCompleted", "false"),
		EntryLabel(base, SectionProgress): EncodeFields("current", "8", "target", "32"),
	}
}

func TestFetchDailyQuests_NeverSeenPlayer(t *testing.T) {
	f := newServiceFixture(t)
	quests := f.svc.FetchDailyQuests(context.Background(), "never-seen")
	assert.NotNil(t, quests)
	assert.Empty(t, quests)
}

func TestFetchDailyQuests_OfflineFreshSnapshot(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }

	require.NoError(t, f.store.Save(ctx, "p1", questSnapshot()))
	// Session started after today's 04:00 boundary.
	require.NoError(t, f.store.TouchSessionStart(ctx, "p1", "Steve", now.Add(-2*time.Hour)))

	quests := f.svc.FetchDailyQuests(ctx, "p1")
	require.Len(t, quests, 1)
	assert.Equal(t, "mining_coal", quests[0].QuestID)
	assert.Equal(t, "easy", quests[0].Difficulty)
	assert.Equal(t, 25, quests[0].ProgressPercentage)
}

func TestFetchDailyQuests_OfflineStaleSnapshot(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }

	require.NoError(t, f.store.Save(ctx, "p1", questSnapshot()))
	// Last session was yesterday evening, before today's boundary.
	require.NoError(t, f.store.TouchSessionStart(ctx, "p1", "Steve", now.Add(-14*time.Hour)))

	quests := f.svc.FetchDailyQuests(ctx, "p1")
	assert.Empty(t, quests, "stale snapshot must not surface yesterday's quests")
}

func TestFetchDailyQuests_LiveSessionSkipsStalenessGate(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }

	// Stale on-disk stamp; the live session is authoritative regardless.
	require.NoError(t, f.store.TouchSessionStart(ctx, "p1", "Steve", now.Add(-48*time.Hour)))

	s := f.connect("p1")
	for label, value := range questSnapshot() {
		s.SetObjective(label, value)
	}

	quests := f.svc.FetchDailyQuests(ctx, "p1")
	require.Len(t, quests, 1)
	assert.Equal(t, "mining_coal", quests[0].QuestID)
}

func TestReroll_RequiresLiveSession(t *testing.T) {
	f := newServiceFixture(t)

	fired := false
	f.executor.Register(RerollPackage, RerollEvent, func(*player.PlayerSession) (bool, error) {
		fired = true
		return true, nil
	})

	_, err := f.svc.Reroll(context.Background(), "offline-player")
	assert.ErrorIs(t, err, ErrNoLiveSession)
	assert.False(t, fired, "no event may fire for an offline player")
}

func TestReroll_Success(t *testing.T) {
	f := newServiceFixture(t)
	f.connect("p1")

	f.executor.Register(RerollPackage, RerollEvent, func(*player.PlayerSession) (bool, error) {
		return true, nil
	})

	res, err := f.svc.Reroll(context.Background(), "p1")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "Daily quests rerolled successfully", res.Message)
}

func TestReroll_ConditionsNotMet(t *testing.T) {
	f := newServiceFixture(t)
	f.connect("p1")

	f.executor.Register(RerollPackage, RerollEvent, func(*player.PlayerSession) (bool, error) {
		return false, nil
	})

	res, err := f.svc.Reroll(context.Background(), "p1")
	require.NoError(t, err, "an unmet condition is a domain outcome, not an error")
	assert.False(t, res.Success)
	assert.Equal(t, "Reroll conditions not met", res.Message)
}

func TestReroll_EventNotRegistered(t *testing.T) {
	f := newServiceFixture(t)
	f.connect("p1")

	_, err := f.svc.Reroll(context.Background(), "p1")
	assert.ErrorIs(t, err, engine.ErrEventNotFound)
}

func TestSelectDifficulty_CaseInsensitive(t *testing.T) {
	f := newServiceFixture(t)
	f.connect("p1")

	var firedEvent string
	f.executor.Register(QuestRegistryPackage, "QuestRegistry#selectRandomEasyDailyQuest",
		func(*player.PlayerSession) (bool, error) {
			firedEvent = "easy"
			return true, nil
		})

	res, err := f.svc.SelectDifficulty(context.Background(), "p1", "EASY")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "Quest selected with difficulty: easy", res.Message)
	assert.Equal(t, "easy", firedEvent)
}

func TestSelectDifficulty_InvalidBeforeSessionCheck(t *testing.T) {
	f := newServiceFixture(t)

	// Player is offline; an unknown difficulty must still be reported as
	// invalid input, not as a session problem.
	_, err := f.svc.SelectDifficulty(context.Background(), "offline-player", "legendary")
	var invalid *InvalidDifficultyError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "legendary", invalid.Input)
	assert.Contains(t, err.Error(), "easy, normal, hard")
}

func TestSelectDifficulty_EventTierNotSelectable(t *testing.T) {
	f := newServiceFixture(t)
	f.connect("p1")

	_, err := f.svc.SelectDifficulty(context.Background(), "p1", "event")
	var invalid *InvalidDifficultyError
	assert.ErrorAs(t, err, &invalid)
}

func TestSelectDifficulty_RequiresLiveSession(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.SelectDifficulty(context.Background(), "offline-player", "hard")
	assert.ErrorIs(t, err, ErrNoLiveSession)
}

func TestSelectDifficulty_ConditionsNotMet(t *testing.T) {
	f := newServiceFixture(t)
	f.connect("p1")

	f.executor.Register(QuestRegistryPackage, "QuestRegistry#selectRandomHardDailyQuest",
		func(*player.PlayerSession) (bool, error) {
			return false, nil
		})

	res, err := f.svc.SelectDifficulty(context.Background(), "p1", "hard")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Quest selection conditions not met", res.Message)
}
