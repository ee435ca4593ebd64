package quest

import (
	"context"
	"encoding/json"
	"math/rand"
	"strconv"
	"strings"

	"github.com/morinoparty/dailyquest/server/game/daily"
	"github.com/morinoparty/dailyquest/server/game/engine"
	"github.com/morinoparty/dailyquest/server/game/player"
	"go.uber.org/zap"
)

// rerollPointsLabel is the objective entry holding the player's reroll
// currency. It lives outside the quest pool path so the extractor never
// reports it as a quest.
const rerollPointsLabel = daily.RerollPackage + ".Reroll"

// Template is one quest definition in a difficulty pool.
type Template struct {
	ID          string
	Title       string
	Description string
	Target      int
}

// Service is the in-process quest engine: it owns the difficulty pools,
// implements the named reroll/selection events, and manages session
// objective state across the session lifecycle. All live-state mutation
// happens on the dispatcher goroutine.
type Service struct {
	store        *daily.SnapshotStore
	disp         *engine.Dispatcher
	pools        map[daily.Difficulty][]Template
	rerollPoints int
	rng          *rand.Rand
	logger       *zap.Logger
}

// NewService creates the quest engine service. rerollPoints is the
// currency granted at session start when the player has none banked.
func NewService(store *daily.SnapshotStore, disp *engine.Dispatcher, pools map[daily.Difficulty][]Template, rerollPoints int, logger *zap.Logger) *Service {
	if pools == nil {
		pools = make(map[daily.Difficulty][]Template)
	}
	return &Service{
		store:        store,
		disp:         disp,
		pools:        pools,
		rerollPoints: rerollPoints,
		rng:          rand.New(rand.NewSource(rand.Int63())),
		logger:       logger,
	}
}

// RegisterEvents installs the named events the action bridge fires.
func (svc *Service) RegisterEvents(ex *engine.EventExecutor) {
	ex.Register(daily.RerollPackage, daily.RerollEvent, svc.rerollEvent)
	for diff, event := range map[daily.Difficulty]string{
		daily.DifficultyEasy:   "QuestRegistry#selectRandomEasyDailyQuest",
		daily.DifficultyNormal: "QuestRegistry#selectRandomNormalDailyQuest",
		daily.DifficultyHard:   "QuestRegistry#selectRandomHardDailyQuest",
	} {
		ex.Register(daily.QuestRegistryPackage, event, svc.selectRandomEvent(diff))
	}
}

// selectRandomEvent assigns a random quest from the difficulty's pool,
// replacing any quest the player already holds in that bucket.
func (svc *Service) selectRandomEvent(diff daily.Difficulty) engine.EventFunc {
	return func(s *player.PlayerSession) (bool, error) {
		tmpl, ok := svc.pickRandom(diff)
		if !ok {
			// Empty pool: the selection condition cannot be met.
			return false, nil
		}
		svc.assign(s, diff, tmpl)
		return true, nil
	}
}

// rerollEvent discards the player's current daily quests and assigns a
// fresh random set, consuming one reroll point. Without points the
// event's condition is unmet and nothing changes.
func (svc *Service) rerollEvent(s *player.PlayerSession) (bool, error) {
	points := svc.points(s)
	if points <= 0 {
		return false, nil
	}
	svc.setPoints(s, points-1)

	s.RemoveObjectivesWithPrefix(daily.QuestRegistryPackage + "-")
	for _, diff := range []daily.Difficulty{daily.DifficultyEasy, daily.DifficultyNormal, daily.DifficultyHard} {
		if tmpl, ok := svc.pickRandom(diff); ok {
			svc.assign(s, diff, tmpl)
		}
	}
	svc.logger.Info("daily quests rerolled",
		zap.String("player_id", s.PlayerID),
		zap.Int("points_left", points-1))
	return true, nil
}

func (svc *Service) pickRandom(diff daily.Difficulty) (Template, bool) {
	pool := svc.pools[diff]
	if len(pool) == 0 {
		return Template{}, false
	}
	return pool[svc.rng.Intn(len(pool))], true
}

// assign writes the three objective entries for a quest instance and
// notifies the client.
func (svc *Service) assign(s *player.PlayerSession, diff daily.Difficulty, tmpl Template) {
	s.RemoveObjectivesWithPrefix(daily.PoolPathPrefix(diff))
	base := daily.QuestPackagePath(diff, tmpl.ID)
	s.SetObjective(daily.EntryLabel(base, daily.SectionDisplay),
		daily.EncodeFields("title", tmpl.Title, "description", tmpl.Description))
	s.SetObjective(daily.EntryLabel(base, daily.SectionState),
		daily.EncodeFields("taskCompleted", "false", "questCompleted", "false"))
	s.SetObjective(daily.EntryLabel(base, daily.SectionProgress),
		daily.EncodeFields("current", "0", "target", strconv.Itoa(tmpl.Target)))
	svc.sendQuestUpdate(s, base)
}

// AdvanceProgress adds amount to a quest instance's counter, marking
// the task complete when the target is reached. Returns false if the
// player does not hold that quest.
func (svc *Service) AdvanceProgress(ctx context.Context, s *player.PlayerSession, questPackage string, amount int) (bool, error) {
	val, err := svc.disp.Submit(ctx, func() (interface{}, error) {
		progLabel := daily.EntryLabel(questPackage, daily.SectionProgress)
		raw, ok := s.Objective(progLabel)
		if !ok {
			return false, nil
		}
		fields := parseFields(raw)
		current, _ := strconv.Atoi(fields["current"])
		target, _ := strconv.Atoi(fields["target"])
		current += amount
		if current < 0 {
			current = 0
		}
		if target > 0 && current >= target {
			current = target
			svc.setStateFlag(s, questPackage, "taskCompleted", true)
		}
		s.SetObjective(progLabel, daily.EncodeFields(
			"current", strconv.Itoa(current),
			"target", strconv.Itoa(target)))
		svc.sendQuestUpdate(s, questPackage)
		return true, nil
	})
	if err != nil {
		return false, err
	}
	return val.(bool), nil
}

// ClaimReward marks a completed quest's reward as claimed. Returns
// false when the task is not yet complete or the reward was already
// claimed.
func (svc *Service) ClaimReward(ctx context.Context, s *player.PlayerSession, questPackage string) (bool, error) {
	val, err := svc.disp.Submit(ctx, func() (interface{}, error) {
		stateLabel := daily.EntryLabel(questPackage, daily.SectionState)
		raw, ok := s.Objective(stateLabel)
		if !ok {
			return false, nil
		}
		fields := parseFields(raw)
		if fields["taskCompleted"] != "true" || fields["questCompleted"] == "true" {
			return false, nil
		}
		svc.setStateFlag(s, questPackage, "questCompleted", true)
		svc.sendQuestUpdate(s, questPackage)
		return true, nil
	})
	if err != nil {
		return false, err
	}
	return val.(bool), nil
}

// setStateFlag rewrites one boolean in a quest's state entry,
// preserving the other fields. Dispatcher-thread only.
func (svc *Service) setStateFlag(s *player.PlayerSession, questPackage, key string, value bool) {
	stateLabel := daily.EntryLabel(questPackage, daily.SectionState)
	fields := map[string]string{"taskCompleted": "false", "questCompleted": "false"}
	if raw, ok := s.Objective(stateLabel); ok {
		for k, v := range parseFields(raw) {
			fields[k] = v
		}
	}
	fields[key] = strconv.FormatBool(value)
	s.SetObjective(stateLabel, daily.EncodeFields(
		"taskCompleted", fields["taskCompleted"],
		"questCompleted", fields["questCompleted"]))
}

func (svc *Service) points(s *player.PlayerSession) int {
	raw, ok := s.Objective(rerollPointsLabel)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(parseFields(raw)["points"])
	if err != nil {
		return 0
	}
	return n
}

func (svc *Service) setPoints(s *player.PlayerSession, n int) {
	s.SetObjective(rerollPointsLabel, daily.EncodeFields("points", strconv.Itoa(n)))
}

func (svc *Service) sendQuestUpdate(s *player.PlayerSession, questPackage string) {
	payload, _ := json.Marshal(map[string]interface{}{
		"questPackage": questPackage,
	})
	s.Send(&player.Packet{Type: "quest_update", Payload: payload})
}

// parseFields splits a v1 objective value into its key/value pairs.
func parseFields(raw string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(raw, ";") {
		if k, v, ok := strings.Cut(pair, ":"); ok {
			out[k] = v
		}
	}
	return out
}
