package daily

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/morinoparty/dailyquest/server/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SnapshotStore reads and writes the persisted objective snapshot and
// the player's last-session-start stamp. Snapshot access is keyed by
// bare player identity; it never needs a session handle.
type SnapshotStore struct {
	db *gorm.DB
}

// NewSnapshotStore creates a SnapshotStore.
func NewSnapshotStore(db *gorm.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// Load returns the persisted objective map for a player. A player with
// no snapshot row gets an empty map.
func (st *SnapshotStore) Load(ctx context.Context, playerID string) (map[string]string, error) {
	var snap model.ObjectiveSnapshot
	err := st.db.WithContext(ctx).Where("player_id = ?", playerID).First(&snap).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	objectives := make(map[string]string)
	if len(snap.Objectives) > 0 {
		if err := json.Unmarshal(snap.Objectives, &objectives); err != nil {
			return nil, err
		}
	}
	return objectives, nil
}

// Save upserts the persisted objective map for a player.
func (st *SnapshotStore) Save(ctx context.Context, playerID string, objectives map[string]string) error {
	raw, err := json.Marshal(objectives)
	if err != nil {
		return err
	}
	var snap model.ObjectiveSnapshot
	err = st.db.WithContext(ctx).Where("player_id = ?", playerID).First(&snap).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		snap = model.ObjectiveSnapshot{PlayerID: playerID, Objectives: datatypes.JSON(raw)}
		return st.db.WithContext(ctx).Create(&snap).Error
	}
	if err != nil {
		return err
	}
	snap.Objectives = datatypes.JSON(raw)
	return st.db.WithContext(ctx).Save(&snap).Error
}

// LastSessionStart returns when a player's most recent live session
// started. The zero time means "never".
func (st *SnapshotStore) LastSessionStart(ctx context.Context, playerID string) (time.Time, error) {
	var p model.Player
	err := st.db.WithContext(ctx).Where("id = ?", playerID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	if p.LastSessionStart == nil {
		return time.Time{}, nil
	}
	return *p.LastSessionStart, nil
}

// TouchSessionStart stamps the player's last-session-start instant,
// creating the player row if needed.
func (st *SnapshotStore) TouchSessionStart(ctx context.Context, playerID, name string, at time.Time) error {
	var p model.Player
	err := st.db.WithContext(ctx).Where("id = ?", playerID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		p = model.Player{ID: playerID, Name: name, LastSessionStart: &at}
		return st.db.WithContext(ctx).Create(&p).Error
	}
	if err != nil {
		return err
	}
	p.LastSessionStart = &at
	if name != "" {
		p.Name = name
	}
	return st.db.WithContext(ctx).Save(&p).Error
}
