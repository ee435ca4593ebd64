package model

import (
	"time"

	"gorm.io/datatypes"
)

// ObjectiveSnapshot is the persisted copy of a player's objective state,
// written at session boundaries. While a session is live these rows go
// stale on purpose: live progress is held in memory and only flushed
// back at disconnect or on the periodic writeback tick.
type ObjectiveSnapshot struct {
	ID       int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	PlayerID string `gorm:"uniqueIndex;size:36;not null" json:"player_id"`
	// Objectives is a JSON object mapping objective label to its opaque
	// serialized state string.
	Objectives datatypes.JSON `json:"objectives"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}
