package model

import "time"

// Player is the subject a request acts on behalf of, identified by a
// stable UUID matching the game client's identity.
type Player struct {
	ID   string `gorm:"primaryKey;size:36" json:"id"`
	// Name may be empty until the first login stamps it.
	Name string `gorm:"index;size:32" json:"name"`
	// LastSessionStart is the instant of the most recent live session
	// start. Nil means the player has never connected.
	LastSessionStart *time.Time `json:"last_session_start"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
}
