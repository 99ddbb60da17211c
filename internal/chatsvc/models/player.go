package models

import "time"

// Player roles
const (
	RoleCitizen  = "CITIZEN"
	RoleImpostor = "IMPOSTOR"
)

// Player states, the last significant action taken
const (
	PlayerStateWaiting  = "WAITING"
	PlayerStateGaveHint = "GAVE_HINT"
	PlayerStateVoted    = "VOTED"
	PlayerStateAccused  = "ACCUSED"
	PlayerStateDefended = "DEFENDED"
)

type Player struct {
	ID        int64     `json:"id"`      // Primary key
	GameID    int64     `json:"game_id"` // FK to games(id)
	UserID    int64     `json:"user_id"` // FK to users(user_id)
	Nickname  string    `json:"nickname"`
	Role      string    `json:"role"`     // 'CITIZEN' or 'IMPOSTOR'
	IsAlive   bool      `json:"is_alive"` // false once eliminated
	State     string    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
