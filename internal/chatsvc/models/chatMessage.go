package models

import (
	"database/sql"
	"time"
)

// Chat message types, assigned once by the chat policy at creation time
const (
	MessageTypeHint       = "HINT"
	MessageTypeDiscussion = "DISCUSSION"
	MessageTypeDefense    = "DEFENSE"
	MessageTypePostRound  = "POST_ROUND"
	MessageTypeSystem     = "SYSTEM"
)

// SystemNickname is the nickname snapshot used for system authored messages.
const SystemNickname = "SYSTEM"

type ChatMessage struct {
	ID           int64         `json:"id"`             // Primary key
	GameID       int64         `json:"game_id"`        // FK to games(id)
	PlayerID     sql.NullInt64 `json:"player_id"`      // FK to players(id), null for system messages
	PlayerUserID sql.NullInt64 `json:"player_user_id"` // user id snapshot, survives player removal
	Nickname     string        `json:"nickname"`       // nickname snapshot
	Content      string        `json:"content"`
	Type         string        `json:"type"`
	Timestamp    time.Time     `json:"timestamp"`
}
