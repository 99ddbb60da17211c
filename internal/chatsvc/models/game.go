package models

import (
	"database/sql"
	"strconv"
	"strings"
	"time"
)

// Game states
const (
	GameStateWaiting    = "waiting"
	GameStateInProgress = "in_progress"
	GameStateEnded      = "ended"
)

// Game phases, meaningful only while State is 'in_progress'
const (
	PhaseWaitingForPlayers = "WAITING_FOR_PLAYERS"
	PhaseSpeech            = "SPEECH"
	PhaseVotingForLiar     = "VOTING_FOR_LIAR"
	PhaseDefending         = "DEFENDING"
	PhaseVotingForSurvival = "VOTING_FOR_SURVIVAL"
	PhaseGuessingWord      = "GUESSING_WORD"
	PhaseGameOver          = "GAME_OVER"
)

type Game struct {
	ID               int64         `json:"id"`                 // Primary key
	GameNo           int64         `json:"game_no"`            // Auto-incremented game number (sequence)
	State            string        `json:"state"`              // 'waiting', 'in_progress', 'ended'
	CurrentPhase     string        `json:"current_phase"`      // see phase constants
	TurnOrder        string        `json:"turn_order"`         // comma joined user ids, fixed for the round
	CurrentTurnIndex int           `json:"current_turn_index"` // cursor into TurnOrder
	CurrentPlayerID  sql.NullInt64 `json:"current_player_id"`  // user id expected to act now
	TurnStartedAt    sql.NullTime  `json:"turn_started_at"`
	PhaseEndTime     sql.NullTime  `json:"phase_end_time"`
	AccusedPlayerID  sql.NullInt64 `json:"accused_player_id"`
	LastActivityAt   time.Time     `json:"last_activity_at"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// TurnOrderIDs parses the comma joined turn order into user ids,
// skipping anything that does not parse.
func (g *Game) TurnOrderIDs() []int64 {
	if g.TurnOrder == "" {
		return nil
	}
	parts := strings.Split(g.TurnOrder, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// EffectivePhase maps the game state to the phase the chat policy
// should evaluate. CurrentPhase is only trusted while in progress.
func (g *Game) EffectivePhase() string {
	switch g.State {
	case GameStateWaiting:
		return PhaseWaitingForPlayers
	case GameStateEnded:
		return PhaseGameOver
	default:
		return g.CurrentPhase
	}
}
