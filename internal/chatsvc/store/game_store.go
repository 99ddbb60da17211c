package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doojoo9999/liargame-services/internal/chatsvc/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type GameStore struct {
	db *pgxpool.Pool
}

func NewGameStore(db *pgxpool.Pool) *GameStore {
	return &GameStore{db: db}
}

func (s *GameStore) GetByGameNo(ctx context.Context, gameNo int64) (*models.Game, error) {
	query := `
		SELECT id, game_no, state, current_phase, turn_order, current_turn_index,
		       current_player_id, turn_started_at, phase_end_time, accused_player_id,
		       last_activity_at, created_at, updated_at
		FROM games
		WHERE game_no = $1
	`

	game := &models.Game{}
	err := s.db.QueryRow(ctx, query, gameNo).Scan(
		&game.ID,
		&game.GameNo,
		&game.State,
		&game.CurrentPhase,
		&game.TurnOrder,
		&game.CurrentTurnIndex,
		&game.CurrentPlayerID,
		&game.TurnStartedAt,
		&game.PhaseEndTime,
		&game.AccusedPlayerID,
		&game.LastActivityAt,
		&game.CreatedAt,
		&game.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Game not found
		}
		return nil, fmt.Errorf("failed to get game by game_no: %w", err)
	}

	return game, nil
}

// UpdateTurnState persists the turn cursor fields in one statement. The
// caller is expected to hold the per-game lock, so no row lock is taken here.
func (s *GameStore) UpdateTurnState(ctx context.Context, game *models.Game) error {
	query := `
		UPDATE games
		SET current_turn_index = $2,
		    current_player_id = $3,
		    turn_started_at = $4,
		    phase_end_time = $5,
		    current_phase = $6,
		    updated_at = now()
		WHERE id = $1
	`

	_, err := s.db.Exec(ctx, query,
		game.ID,
		game.CurrentTurnIndex,
		game.CurrentPlayerID,
		game.TurnStartedAt,
		game.PhaseEndTime,
		game.CurrentPhase,
	)
	if err != nil {
		return fmt.Errorf("failed to update turn state for game %d: %w", game.ID, err)
	}

	return nil
}

func (s *GameStore) TouchActivity(ctx context.Context, gameID int64, at time.Time) error {
	query := `UPDATE games SET last_activity_at = $2, updated_at = now() WHERE id = $1`

	_, err := s.db.Exec(ctx, query, gameID, at)
	if err != nil {
		return fmt.Errorf("failed to touch activity for game %d: %w", gameID, err)
	}

	return nil
}
