package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/doojoo9999/liargame-services/internal/chatsvc/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PlayerStore struct {
	db *pgxpool.Pool
}

func NewPlayerStore(db *pgxpool.Pool) *PlayerStore {
	return &PlayerStore{db: db}
}

func (s *PlayerStore) GetByGameAndUser(ctx context.Context, gameID, userID int64) (*models.Player, error) {
	query := `
		SELECT id, game_id, user_id, nickname, role, is_alive, state, created_at, updated_at
		FROM players
		WHERE game_id = $1 AND user_id = $2
	`

	player := &models.Player{}
	err := s.db.QueryRow(ctx, query, gameID, userID).Scan(
		&player.ID,
		&player.GameID,
		&player.UserID,
		&player.Nickname,
		&player.Role,
		&player.IsAlive,
		&player.State,
		&player.CreatedAt,
		&player.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Player not found
		}
		return nil, fmt.Errorf("failed to get player: %w", err)
	}

	return player, nil
}

func (s *PlayerStore) ListByGame(ctx context.Context, gameID int64) ([]*models.Player, error) {
	query := `
		SELECT id, game_id, user_id, nickname, role, is_alive, state, created_at, updated_at
		FROM players
		WHERE game_id = $1
		ORDER BY id
	`

	rows, err := s.db.Query(ctx, query, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players []*models.Player
	for rows.Next() {
		var p models.Player
		err := rows.Scan(
			&p.ID,
			&p.GameID,
			&p.UserID,
			&p.Nickname,
			&p.Role,
			&p.IsAlive,
			&p.State,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		players = append(players, &p)
	}

	return players, nil
}

func (s *PlayerStore) UpdateState(ctx context.Context, playerID int64, state string) error {
	query := `UPDATE players SET state = $2, updated_at = now() WHERE id = $1`

	_, err := s.db.Exec(ctx, query, playerID, state)
	if err != nil {
		return fmt.Errorf("failed to update player %d state: %w", playerID, err)
	}

	return nil
}
