package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/doojoo9999/liargame-services/internal/chatsvc/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ChatMessageStore struct {
	db *pgxpool.Pool
}

func NewChatMessageStore(db *pgxpool.Pool) *ChatMessageStore {
	return &ChatMessageStore{db: db}
}

func (s *ChatMessageStore) Create(ctx context.Context, m *models.ChatMessage) (*models.ChatMessage, error) {
	query := `
		INSERT INTO chat_messages (game_id, player_id, player_user_id, nickname, content, type, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, game_id, player_id, player_user_id, nickname, content, type, timestamp
	`

	saved := &models.ChatMessage{}
	err := s.db.QueryRow(ctx, query,
		m.GameID,
		m.PlayerID,
		m.PlayerUserID,
		m.Nickname,
		m.Content,
		m.Type,
		m.Timestamp,
	).Scan(
		&saved.ID,
		&saved.GameID,
		&saved.PlayerID,
		&saved.PlayerUserID,
		&saved.Nickname,
		&saved.Content,
		&saved.Type,
		&saved.Timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat message: %w", err)
	}

	return saved, nil
}

// LatestByTypeForPlayer returns the player's most recent message of the given
// type, or nil when the player has none. Source of truth for hint dedup when
// the in-memory cache has no usable entry.
func (s *ChatMessageStore) LatestByTypeForPlayer(ctx context.Context, gameID, playerID int64, msgType string) (*models.ChatMessage, error) {
	query := `
		SELECT id, game_id, player_id, player_user_id, nickname, content, type, timestamp
		FROM chat_messages
		WHERE game_id = $1 AND player_id = $2 AND type = $3
		ORDER BY timestamp DESC
		LIMIT 1
	`

	m := &models.ChatMessage{}
	err := s.db.QueryRow(ctx, query, gameID, playerID, msgType).Scan(
		&m.ID,
		&m.GameID,
		&m.PlayerID,
		&m.PlayerUserID,
		&m.Nickname,
		&m.Content,
		&m.Type,
		&m.Timestamp,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest %s message: %w", msgType, err)
	}

	return m, nil
}

func (s *ChatMessageStore) ListByGame(ctx context.Context, gameID int64, msgType string, limit int) ([]*models.ChatMessage, error) {
	query := `
		SELECT id, game_id, player_id, player_user_id, nickname, content, type, timestamp
		FROM chat_messages
		WHERE game_id = $1
	`
	args := []interface{}{gameID}

	if msgType != "" {
		query += ` AND type = $2`
		args = append(args, msgType)
	}
	query += fmt.Sprintf(` ORDER BY timestamp DESC LIMIT %d`, limit)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*models.ChatMessage
	for rows.Next() {
		var m models.ChatMessage
		err := rows.Scan(
			&m.ID,
			&m.GameID,
			&m.PlayerID,
			&m.PlayerUserID,
			&m.Nickname,
			&m.Content,
			&m.Type,
			&m.Timestamp,
		)
		if err != nil {
			return nil, err
		}
		messages = append(messages, &m)
	}

	return messages, nil
}

// DetachPlayer snapshots the nickname and clears the player relation on a
// leaving player's messages so chat history survives player removal.
func (s *ChatMessageStore) DetachPlayer(ctx context.Context, userID int64, nickname string) (int64, error) {
	query := `
		UPDATE chat_messages
		SET nickname = $2, player_id = NULL
		WHERE player_user_id = $1 AND player_id IS NOT NULL
	`

	tag, err := s.db.Exec(ctx, query, userID, nickname)
	if err != nil {
		return 0, fmt.Errorf("failed to detach player %d messages: %w", userID, err)
	}

	return tag.RowsAffected(), nil
}

func (s *ChatMessageStore) DeleteByGame(ctx context.Context, gameID int64) (int64, error) {
	query := `DELETE FROM chat_messages WHERE game_id = $1`

	tag, err := s.db.Exec(ctx, query, gameID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete chat messages for game %d: %w", gameID, err)
	}

	return tag.RowsAffected(), nil
}
