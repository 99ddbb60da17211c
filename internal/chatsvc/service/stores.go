package service

import (
	"context"
	"time"

	"github.com/doojoo9999/liargame-services/internal/chatsvc/models"
)

// Storage boundaries consumed by the chat services. Satisfied by the pgx
// stores in internal/chatsvc/store; tests swap in in-memory fakes.

type GameStore interface {
	GetByGameNo(ctx context.Context, gameNo int64) (*models.Game, error)
	UpdateTurnState(ctx context.Context, game *models.Game) error
	TouchActivity(ctx context.Context, gameID int64, at time.Time) error
}

type PlayerStore interface {
	GetByGameAndUser(ctx context.Context, gameID, userID int64) (*models.Player, error)
	ListByGame(ctx context.Context, gameID int64) ([]*models.Player, error)
	UpdateState(ctx context.Context, playerID int64, state string) error
}

type ChatMessageStore interface {
	Create(ctx context.Context, m *models.ChatMessage) (*models.ChatMessage, error)
	LatestByTypeForPlayer(ctx context.Context, gameID, playerID int64, msgType string) (*models.ChatMessage, error)
	ListByGame(ctx context.Context, gameID int64, msgType string, limit int) ([]*models.ChatMessage, error)
	DetachPlayer(ctx context.Context, userID int64, nickname string) (int64, error)
	DeleteByGame(ctx context.Context, gameID int64) (int64, error)
}

// Publisher is the transport boundary. *nats.Conn satisfies it.
type Publisher interface {
	Publish(subject string, data []byte) error
}
