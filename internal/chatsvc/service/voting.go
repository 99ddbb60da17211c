package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/doojoo9999/liargame-services/internal/chatsvc/models"
	"github.com/doojoo9999/liargame-services/internal/comm"
)

// VotingService begins the accusation/ballot flow once turn order is
// exhausted. The flow itself lives in the voting service, outside this core.
type VotingService interface {
	StartVotingPhase(ctx context.Context, game *models.Game) error
}

// VotingClient hands the phase start over to the voting service via NATS.
type VotingClient struct {
	pub Publisher
}

func NewVotingClient(pub Publisher) *VotingClient {
	return &VotingClient{pub: pub}
}

func (c *VotingClient) StartVotingPhase(ctx context.Context, game *models.Game) error {
	cmd := comm.StartVotingCommand{
		GameID: game.ID,
		GameNo: game.GameNo,
	}
	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("failed to marshal start-voting command: %w", err)
	}

	envelope, err := json.Marshal(&comm.WSMessage{
		Type: "start-voting",
		Data: data,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal start-voting envelope: %w", err)
	}

	if err := c.pub.Publish(comm.SubjectVotingService, envelope); err != nil {
		return fmt.Errorf("failed to publish start-voting for game %d: %w", game.GameNo, err)
	}

	return nil
}
