package service

import (
	"context"
	"time"

	"github.com/doojoo9999/liargame-services/internal/chatsvc/models"
	log "github.com/sirupsen/logrus"
)

// ChatDecision is the outcome of a policy check: whether the player may speak
// right now and, if so, the semantic type their message gets.
type ChatDecision struct {
	Allowed bool
	Type    string
}

var chatDenied = ChatDecision{}

// ChatPolicy decides per phase who may speak and what type the message has.
// It owns the hint cache used to short-circuit the once-per-turn rule.
type ChatPolicy struct {
	messages ChatMessageStore
	hints    *HintCache
}

func NewChatPolicy(messages ChatMessageStore, hints *HintCache) *ChatPolicy {
	return &ChatPolicy{messages: messages, hints: hints}
}

// Resolve evaluates the chat policy for a player in a game. The caller is
// responsible for having verified that the player belongs to the game.
//
// Eliminated players never speak. While the game is not in progress (lobby
// and post-game window alike) free chat is open and typed POST_ROUND. In
// progress, the current phase dispatches; genuinely unknown phases fail
// closed.
func (p *ChatPolicy) Resolve(ctx context.Context, game *models.Game, player *models.Player) (ChatDecision, error) {
	if !player.IsAlive {
		return chatDenied, nil
	}

	if game.State != models.GameStateInProgress {
		return ChatDecision{Allowed: true, Type: models.MessageTypePostRound}, nil
	}

	switch game.EffectivePhase() {
	case models.PhaseSpeech:
		if !game.CurrentPlayerID.Valid || game.CurrentPlayerID.Int64 != player.UserID {
			return chatDenied, nil
		}
		hinted, err := p.hasHintedThisTurn(ctx, game, player)
		if err != nil {
			return chatDenied, err
		}
		if hinted {
			return chatDenied, nil
		}
		return ChatDecision{Allowed: true, Type: models.MessageTypeHint}, nil

	case models.PhaseDefending:
		if game.AccusedPlayerID.Valid && game.AccusedPlayerID.Int64 == player.UserID {
			return ChatDecision{Allowed: true, Type: models.MessageTypeDefense}, nil
		}
		return ChatDecision{Allowed: true, Type: models.MessageTypeDiscussion}, nil

	case models.PhaseGuessingWord:
		// private guess channel for the impostor only
		if player.Role == models.RoleImpostor {
			return ChatDecision{Allowed: true, Type: models.MessageTypeDiscussion}, nil
		}
		return chatDenied, nil

	case models.PhaseVotingForLiar, models.PhaseVotingForSurvival:
		// voting phases are silent, no last-second persuasion
		return chatDenied, nil

	default:
		log.Warnf("chat denied for unknown phase %q in game %d", game.CurrentPhase, game.GameNo)
		return chatDenied, nil
	}
}

// RecordHint notes a successfully persisted hint in the cache. Call only
// after the message and the turn advance are committed.
func (p *ChatPolicy) RecordHint(gameID, userID int64, at time.Time) {
	p.hints.Put(gameID, userID, at)
}

// hasHintedThisTurn reports whether the player already has a HINT timestamped
// after the current turn start. The cache answers the common case; a miss or
// an entry from a previous turn falls back to storage.
func (p *ChatPolicy) hasHintedThisTurn(ctx context.Context, game *models.Game, player *models.Player) (bool, error) {
	if !game.TurnStartedAt.Valid {
		return false, nil
	}
	turnStart := game.TurnStartedAt.Time

	if ts, ok := p.hints.Get(game.ID, player.UserID); ok && ts.After(turnStart) {
		return true, nil
	}

	latest, err := p.messages.LatestByTypeForPlayer(ctx, game.ID, player.ID, models.MessageTypeHint)
	if err != nil {
		return false, err
	}
	return latest != nil && latest.Timestamp.After(turnStart), nil
}
