package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/doojoo9999/liargame-services/internal/chatsvc/config"
	"github.com/doojoo9999/liargame-services/internal/chatsvc/models"
	log "github.com/sirupsen/logrus"
)

// ChatService is the entry point for chat traffic. It validates input, loads
// game and player, asks the policy for a decision, persists on success and
// fans the result out to the turn scheduler and the messenger. It holds no
// state of its own beyond what it borrows from its collaborators.
type ChatService struct {
	games     GameStore
	players   PlayerStore
	messages  ChatMessageStore
	policy    *ChatPolicy
	turns     *TurnService
	messenger *Messenger
	profanity ProfanityFilter
	sched     *Scheduler

	postRoundWindow time.Duration
	maxMessageLen   int

	now func() time.Time
}

func NewChatService(games GameStore, players PlayerStore, messages ChatMessageStore,
	policy *ChatPolicy, turns *TurnService, messenger *Messenger,
	profanity ProfanityFilter, sched *Scheduler, cfg config.Config) *ChatService {
	return &ChatService{
		games:           games,
		players:         players,
		messages:        messages,
		policy:          policy,
		turns:           turns,
		messenger:       messenger,
		profanity:       profanity,
		sched:           sched,
		postRoundWindow: cfg.PostRoundChatWindow,
		maxMessageLen:   cfg.MaxMessageLength,
		now:             time.Now,
	}
}

// Send handles one inbound chat message end to end. Everything from the
// policy decision to the turn advance runs under the per-game lock so two
// hints racing each other, or a hint racing the turn timer, cannot both move
// the cursor.
func (s *ChatService) Send(ctx context.Context, userID, gameNo int64, content string) (*models.ChatMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("message content is empty: %w", ErrValidation)
	}
	if utf8.RuneCountInString(content) > s.maxMessageLen {
		return nil, fmt.Errorf("message exceeds %d characters: %w", s.maxMessageLen, ErrValidation)
	}

	clean, err := s.profanity.IsClean(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("profanity check failed: %w", err)
	}
	if !clean {
		return nil, fmt.Errorf("message contains inappropriate words: %w", ErrValidation)
	}

	lock := s.turns.locks.forGame(gameNo)
	lock.Lock()
	defer lock.Unlock()

	game, err := s.games.GetByGameNo(ctx, gameNo)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, fmt.Errorf("game %d: %w", gameNo, ErrNotFound)
	}

	player, err := s.players.GetByGameAndUser(ctx, game.ID, userID)
	if err != nil {
		return nil, err
	}
	if player == nil {
		return nil, fmt.Errorf("user %d is not in game %d: %w", userID, gameNo, ErrForbidden)
	}

	decision, err := s.policy.Resolve(ctx, game, player)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, fmt.Errorf("chat not available: %w", ErrConflict)
	}

	msg := &models.ChatMessage{
		GameID:       game.ID,
		PlayerID:     sql.NullInt64{Int64: player.ID, Valid: true},
		PlayerUserID: sql.NullInt64{Int64: player.UserID, Valid: true},
		Nickname:     player.Nickname,
		Content:      content,
		Type:         decision.Type,
		Timestamp:    s.now(),
	}

	saved, err := s.messages.Create(ctx, msg)
	if err != nil {
		return nil, err
	}

	game.LastActivityAt = s.now()
	if err := s.games.TouchActivity(ctx, game.ID, game.LastActivityAt); err != nil {
		log.Errorf("failed to touch activity for game %d: %v", gameNo, err)
	}

	if decision.Type == models.MessageTypeHint {
		if err := s.players.UpdateState(ctx, player.ID, models.PlayerStateGaveHint); err != nil {
			log.Errorf("failed to update player %d state: %v", player.ID, err)
		}
	}

	s.turns.OnMessageRecorded(ctx, game, decision.Type, player.UserID)

	// cache write comes after the authoritative turn advance commit
	if decision.Type == models.MessageTypeHint {
		s.policy.RecordHint(game.ID, player.UserID, saved.Timestamp)
	}

	s.messenger.BroadcastChat(game, saved)

	return saved, nil
}

// GetHistory returns the latest messages for a game, newest first,
// optionally filtered by type.
func (s *ChatService) GetHistory(ctx context.Context, gameNo int64, msgType string, limit int) ([]*models.ChatMessage, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	game, err := s.games.GetByGameNo(ctx, gameNo)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, fmt.Errorf("game %d: %w", gameNo, ErrNotFound)
	}

	return s.messages.ListByGame(ctx, game.ID, msgType, limit)
}

// IsChatAvailable previews the policy decision for a player without side
// effects.
func (s *ChatService) IsChatAvailable(ctx context.Context, gameNo, userID int64) (bool, error) {
	game, err := s.games.GetByGameNo(ctx, gameNo)
	if err != nil {
		return false, err
	}
	if game == nil {
		return false, fmt.Errorf("game %d: %w", gameNo, ErrNotFound)
	}

	player, err := s.players.GetByGameAndUser(ctx, game.ID, userID)
	if err != nil {
		return false, err
	}
	if player == nil {
		return false, fmt.Errorf("user %d is not in game %d: %w", userID, gameNo, ErrForbidden)
	}

	decision, err := s.policy.Resolve(ctx, game, player)
	if err != nil {
		return false, err
	}
	return decision.Allowed, nil
}

// StartPostRoundChat opens the bounded free-chat window after a round ends
// and schedules its close.
func (s *ChatService) StartPostRoundChat(ctx context.Context, gameNo int64) error {
	game, err := s.games.GetByGameNo(ctx, gameNo)
	if err != nil {
		return err
	}
	if game == nil {
		return fmt.Errorf("game %d: %w", gameNo, ErrNotFound)
	}

	endTime := s.now().Add(s.postRoundWindow)
	s.messenger.SendChatStatus(game, "POST_ROUND_CHAT_STARTED", map[string]string{
		"endTime": endTime.Format(time.RFC3339),
	})

	s.sched.Schedule(s.postRoundWindow, func() {
		s.messenger.SendChatStatus(game, "POST_ROUND_CHAT_ENDED", nil)
	})

	return nil
}

// ArchivePlayerMessages keeps a leaving player's chat history readable by
// snapshotting their nickname and detaching the player relation.
func (s *ChatService) ArchivePlayerMessages(ctx context.Context, userID int64, nickname string) (int64, error) {
	if strings.TrimSpace(nickname) == "" {
		nickname = "departed player"
	}

	updated, err := s.messages.DetachPlayer(ctx, userID, nickname)
	if err != nil {
		return 0, err
	}
	if updated > 0 {
		log.Infof("archived %d chat messages for user %d", updated, userID)
	}
	return updated, nil
}

// DeleteGameMessages removes a finished game's chat history.
func (s *ChatService) DeleteGameMessages(ctx context.Context, game *models.Game) (int64, error) {
	deleted, err := s.messages.DeleteByGame(ctx, game.ID)
	if err != nil {
		log.Errorf("failed to delete chat messages for game %d: %v", game.GameNo, err)
		return 0, err
	}
	log.Infof("deleted %d chat messages for game %d", deleted, game.GameNo)
	return deleted, nil
}
