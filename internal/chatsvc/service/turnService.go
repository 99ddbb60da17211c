package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doojoo9999/liargame-services/internal/chatsvc/config"
	"github.com/doojoo9999/liargame-services/internal/chatsvc/models"
	log "github.com/sirupsen/logrus"
)

// TurnService advances the speech turn order after each valid hint, arms the
// turn timeout timer, and hands the game over to the voting service when the
// order is exhausted. It is the only writer of the turn cursor fields.
type TurnService struct {
	games     GameStore
	players   PlayerStore
	voting    VotingService
	messenger *Messenger
	sched     *Scheduler
	locks     *gameLocks

	turnTimeout         time.Duration
	announceDelay       time.Duration // debounce so announcements follow the state write
	votingAnnounceDelay time.Duration

	now func() time.Time
}

func NewTurnService(games GameStore, players PlayerStore, voting VotingService,
	messenger *Messenger, sched *Scheduler, cfg config.Config) *TurnService {
	return &TurnService{
		games:               games,
		players:             players,
		voting:              voting,
		messenger:           messenger,
		sched:               sched,
		locks:               newGameLocks(),
		turnTimeout:         cfg.TurnTimeout,
		announceDelay:       500 * time.Millisecond,
		votingAnnounceDelay: time.Second,
		now:                 time.Now,
	}
}

// OnMessageRecorded is invoked after every persisted chat message. It is a
// no-op unless the message is the current player's hint in an in-progress
// SPEECH phase. Caller must hold the game lock.
func (s *TurnService) OnMessageRecorded(ctx context.Context, game *models.Game, msgType string, authorUserID int64) {
	if msgType != models.MessageTypeHint {
		return
	}
	if game.State != models.GameStateInProgress || game.EffectivePhase() != models.PhaseSpeech {
		return
	}
	if !game.CurrentPlayerID.Valid || game.CurrentPlayerID.Int64 != authorUserID {
		return
	}

	s.advance(ctx, game)
}

// HandleTurnTimeout fires when a turn deadline passes without a qualifying
// hint. It re-reads persisted state under the game lock, so a timer that
// lost the race against the message path is a no-op.
func (s *TurnService) HandleTurnTimeout(ctx context.Context, gameNo int64, scheduledIndex int) {
	lock := s.locks.forGame(gameNo)
	lock.Lock()
	defer lock.Unlock()

	game, err := s.games.GetByGameNo(ctx, gameNo)
	if err != nil {
		log.Errorf("turn timeout: failed to load game %d: %v", gameNo, err)
		return
	}
	if game == nil || game.State != models.GameStateInProgress || game.EffectivePhase() != models.PhaseSpeech {
		return
	}
	if game.CurrentTurnIndex != scheduledIndex {
		// turn already advanced through the message path
		return
	}
	if game.PhaseEndTime.Valid && s.now().Before(game.PhaseEndTime.Time) {
		// deadline moved since this timer was armed
		return
	}

	log.Infof("turn timeout for game %d at index %d", gameNo, scheduledIndex)
	s.advance(ctx, game)
}

// ResumeTurnTimer arms the timeout timer from persisted state. Used when the
// speech phase starts and when the service restarts with games mid-round.
func (s *TurnService) ResumeTurnTimer(ctx context.Context, gameNo int64) {
	lock := s.locks.forGame(gameNo)
	lock.Lock()
	defer lock.Unlock()

	game, err := s.games.GetByGameNo(ctx, gameNo)
	if err != nil {
		log.Errorf("failed to load game %d for timer resume: %v", gameNo, err)
		return
	}
	if game == nil || game.State != models.GameStateInProgress || game.EffectivePhase() != models.PhaseSpeech {
		return
	}
	if !game.PhaseEndTime.Valid {
		return
	}

	s.scheduleTimeout(game)
}

// advance moves the cursor one step: either the next player's turn begins or
// the order is exhausted and voting starts. Caller must hold the game lock.
func (s *TurnService) advance(ctx context.Context, game *models.Game) {
	game.CurrentTurnIndex++
	order := game.TurnOrderIDs()

	if game.CurrentTurnIndex >= len(order) {
		s.sched.CancelTurnTimeout(game.GameNo)

		game.CurrentPlayerID = sql.NullInt64{}
		game.TurnStartedAt = sql.NullTime{}
		game.PhaseEndTime = sql.NullTime{}
		if err := s.games.UpdateTurnState(ctx, game); err != nil {
			log.Errorf("failed to persist exhausted turn order for game %d: %v", game.GameNo, err)
		}

		// The triggering message is already committed, so a failed phase
		// transition is contained here rather than failing the request.
		if err := s.voting.StartVotingPhase(ctx, game); err != nil {
			log.Errorf("failed to start voting phase for game %d: %v", game.GameNo, err)
		}

		g := game
		s.sched.Schedule(s.votingAnnounceDelay, func() {
			if err := s.messenger.SendSystemMessage(context.Background(), g,
				"All hints are in. Vote for the player you suspect is the impostor!"); err != nil {
				log.Errorf("failed to send voting start message for game %d: %v", g.GameNo, err)
			}
		})
		return
	}

	nextUserID := order[game.CurrentTurnIndex]
	now := s.now()
	game.CurrentPlayerID = sql.NullInt64{Int64: nextUserID, Valid: true}
	game.TurnStartedAt = sql.NullTime{Time: now, Valid: true}
	game.PhaseEndTime = sql.NullTime{Time: now.Add(s.turnTimeout), Valid: true}

	if err := s.games.UpdateTurnState(ctx, game); err != nil {
		log.Errorf("failed to persist turn advance for game %d: %v", game.GameNo, err)
		return
	}

	s.scheduleTimeout(game)

	nickname := s.nicknameFor(ctx, game, nextUserID)
	g := game
	s.sched.Schedule(s.announceDelay, func() {
		text := fmt.Sprintf("It is %s's turn! Give your hint. (%ds)", nickname, int(s.turnTimeout.Seconds()))
		if err := s.messenger.SendSystemMessage(context.Background(), g, text); err != nil {
			log.Errorf("failed to send turn start message for game %d: %v", g.GameNo, err)
		}
	})
}

func (s *TurnService) scheduleTimeout(game *models.Game) {
	delay := game.PhaseEndTime.Time.Sub(s.now())
	if delay < 0 {
		delay = 0
	}
	gameNo := game.GameNo
	scheduledIndex := game.CurrentTurnIndex
	s.sched.ScheduleTurnTimeout(gameNo, delay, func() {
		s.HandleTurnTimeout(context.Background(), gameNo, scheduledIndex)
	})
}

func (s *TurnService) nicknameFor(ctx context.Context, game *models.Game, userID int64) string {
	players, err := s.players.ListByGame(ctx, game.ID)
	if err != nil {
		log.Errorf("failed to list players for game %d: %v", game.GameNo, err)
		return fmt.Sprintf("player %d", userID)
	}
	for _, p := range players {
		if p.UserID == userID {
			return p.Nickname
		}
	}
	return fmt.Sprintf("player %d", userID)
}
