package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/doojoo9999/liargame-services/internal/chatsvc/models"
	"github.com/doojoo9999/liargame-services/internal/comm"
)

func TestSendValidation(t *testing.T) {
	ctx := context.Background()
	game, players := speechGame(time.Date(2025, 6, 1, 11, 59, 0, 0, time.UTC))
	env := newTestEnv(t, newFakeGameStore(game), newFakePlayerStore(players...))

	tests := []struct {
		name    string
		content string
	}{
		{"empty content", "   "},
		{"too long", strings.Repeat("a", 201)},
		{"profanity", "what the dang"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.chat.Send(ctx, 11, 100, tt.content)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
		})
	}

	if got := env.messages.countByType(1, models.MessageTypeHint); got != 0 {
		t.Fatalf("%d messages persisted by rejected sends", got)
	}
}

func TestSendUnknownGame(t *testing.T) {
	game, players := speechGame(time.Date(2025, 6, 1, 11, 59, 0, 0, time.UTC))
	env := newTestEnv(t, newFakeGameStore(game), newFakePlayerStore(players...))

	_, err := env.chat.Send(context.Background(), 11, 999, "hello")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSendStrangerForbidden(t *testing.T) {
	game, players := speechGame(time.Date(2025, 6, 1, 11, 59, 0, 0, time.UTC))
	env := newTestEnv(t, newFakeGameStore(game), newFakePlayerStore(players...))

	_, err := env.chat.Send(context.Background(), 77, 100, "hello")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestSendEliminatedPlayerConflict(t *testing.T) {
	game, players := speechGame(time.Date(2025, 6, 1, 11, 59, 0, 0, time.UTC))
	players[0].IsAlive = false
	env := newTestEnv(t, newFakeGameStore(game), newFakePlayerStore(players...))

	_, err := env.chat.Send(context.Background(), 11, 100, "hello")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

// Full walk through one speech round: out-of-turn reject, hint accept with
// turn advance, repeat-hint reject, and the voting handoff once every player
// has spoken.
func TestSendSpeechRoundScenario(t *testing.T) {
	ctx := context.Background()
	game, players := speechGame(time.Date(2025, 6, 1, 11, 59, 0, 0, time.UTC))
	env := newTestEnv(t, newFakeGameStore(game), newFakePlayerStore(players...))

	// P2 speaks before their turn
	if _, err := env.chat.Send(ctx, 22, 100, "me first"); !errors.Is(err, ErrConflict) {
		t.Fatalf("out-of-turn err = %v, want ErrConflict", err)
	}

	// P1 gives a hint
	msg, err := env.chat.Send(ctx, 11, 100, "it is round")
	if err != nil {
		t.Fatalf("P1 hint: %v", err)
	}
	if msg.Type != models.MessageTypeHint {
		t.Fatalf("type = %q, want HINT", msg.Type)
	}
	if got := env.players.stateOf(1); got != models.PlayerStateGaveHint {
		t.Fatalf("P1 state = %q, want GAVE_HINT", got)
	}

	stored, _ := env.games.GetByGameNo(ctx, 100)
	if stored.CurrentPlayerID.Int64 != 22 {
		t.Fatalf("current player = %d, want 22", stored.CurrentPlayerID.Int64)
	}

	// P1 tries again, no longer their turn
	if _, err := env.chat.Send(ctx, 11, 100, "and also red"); !errors.Is(err, ErrConflict) {
		t.Fatalf("repeat hint err = %v, want ErrConflict", err)
	}

	// P2 and P3 complete the round
	if _, err := env.chat.Send(ctx, 22, 100, "you can eat it"); err != nil {
		t.Fatalf("P2 hint: %v", err)
	}
	if _, err := env.chat.Send(ctx, 33, 100, "it grows on trees"); err != nil {
		t.Fatalf("P3 hint: %v", err)
	}

	if env.voting.callCount() != 1 {
		t.Fatalf("voting calls = %d, want 1 after order exhausted", env.voting.callCount())
	}
	if got := env.messages.countByType(1, models.MessageTypeHint); got != 3 {
		t.Fatalf("persisted hints = %d, want 3", got)
	}

	// every accepted message was broadcast on the game channel
	found := 0
	for _, subject := range env.pub.subjects() {
		if subject == comm.ChatGameSubject(100) {
			found++
		}
	}
	if found < 3 {
		t.Fatalf("broadcasts on game channel = %d, want at least 3", found)
	}
}

func TestSendDedupRejectsSecondHintSameTurn(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2025, 6, 1, 11, 59, 0, 0, time.UTC)
	// single player order: after P1's hint the order is exhausted, so pin the
	// cursor by making the turn order a single entry and checking dedup with
	// a game whose cursor did not move.
	game, players := speechGame(start)
	env := newTestEnv(t, newFakeGameStore(game), newFakePlayerStore(players...))

	if _, err := env.chat.Send(ctx, 11, 100, "first hint"); err != nil {
		t.Fatalf("first hint: %v", err)
	}

	// force the cursor back to P1 as if a buggy writer re-selected them
	stored, _ := env.games.GetByGameNo(ctx, 100)
	stored.CurrentTurnIndex = 0
	stored.CurrentPlayerID.Int64 = 11
	// keep the original turn start so the persisted hint is inside this turn
	stored.TurnStartedAt.Time = start
	if err := env.games.UpdateTurnState(ctx, stored); err != nil {
		t.Fatalf("update: %v", err)
	}

	if _, err := env.chat.Send(ctx, 11, 100, "second hint"); !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict for duplicate hint", err)
	}

	// cold cache must agree with the warm cache
	env.policy.hints = NewHintCache(8)
	if _, err := env.chat.Send(ctx, 11, 100, "third hint"); !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict via storage fallback", err)
	}
}

func TestSendVotingFailureStillCommitsMessage(t *testing.T) {
	ctx := context.Background()
	game, players := speechGame(time.Date(2025, 6, 1, 11, 59, 0, 0, time.UTC))
	game.CurrentTurnIndex = 2
	game.CurrentPlayerID.Int64 = 33
	env := newTestEnv(t, newFakeGameStore(game), newFakePlayerStore(players...))
	env.voting.err = errors.New("voting service unavailable")

	msg, err := env.chat.Send(ctx, 33, 100, "last hint")
	if err != nil {
		t.Fatalf("send must not fail when the phase transition does: %v", err)
	}
	if msg.Type != models.MessageTypeHint {
		t.Fatalf("type = %q, want HINT", msg.Type)
	}
	if env.voting.callCount() != 1 {
		t.Fatalf("voting calls = %d, want 1", env.voting.callCount())
	}
}

// Property: with the per-game lock, N players hammering Send concurrently
// still produce exactly N accepted hints and one voting transition.
func TestConcurrentHintsExhaustToVotingOnce(t *testing.T) {
	ctx := context.Background()
	game, players := speechGame(time.Date(2025, 6, 1, 11, 59, 0, 0, time.UTC))
	env := newTestEnv(t, newFakeGameStore(game), newFakePlayerStore(players...))

	// the collaborator moves the game out of SPEECH when voting starts
	env.voting.onStart = func(g *models.Game) {
		env.games.setPhase(g.GameNo, models.PhaseVotingForLiar)
	}

	var wg sync.WaitGroup
	for _, uid := range []int64{11, 22, 33} {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				env.chat.Send(ctx, userID, 100, "spam hint")
				g, _ := env.games.GetByGameNo(ctx, 100)
				if g.CurrentPhase != models.PhaseSpeech {
					return
				}
			}
		}(uid)
	}
	wg.Wait()

	if got := env.messages.countByType(1, models.MessageTypeHint); got != 3 {
		t.Fatalf("accepted hints = %d, want exactly 3", got)
	}
	if env.voting.callCount() != 1 {
		t.Fatalf("voting calls = %d, want exactly 1", env.voting.callCount())
	}
	stored, _ := env.games.GetByGameNo(ctx, 100)
	if stored.CurrentTurnIndex != 3 {
		t.Fatalf("final index = %d, want 3", stored.CurrentTurnIndex)
	}
}

func TestGetHistoryFilterAndLimit(t *testing.T) {
	ctx := context.Background()
	game, players := speechGame(time.Date(2025, 6, 1, 11, 59, 0, 0, time.UTC))
	game.State = models.GameStateEnded
	env := newTestEnv(t, newFakeGameStore(game), newFakePlayerStore(players...))

	for i, uid := range []int64{11, 22, 33} {
		env.clock.Advance(time.Second)
		if _, err := env.chat.Send(ctx, uid, 100, "gg "+strings.Repeat("!", i+1)); err != nil {
			t.Fatalf("send %d: %v", uid, err)
		}
	}

	all, err := env.chat.GetHistory(ctx, 100, "", 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("messages = %d, want 3", len(all))
	}
	// newest first
	if !all[0].Timestamp.After(all[2].Timestamp) {
		t.Fatal("history not sorted newest first")
	}

	limited, err := env.chat.GetHistory(ctx, 100, models.MessageTypePostRound, 2)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("limited messages = %d, want 2", len(limited))
	}

	if _, err := env.chat.GetHistory(ctx, 999, "", 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestIsChatAvailableHasNoSideEffects(t *testing.T) {
	ctx := context.Background()
	game, players := speechGame(time.Date(2025, 6, 1, 11, 59, 0, 0, time.UTC))
	env := newTestEnv(t, newFakeGameStore(game), newFakePlayerStore(players...))

	available, err := env.chat.IsChatAvailable(ctx, 100, 11)
	if err != nil {
		t.Fatalf("availability: %v", err)
	}
	if !available {
		t.Fatal("current player should be able to chat")
	}

	available, err = env.chat.IsChatAvailable(ctx, 100, 22)
	if err != nil {
		t.Fatalf("availability: %v", err)
	}
	if available {
		t.Fatal("out-of-turn player should not be able to chat")
	}

	if got := env.messages.countByType(1, models.MessageTypeHint); got != 0 {
		t.Fatalf("%d messages persisted by a read-only preview", got)
	}
	stored, _ := env.games.GetByGameNo(ctx, 100)
	if stored.CurrentTurnIndex != 0 {
		t.Fatal("read-only preview advanced the turn")
	}
}

func TestStartPostRoundChatBroadcastsWindow(t *testing.T) {
	ctx := context.Background()
	game, players := speechGame(time.Date(2025, 6, 1, 11, 59, 0, 0, time.UTC))
	game.State = models.GameStateEnded
	env := newTestEnv(t, newFakeGameStore(game), newFakePlayerStore(players...))
	env.chat.postRoundWindow = 10 * time.Millisecond

	if err := env.chat.StartPostRoundChat(ctx, 100); err != nil {
		t.Fatalf("start post-round chat: %v", err)
	}

	statuses := func() []string {
		var out []string
		env.pub.mu.Lock()
		defer env.pub.mu.Unlock()
		for _, m := range env.pub.msgs {
			if m.subject == comm.ChatGameSubject(100) && strings.Contains(string(m.data), "POST_ROUND_CHAT") {
				out = append(out, string(m.data))
			}
		}
		return out
	}

	if got := statuses(); len(got) != 1 || !strings.Contains(got[0], "POST_ROUND_CHAT_STARTED") {
		t.Fatalf("statuses = %v, want the started notification", got)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		got := statuses()
		if len(got) == 2 && strings.Contains(got[1], "POST_ROUND_CHAT_ENDED") {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("window close never broadcast, statuses = %v", got)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestArchivePlayerMessages(t *testing.T) {
	ctx := context.Background()
	game, players := speechGame(time.Date(2025, 6, 1, 11, 59, 0, 0, time.UTC))
	env := newTestEnv(t, newFakeGameStore(game), newFakePlayerStore(players...))

	if _, err := env.chat.Send(ctx, 11, 100, "my hint"); err != nil {
		t.Fatalf("send: %v", err)
	}

	updated, err := env.chat.ArchivePlayerMessages(ctx, 11, "P1")
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if updated != 1 {
		t.Fatalf("archived = %d, want 1", updated)
	}

	history, _ := env.chat.GetHistory(ctx, 100, models.MessageTypeHint, 10)
	if len(history) != 1 {
		t.Fatalf("history = %d messages, want the archived message retained", len(history))
	}
	if history[0].PlayerID.Valid {
		t.Fatal("player relation should be detached after archiving")
	}
	if history[0].Nickname != "P1" {
		t.Fatalf("nickname snapshot = %q, want P1", history[0].Nickname)
	}
}
