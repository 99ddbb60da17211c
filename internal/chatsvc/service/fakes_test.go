package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/doojoo9999/liargame-services/internal/chatsvc/config"
	"github.com/doojoo9999/liargame-services/internal/chatsvc/models"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{t: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fakeGameStore struct {
	mu    sync.Mutex
	games map[int64]*models.Game // keyed by game number
}

func newFakeGameStore(games ...*models.Game) *fakeGameStore {
	s := &fakeGameStore{games: make(map[int64]*models.Game)}
	for _, g := range games {
		c := *g
		s.games[g.GameNo] = &c
	}
	return s
}

func (s *fakeGameStore) GetByGameNo(ctx context.Context, gameNo int64) (*models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[gameNo]
	if !ok {
		return nil, nil
	}
	c := *g
	return &c, nil
}

func (s *fakeGameStore) UpdateTurnState(ctx context.Context, game *models.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[game.GameNo]
	if !ok {
		return fmt.Errorf("game %d not stored", game.GameNo)
	}
	g.CurrentTurnIndex = game.CurrentTurnIndex
	g.CurrentPlayerID = game.CurrentPlayerID
	g.TurnStartedAt = game.TurnStartedAt
	g.PhaseEndTime = game.PhaseEndTime
	g.CurrentPhase = game.CurrentPhase
	return nil
}

func (s *fakeGameStore) TouchActivity(ctx context.Context, gameID int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.games {
		if g.ID == gameID {
			g.LastActivityAt = at
		}
	}
	return nil
}

func (s *fakeGameStore) setPhase(gameNo int64, phase string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.games[gameNo]; ok {
		g.CurrentPhase = phase
	}
}

type fakePlayerStore struct {
	mu      sync.Mutex
	players []*models.Player
}

func newFakePlayerStore(players ...*models.Player) *fakePlayerStore {
	s := &fakePlayerStore{}
	for _, p := range players {
		c := *p
		s.players = append(s.players, &c)
	}
	return s
}

func (s *fakePlayerStore) GetByGameAndUser(ctx context.Context, gameID, userID int64) (*models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.players {
		if p.GameID == gameID && p.UserID == userID {
			c := *p
			return &c, nil
		}
	}
	return nil, nil
}

func (s *fakePlayerStore) ListByGame(ctx context.Context, gameID int64) ([]*models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Player
	for _, p := range s.players {
		if p.GameID == gameID {
			c := *p
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *fakePlayerStore) UpdateState(ctx context.Context, playerID int64, state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.players {
		if p.ID == playerID {
			p.State = state
		}
	}
	return nil
}

func (s *fakePlayerStore) stateOf(playerID int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.players {
		if p.ID == playerID {
			return p.State
		}
	}
	return ""
}

type fakeMessageStore struct {
	mu       sync.Mutex
	messages []*models.ChatMessage
	nextID   int64
}

func newFakeMessageStore() *fakeMessageStore {
	return &fakeMessageStore{}
}

func (s *fakeMessageStore) Create(ctx context.Context, m *models.ChatMessage) (*models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	c := *m
	c.ID = s.nextID
	s.messages = append(s.messages, &c)
	out := c
	return &out, nil
}

func (s *fakeMessageStore) LatestByTypeForPlayer(ctx context.Context, gameID, playerID int64, msgType string) (*models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *models.ChatMessage
	for _, m := range s.messages {
		if m.GameID != gameID || m.Type != msgType {
			continue
		}
		if !m.PlayerID.Valid || m.PlayerID.Int64 != playerID {
			continue
		}
		if latest == nil || m.Timestamp.After(latest.Timestamp) || (m.Timestamp.Equal(latest.Timestamp) && m.ID > latest.ID) {
			latest = m
		}
	}
	if latest == nil {
		return nil, nil
	}
	c := *latest
	return &c, nil
}

func (s *fakeMessageStore) ListByGame(ctx context.Context, gameID int64, msgType string, limit int) ([]*models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.ChatMessage
	for _, m := range s.messages {
		if m.GameID != gameID {
			continue
		}
		if msgType != "" && m.Type != msgType {
			continue
		}
		c := *m
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID > out[j].ID
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeMessageStore) DetachPlayer(ctx context.Context, userID int64, nickname string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, m := range s.messages {
		if m.PlayerUserID.Valid && m.PlayerUserID.Int64 == userID && m.PlayerID.Valid {
			m.PlayerID = sql.NullInt64{}
			m.Nickname = nickname
			n++
		}
	}
	return n, nil
}

func (s *fakeMessageStore) DeleteByGame(ctx context.Context, gameID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var kept []*models.ChatMessage
	var n int64
	for _, m := range s.messages {
		if m.GameID == gameID {
			n++
			continue
		}
		kept = append(kept, m)
	}
	s.messages = kept
	return n, nil
}

func (s *fakeMessageStore) countByType(gameID int64, msgType string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.messages {
		if m.GameID == gameID && m.Type == msgType {
			n++
		}
	}
	return n
}

type published struct {
	subject string
	data    []byte
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
}

func (p *fakePublisher) Publish(subject string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, published{subject: subject, data: data})
	return nil
}

func (p *fakePublisher) subjects() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.msgs))
	for _, m := range p.msgs {
		out = append(out, m.subject)
	}
	return out
}

type fakeVoting struct {
	mu      sync.Mutex
	calls   int
	err     error
	onStart func(game *models.Game)
}

func (v *fakeVoting) StartVotingPhase(ctx context.Context, game *models.Game) error {
	v.mu.Lock()
	v.calls++
	onStart := v.onStart
	err := v.err
	v.mu.Unlock()
	if onStart != nil {
		onStart(game)
	}
	return err
}

func (v *fakeVoting) callCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.calls
}

type testEnv struct {
	clock    *fakeClock
	games    *fakeGameStore
	players  *fakePlayerStore
	messages *fakeMessageStore
	pub      *fakePublisher
	voting   *fakeVoting
	cache    *HintCache
	policy   *ChatPolicy
	sched    *Scheduler
	turns    *TurnService
	chat     *ChatService
}

func newTestEnv(t *testing.T, games *fakeGameStore, players *fakePlayerStore) *testEnv {
	t.Helper()

	clock := newFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	messages := newFakeMessageStore()
	pub := &fakePublisher{}
	voting := &fakeVoting{}
	cache := NewHintCache(64)
	policy := NewChatPolicy(messages, cache)
	sched := NewScheduler()
	t.Cleanup(sched.Stop)

	cfg := config.Config{
		TurnTimeout:         60 * time.Second,
		PostRoundChatWindow: 7 * time.Second,
		HintCacheCapacity:   64,
		MaxMessageLength:    200,
	}

	messenger := NewMessenger(pub, messages)
	messenger.now = clock.Now

	turns := NewTurnService(games, players, voting, messenger, sched, cfg)
	turns.now = clock.Now
	turns.announceDelay = 0
	turns.votingAnnounceDelay = 0

	chat := NewChatService(games, players, messages, policy, turns, messenger,
		NewWordListFilter([]string{"dang"}), sched, cfg)
	chat.now = clock.Now

	return &testEnv{
		clock:    clock,
		games:    games,
		players:  players,
		messages: messages,
		pub:      pub,
		voting:   voting,
		cache:    cache,
		policy:   policy,
		sched:    sched,
		turns:    turns,
		chat:     chat,
	}
}

// speechGame builds an in-progress SPEECH game with three players whose turn
// order is P1(11), P2(22), P3(33) and whose current turn just started.
func speechGame(start time.Time) (*models.Game, []*models.Player) {
	game := &models.Game{
		ID:               1,
		GameNo:           100,
		State:            models.GameStateInProgress,
		CurrentPhase:     models.PhaseSpeech,
		TurnOrder:        "11,22,33",
		CurrentTurnIndex: 0,
		CurrentPlayerID:  sql.NullInt64{Int64: 11, Valid: true},
		TurnStartedAt:    sql.NullTime{Time: start, Valid: true},
		PhaseEndTime:     sql.NullTime{Time: start.Add(60 * time.Second), Valid: true},
		LastActivityAt:   start,
	}
	players := []*models.Player{
		{ID: 1, GameID: 1, UserID: 11, Nickname: "P1", Role: models.RoleCitizen, IsAlive: true, State: models.PlayerStateWaiting},
		{ID: 2, GameID: 1, UserID: 22, Nickname: "P2", Role: models.RoleImpostor, IsAlive: true, State: models.PlayerStateWaiting},
		{ID: 3, GameID: 1, UserID: 33, Nickname: "P3", Role: models.RoleCitizen, IsAlive: true, State: models.PlayerStateWaiting},
	}
	return game, players
}
