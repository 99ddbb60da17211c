package service

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Scheduler owns the delayed work the chat core issues: per-game turn
// timeout timers and one-shot delayed announcements. It is injected where
// needed and torn down with Stop on service shutdown.
type Scheduler struct {
	mu         sync.Mutex
	turnTimers map[int64]*time.Timer // keyed by game number
	stopped    bool
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		turnTimers: make(map[int64]*time.Timer),
	}
}

// Schedule runs task once after the delay. Panics are contained so a failing
// task never takes the timer pool down with it.
func (s *Scheduler) Schedule(delay time.Duration, task func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	time.AfterFunc(delay, func() { s.run(task) })
}

// ScheduleTurnTimeout arms the turn timer for a game, replacing any timer
// already armed for that game.
func (s *Scheduler) ScheduleTurnTimeout(gameNo int64, delay time.Duration, task func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if t, ok := s.turnTimers[gameNo]; ok {
		t.Stop()
	}
	s.turnTimers[gameNo] = time.AfterFunc(delay, func() {
		s.clearTurnTimer(gameNo)
		s.run(task)
	})
}

func (s *Scheduler) CancelTurnTimeout(gameNo int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.turnTimers[gameNo]; ok {
		t.Stop()
		delete(s.turnTimers, gameNo)
	}
}

// Stop cancels all armed turn timers and refuses new work.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for gameNo, t := range s.turnTimers {
		t.Stop()
		delete(s.turnTimers, gameNo)
	}
}

func (s *Scheduler) clearTurnTimer(gameNo int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.turnTimers, gameNo)
}

func (s *Scheduler) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("scheduled task panicked: %v", r)
		}
	}()
	task()
}
