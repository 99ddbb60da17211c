package service

import "sync"

// gameLocks hands out one mutex per game number. The game row is the
// serialization boundary: chat sends and the turn timeout for the same game
// run mutually exclusive, requests for different games run in parallel.
type gameLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newGameLocks() *gameLocks {
	return &gameLocks{locks: make(map[int64]*sync.Mutex)}
}

func (l *gameLocks) forGame(gameNo int64) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[gameNo]
	if !ok {
		m = &sync.Mutex{}
		l.locks[gameNo] = m
	}
	return m
}
