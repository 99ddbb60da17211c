package service

import (
	"sort"
	"sync"
	"time"
)

type hintKey struct {
	gameID int64
	userID int64
}

// HintCache remembers the timestamp of each player's most recent hint so the
// common "second message in the same turn" case is rejected without a storage
// round-trip. Entries are advisory: a lost or evicted entry only costs one
// extra storage read, storage stays the source of truth.
type HintCache struct {
	mu       sync.RWMutex
	entries  map[hintKey]time.Time
	capacity int
}

func NewHintCache(capacity int) *HintCache {
	if capacity < 2 {
		capacity = 2
	}
	return &HintCache{
		entries:  make(map[hintKey]time.Time),
		capacity: capacity,
	}
}

func (c *HintCache) Get(gameID, userID int64) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ts, ok := c.entries[hintKey{gameID: gameID, userID: userID}]
	return ts, ok
}

func (c *HintCache) Put(gameID, userID int64, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[hintKey{gameID: gameID, userID: userID}] = at
	if len(c.entries) > c.capacity {
		c.evictOldestHalf()
	}
}

func (c *HintCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// evictOldestHalf drops the oldest half of the entries by timestamp.
// Caller must hold the write lock.
func (c *HintCache) evictOldestHalf() {
	type entry struct {
		key hintKey
		ts  time.Time
	}
	all := make([]entry, 0, len(c.entries))
	for k, ts := range c.entries {
		all = append(all, entry{key: k, ts: ts})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ts.Before(all[j].ts) })

	for _, e := range all[:len(all)/2] {
		delete(c.entries, e.key)
	}
}
