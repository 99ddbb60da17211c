package service

import (
	"testing"
	"time"
)

func TestHintCachePutGet(t *testing.T) {
	cache := NewHintCache(8)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	if _, ok := cache.Get(1, 11); ok {
		t.Fatal("expected miss on empty cache")
	}

	cache.Put(1, 11, base)
	ts, ok := cache.Get(1, 11)
	if !ok || !ts.Equal(base) {
		t.Fatalf("got (%v, %v), want (%v, true)", ts, ok, base)
	}

	// same player, later hint overwrites
	cache.Put(1, 11, base.Add(time.Minute))
	ts, _ = cache.Get(1, 11)
	if !ts.Equal(base.Add(time.Minute)) {
		t.Fatalf("got %v, want overwritten timestamp", ts)
	}

	// same user in another game is a distinct key
	cache.Put(2, 11, base.Add(time.Hour))
	ts, _ = cache.Get(1, 11)
	if !ts.Equal(base.Add(time.Minute)) {
		t.Fatal("entry for game 1 clobbered by game 2")
	}
}

func TestHintCacheEvictsOldestHalf(t *testing.T) {
	cache := NewHintCache(4)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		cache.Put(1, int64(i), base.Add(time.Duration(i)*time.Second))
	}

	// inserting the fifth entry triggers eviction of the oldest half
	if got := cache.Len(); got != 3 {
		t.Fatalf("len = %d, want 3 after bulk eviction", got)
	}
	for i := 0; i < 2; i++ {
		if _, ok := cache.Get(1, int64(i)); ok {
			t.Fatalf("entry %d survived eviction", i)
		}
	}
	for i := 2; i < 5; i++ {
		if _, ok := cache.Get(1, int64(i)); !ok {
			t.Fatalf("recent entry %d was evicted", i)
		}
	}
}
