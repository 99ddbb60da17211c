package service

import (
	"context"
	"strings"
	"sync"
)

// ProfanityFilter screens message content before any lookup happens.
type ProfanityFilter interface {
	IsClean(ctx context.Context, content string) (bool, error)
}

// WordListFilter rejects content containing any banned word, case
// insensitive substring match. The word list is replaceable at runtime so a
// refresh from storage does not require a restart.
type WordListFilter struct {
	mu    sync.RWMutex
	words []string
}

func NewWordListFilter(words []string) *WordListFilter {
	f := &WordListFilter{}
	f.Replace(words)
	return f
}

func (f *WordListFilter) Replace(words []string) {
	lowered := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			lowered = append(lowered, w)
		}
	}
	f.mu.Lock()
	f.words = lowered
	f.mu.Unlock()
}

func (f *WordListFilter) IsClean(ctx context.Context, content string) (bool, error) {
	lower := strings.ToLower(content)
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, w := range f.words {
		if strings.Contains(lower, w) {
			return false, nil
		}
	}
	return true, nil
}
