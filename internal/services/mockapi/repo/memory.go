// Package repo holds the vocabulary stores and loaders of the mock service
package repo

import (
	"context"
	"sort"
	"strings"
	"sync"

	"lexiscan/internal/services/mockapi/domain"
)

var (
	_ domain.Vocabulary = (*Memory)(nil)
	_ domain.Vocabulary = (*Redis)(nil)
)

// Memory keeps each vocabulary as a sorted slice
type Memory struct {
	mu    sync.RWMutex
	words map[string][]string
}

// NewMemory returns an empty in-memory vocabulary
func NewMemory() *Memory { return &Memory{words: map[string][]string{}} }

// Complete implements domain.Vocabulary
func (m *Memory) Complete(_ context.Context, variant, prefix string, limit int) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ws := m.words[variant]
	out := make([]string, 0, min(limit, 16))
	for i := sort.SearchStrings(ws, prefix); i < len(ws) && len(out) < limit; i++ {
		if !strings.HasPrefix(ws[i], prefix) {
			break
		}
		out = append(out, ws[i])
	}
	return out, nil
}

// Add implements domain.Vocabulary
func (m *Memory) Add(_ context.Context, variant string, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	ws := append(m.words[variant], names...)
	sort.Strings(ws)
	m.words[variant] = compact(ws)
	return nil
}

// Len implements domain.Vocabulary
func (m *Memory) Len(_ context.Context, variant string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.words[variant]), nil
}

// compact drops adjacent duplicates of a sorted slice in place
func compact(ws []string) []string {
	if len(ws) < 2 {
		return ws
	}
	j := 1
	for i := 1; i < len(ws); i++ {
		if ws[i] != ws[j-1] {
			ws[j] = ws[i]
			j++
		}
	}
	return ws[:j]
}
