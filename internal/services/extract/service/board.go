package service

import (
	"slices"
	"sync"
	"time"

	"lexiscan/internal/services/extract/domain"
)

// Board holds the latest progress of the current run for the status endpoint
type Board struct {
	mu     sync.RWMutex
	status domain.Status
	index  map[string]int
}

// NewBoard returns an empty board
func NewBoard() *Board {
	return &Board{index: map[string]int{}}
}

func (b *Board) begin(runID string, at time.Time, variants []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status = domain.Status{RunID: runID, StartedAt: at, Variants: make([]domain.Progress, len(variants))}
	b.index = make(map[string]int, len(variants))
	for i, v := range variants {
		b.index[v] = i
		b.status.Variants[i] = domain.Progress{Variant: v, State: domain.StatePending, At: at}
	}
}

func (b *Board) publish(p domain.Progress) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i, ok := b.index[p.Variant]
	if !ok {
		b.index[p.Variant] = len(b.status.Variants)
		b.status.Variants = append(b.status.Variants, p)
		return
	}
	b.status.Variants[i] = p
}

// Status returns a copy of the current run status
func (b *Board) Status() domain.Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := b.status
	out.Variants = slices.Clone(b.status.Variants)
	return out
}
