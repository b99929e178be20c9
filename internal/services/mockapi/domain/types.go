// Package domain defines the types and ports of the mock autocomplete service
package domain

import (
	"context"
	"fmt"
	"time"
)

// Completion is the wire body of a successful autocomplete call
type Completion struct {
	Version string   `json:"version"`
	Count   int      `json:"count"`
	Results []string `json:"results"`
}

// AddRequest appends names to a variant vocabulary
type AddRequest struct {
	Names []string `json:"names" validate:"required,min=1,max=10000,dive,required,max=128"`
}

// AddResult reports how a vocabulary changed
type AddResult struct {
	Variant  string `json:"variant"`
	Accepted int    `json:"accepted"`
	Rejected int    `json:"rejected"`
	Size     int    `json:"size"`
}

// VariantStats is the live view of one served variant
type VariantStats struct {
	Variant   string `json:"variant"`
	Size      int    `json:"size"`
	Threshold int    `json:"threshold"`
	RateLimit int    `json:"rateLimit"`
	InWindow  int    `json:"inWindow"`
}

// Throttled carries how long a client should wait before retrying
type Throttled struct {
	Wait time.Duration
}

func (t *Throttled) Error() string { return fmt.Sprintf("rate limited, retry in %s", t.Wait) }

// Vocabulary stores names per variant and answers prefix lookups
type Vocabulary interface {
	// Complete returns at most limit names starting with prefix, byte-wise sorted
	Complete(ctx context.Context, variant, prefix string, limit int) ([]string, error)
	Add(ctx context.Context, variant string, names ...string) error
	Len(ctx context.Context, variant string) (int, error)
}

// ServerPort is what the HTTP surface needs from the service
type ServerPort interface {
	Complete(ctx context.Context, variant, query string) (Completion, error)
	Add(ctx context.Context, variant string, names []string) (AddResult, error)
	Stats(ctx context.Context, variant string) (VariantStats, error)
}
