// Package domain defines the types and ports of the extraction run
package domain

import (
	"time"

	"lexiscan/internal/core/runstats"
)

// Summary is the outcome of enumerating one variant
type Summary struct {
	RunID   string `json:"runId"`
	Variant string `json:"variant"`
	// Profile names the profile actually used; it differs from Variant after a fallback
	Profile string `json:"profile"`

	Attempts    int64         `json:"attempts"`
	Successes   int64         `json:"successes"`
	RateLimited int64         `json:"rateLimited"`
	Failures    int64         `json:"failures"`
	Requests    int64         `json:"requests"`
	Elapsed     time.Duration `json:"elapsedNs"`
	StartedAt   time.Time     `json:"startedAt"`
	FinishedAt  time.Time     `json:"finishedAt"`

	// Names is byte-wise sorted
	Names []string `json:"names"`
	// Known counts names a History already held before this run, -1 when no history is wired
	Known     int  `json:"known"`
	Cancelled bool `json:"cancelled"`
}

// Count is the number of distinct names found
func (s Summary) Count() int { return len(s.Names) }

// Progress is the live view of one variant
type Progress struct {
	Variant  string            `json:"variant"`
	Profile  string            `json:"profile"`
	State    State             `json:"state"`
	Snapshot runstats.Snapshot `json:"snapshot"`
	At       time.Time         `json:"at"`
}

// State of a variant within a run
type State string

// States
const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateDone      State = "done"
	StateCancelled State = "cancelled"
	StateFailed    State = "failed"
)

// Status is the live view of a run
type Status struct {
	RunID     string     `json:"runId"`
	StartedAt time.Time  `json:"startedAt"`
	Variants  []Progress `json:"variants"`
}
