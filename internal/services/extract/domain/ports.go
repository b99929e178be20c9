package domain

import "context"

// Sink persists a finished variant; any error is fatal to the run
type Sink interface {
	Name() string
	Save(ctx context.Context, s Summary) error
}

// History reads names stored by earlier runs
type History interface {
	Names(ctx context.Context, variant string) ([]string, error)
}

// RunnerPort drives an extraction over the named variants
type RunnerPort interface {
	Run(ctx context.Context, variants []string) ([]Summary, error)
}

// StatusPort exposes live progress
type StatusPort interface {
	Status() Status
}
