package testkit

import (
	"sync"
	"testing"
)

// serial is held by tests that touch process-wide state such as env or package seams
var serial sync.Mutex

// Swap replaces *target for the rest of the test
func Swap[T any](t *testing.T, target *T, replacement T) {
	t.Helper()
	prev := *target
	t.Cleanup(func() { *target = prev })
	*target = replacement
}

// Serial blocks until no other Serial test is running; released on cleanup
func Serial(t *testing.T) {
	t.Helper()
	serial.Lock()
	t.Cleanup(serial.Unlock)
}
