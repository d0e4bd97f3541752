package testutil

import (
	"sync/atomic"
	"testing"
	"time"
)

// WaitForGoroutines blocks until counter reaches want, failing the test
// if that doesn't happen within half a second.
func WaitForGoroutines(t *testing.T, want int32, counter *atomic.Int32) {
	t.Helper()

	deadline := time.Now().Add(500 * time.Millisecond)
	for counter.Load() != want {
		if time.Now().After(deadline) {
			t.Fatalf("Timed out waiting for %d goroutines to start", want)
		}
		time.Sleep(500 * time.Microsecond)
	}
}
