package testutil

import (
	"bytes"
	"sync"
)

// ConcurrentBuffer collects log output written from multiple
// goroutines. It exposes only the writer side plus String, which is all
// the tests need to assert on captured records.
type ConcurrentBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (cb *ConcurrentBuffer) Write(p []byte) (int, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.buf.Write(p)
}

func (cb *ConcurrentBuffer) String() string {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.buf.String()
}
