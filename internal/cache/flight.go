package cache

import (
	"context"
	"sync"
)

// Coalescer guarantees at most one concurrent computation per key:
// concurrent callers for the same key block on the in-flight computation
// and share its result instead of recomputing. Results are handed out as-is
// and must be treated as immutable by all callers.
type Coalescer struct {
	mu    sync.Mutex
	calls map[string]*call
}

type call struct {
	done   chan struct{}
	result interface{}
	err    error
}

// NewCoalescer creates a new request coalescer.
func NewCoalescer() *Coalescer {
	return &Coalescer{calls: make(map[string]*call)}
}

// Do executes fn for key, coalescing concurrent calls with the same key
// into a single execution. The caller's context governs only its own wait:
// a cancelled waiter unblocks with ctx.Err() while the in-flight
// computation runs to completion for the remaining callers.
func (c *Coalescer) Do(ctx context.Context, key string, fn func() (interface{}, error)) (interface{}, error) {
	c.mu.Lock()
	if existing, ok := c.calls[key]; ok {
		c.mu.Unlock()
		select {
		case <-existing.done:
			return existing.result, existing.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	cl := &call{done: make(chan struct{})}
	c.calls[key] = cl
	c.mu.Unlock()

	cl.result, cl.err = fn()

	c.mu.Lock()
	delete(c.calls, key)
	c.mu.Unlock()
	close(cl.done)

	return cl.result, cl.err
}
