// Package resilience provides a circuit breaker for calls to upstream
// market data sources.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State represents the state of a circuit breaker.
type State string

const (
	StateClosed   State = "CLOSED"    // Normal operation
	StateOpen     State = "OPEN"      // Failing, rejecting requests
	StateHalfOpen State = "HALF_OPEN" // Probing whether the upstream recovered
)

// ErrOpen is returned when the circuit rejects a request.
var ErrOpen = errors.New("circuit breaker is open")

// Config holds circuit breaker configuration.
type Config struct {
	// FailureThreshold is the number of consecutive failures before opening.
	FailureThreshold int
	// SuccessThreshold is the number of successes in half-open state to close.
	SuccessThreshold int
	// Cooldown is how long the circuit stays open before probing again.
	Cooldown time.Duration
}

// DefaultConfig returns defaults suited to a rate-limited public API.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Cooldown:         30 * time.Second,
	}
}

// Breaker implements the circuit breaker pattern. The zero value is not
// usable; construct with NewBreaker.
type Breaker struct {
	name   string
	config Config

	mu          sync.Mutex
	state       State
	failures    int
	successes   int
	lastFailure time.Time

	onStateChange func(name string, from, to State)

	totalRequests int64
	totalFailures int64
	totalRejected int64
}

// NewBreaker creates a circuit breaker.
func NewBreaker(name string, config Config) *Breaker {
	return &Breaker{
		name:   name,
		config: config,
		state:  StateClosed,
	}
}

// OnStateChange registers a callback invoked on every state transition.
// Must be called before the breaker is shared between goroutines.
func (b *Breaker) OnStateChange(fn func(name string, from, to State)) {
	b.onStateChange = fn
}

// Execute runs fn under circuit breaker protection. A context error from
// fn counts as a failure; a rejected request returns ErrOpen without
// calling fn.
func (b *Breaker) Execute(ctx context.Context, fn func() error) error {
	if err := b.allow(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := fn(); err != nil {
		b.recordFailure()
		return err
	}
	b.recordSuccess()
	return nil
}

// State returns the current state, accounting for cooldown expiry.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && time.Since(b.lastFailure) > b.config.Cooldown {
		return StateHalfOpen
	}
	return b.state
}

// Stats is a point-in-time snapshot of breaker counters.
type Stats struct {
	Name     string `json:"name"`
	State    State  `json:"state"`
	Requests int64  `json:"requests"`
	Failures int64  `json:"failures"`
	Rejected int64  `json:"rejected"`
}

// Stats returns a snapshot of the breaker counters.
func (b *Breaker) Stats() Stats {
	state := b.State()
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{
		Name:     b.name,
		State:    state,
		Requests: b.totalRequests,
		Failures: b.totalFailures,
		Rejected: b.totalRejected,
	}
}

func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.totalRequests++

	switch b.state {
	case StateOpen:
		if time.Since(b.lastFailure) > b.config.Cooldown {
			b.transition(StateHalfOpen)
			return nil
		}
		b.totalRejected++
		return ErrOpen
	default:
		return nil
	}
}

func (b *Breaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.totalFailures++
	b.failures++
	b.successes = 0
	b.lastFailure = time.Now()

	switch b.state {
	case StateClosed:
		if b.failures >= b.config.FailureThreshold {
			b.transition(StateOpen)
		}
	case StateHalfOpen:
		// A failed probe reopens immediately.
		b.transition(StateOpen)
	}
}

func (b *Breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0

	if b.state == StateHalfOpen {
		b.successes++
		if b.successes >= b.config.SuccessThreshold {
			b.transition(StateClosed)
		}
	}
}

// transition changes state; caller holds the lock.
func (b *Breaker) transition(to State) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	b.successes = 0
	if to == StateClosed {
		b.failures = 0
	}
	if b.onStateChange != nil {
		b.onStateChange(b.name, from, to)
	}
}
