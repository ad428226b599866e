package store

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CircuitState is the state of a CircuitBreaker.
type CircuitState int

const (
	CircuitClosed   CircuitState = iota // writes go through
	CircuitOpen                         // writes are refused
	CircuitHalfOpen                     // one trial write decides
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures a CircuitBreaker.
type CircuitBreakerConfig struct {
	FailureThreshold int           // Failures within FailureWindow that open the circuit (default: 5)
	Timeout          time.Duration // Time open before a trial write is let through (default: 30s)
	FailureWindow    time.Duration // Window failures are counted in (default: 1 minute)
}

// DefaultCircuitBreakerConfig returns the configuration used by the REST sink.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 5,
		Timeout:          30 * time.Second,
		FailureWindow:    time.Minute,
	}
}

// CircuitBreaker refuses writes to a remote that keeps failing. It never
// retries: each write either runs once or is refused with ErrCircuitOpen.
// After Timeout a single trial write is allowed; its outcome closes or
// reopens the circuit, and concurrent writes are refused meanwhile.
type CircuitBreaker struct {
	name   string
	config CircuitBreakerConfig
	log    *zap.Logger
	now    func() time.Time

	mu       sync.Mutex
	state    CircuitState
	failures []time.Time
	openedAt time.Time
	trial    bool
}

// NewCircuitBreaker creates a closed circuit breaker.
func NewCircuitBreaker(name string, config CircuitBreakerConfig, log *zap.Logger) *CircuitBreaker {
	if log == nil {
		log = zap.NewNop()
	}
	return &CircuitBreaker{
		name:   name,
		config: config,
		log:    log,
		now:    time.Now,
		state:  CircuitClosed,
	}
}

// Execute runs write unless the circuit refuses it.
func (cb *CircuitBreaker) Execute(ctx context.Context, write func(ctx context.Context) (string, error)) (string, error) {
	if !cb.acquire() {
		return "", ErrCircuitOpen
	}
	id, err := write(ctx)
	cb.release(err)
	return id, err
}

func (cb *CircuitBreaker) acquire() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitOpen:
		if cb.now().Sub(cb.openedAt) < cb.config.Timeout {
			return false
		}
		cb.setState(CircuitHalfOpen)
		cb.trial = true
		return true
	case CircuitHalfOpen:
		if cb.trial {
			return false
		}
		cb.trial = true
		return true
	default:
		return true
	}
}

// release records the outcome of a write. Client errors (4xx) say nothing
// about the remote's health and only end a trial.
func (cb *CircuitBreaker) release(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	halfOpen := cb.state == CircuitHalfOpen
	cb.trial = false

	switch {
	case err == nil:
		cb.failures = cb.failures[:0]
		if halfOpen {
			cb.setState(CircuitClosed)
		}
	case isClientError(err):
	case halfOpen:
		cb.setState(CircuitOpen)
	default:
		cb.countFailure()
	}
}

func (cb *CircuitBreaker) countFailure() {
	now := cb.now()
	cutoff := now.Add(-cb.config.FailureWindow)
	kept := cb.failures[:0]
	for _, t := range cb.failures {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	cb.failures = append(kept, now)

	if len(cb.failures) >= cb.config.FailureThreshold {
		cb.setState(CircuitOpen)
	}
}

func (cb *CircuitBreaker) setState(state CircuitState) {
	if cb.state == state {
		return
	}
	from := cb.state
	cb.state = state
	if state == CircuitOpen {
		cb.openedAt = cb.now()
		cb.failures = cb.failures[:0]
	}
	cb.log.Info("circuit state changed",
		zap.String("circuit", cb.name),
		zap.Stringer("from", from),
		zap.Stringer("to", state))
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
