package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testBreaker(threshold int) (*CircuitBreaker, *time.Time) {
	cfg := CircuitBreakerConfig{
		FailureThreshold: threshold,
		Timeout:          time.Minute,
		FailureWindow:    time.Minute,
	}
	cb := NewCircuitBreaker("test", cfg, nil)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cb.now = func() time.Time { return now }
	return cb, &now
}

func fail(err error) func(context.Context) (string, error) {
	return func(context.Context) (string, error) { return "", err }
}

func TestCircuitBreakerInitialState(t *testing.T) {
	cb := NewCircuitBreaker("test", DefaultCircuitBreakerConfig(), nil)
	if cb.State() != CircuitClosed {
		t.Errorf("expected initial state to be Closed, got %v", cb.State())
	}
}

func TestCircuitBreakerOpensOnFailures(t *testing.T) {
	cb, _ := testBreaker(3)
	for i := 0; i < 3; i++ {
		cb.Execute(context.Background(), fail(errors.New("connection refused")))
	}
	if cb.State() != CircuitOpen {
		t.Fatalf("expected circuit to be Open after 3 failures, got %v", cb.State())
	}

	_, err := cb.Execute(context.Background(), func(context.Context) (string, error) {
		t.Error("function should not be called when circuit is open")
		return "", nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestCircuitBreakerIgnoresClientErrors(t *testing.T) {
	cb, _ := testBreaker(2)
	for i := 0; i < 5; i++ {
		cb.Execute(context.Background(), fail(&HTTPError{StatusCode: 400, Status: "Bad Request"}))
	}
	if cb.State() != CircuitClosed {
		t.Errorf("4xx responses should not open the circuit, got %v", cb.State())
	}

	cb.Execute(context.Background(), fail(&HTTPError{StatusCode: 429}))
	cb.Execute(context.Background(), fail(&HTTPError{StatusCode: 503}))
	if cb.State() != CircuitOpen {
		t.Errorf("429 and 5xx count as failures, got %v", cb.State())
	}
}

func TestCircuitBreakerHalfOpenRecovery(t *testing.T) {
	cb, now := testBreaker(1)
	cb.Execute(context.Background(), fail(errors.New("down")))
	if cb.State() != CircuitOpen {
		t.Fatalf("expected Open, got %v", cb.State())
	}

	*now = now.Add(time.Minute)
	id, err := cb.Execute(context.Background(), func(context.Context) (string, error) { return "doc-1", nil })
	if err != nil || id != "doc-1" {
		t.Fatalf("half-open trial = %q, %v", id, err)
	}
	if cb.State() != CircuitClosed {
		t.Errorf("expected Closed after successful trial, got %v", cb.State())
	}
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	cb, now := testBreaker(1)
	cb.Execute(context.Background(), fail(errors.New("down")))
	*now = now.Add(time.Minute)

	cb.Execute(context.Background(), fail(errors.New("still down")))
	if cb.State() != CircuitOpen {
		t.Errorf("expected Open after failed trial, got %v", cb.State())
	}
}

func TestCircuitBreakerFailureWindow(t *testing.T) {
	cb, now := testBreaker(2)
	cb.Execute(context.Background(), fail(errors.New("down")))
	*now = now.Add(2 * time.Minute)
	cb.Execute(context.Background(), fail(errors.New("down")))
	if cb.State() != CircuitClosed {
		t.Errorf("failures outside the window should not count, got %v", cb.State())
	}
}

func TestCircuitBreakerSingleTrialWrite(t *testing.T) {
	cb, now := testBreaker(1)
	cb.Execute(context.Background(), fail(errors.New("down")))
	*now = now.Add(time.Minute)

	started := make(chan struct{})
	finish := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := cb.Execute(context.Background(), func(context.Context) (string, error) {
			close(started)
			<-finish
			return "doc-1", nil
		})
		done <- err
	}()
	<-started

	_, err := cb.Execute(context.Background(), func(context.Context) (string, error) {
		t.Error("a second write must not run while the trial is outstanding")
		return "", nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen during the trial, got %v", err)
	}

	close(finish)
	if err := <-done; err != nil {
		t.Fatalf("trial write failed: %v", err)
	}
	if cb.State() != CircuitClosed {
		t.Errorf("expected Closed after successful trial, got %v", cb.State())
	}
}

func TestCircuitBreakerClientErrorEndsTrial(t *testing.T) {
	cb, now := testBreaker(1)
	cb.Execute(context.Background(), fail(errors.New("down")))
	*now = now.Add(time.Minute)

	cb.Execute(context.Background(), fail(&HTTPError{StatusCode: 422}))
	if cb.State() != CircuitHalfOpen {
		t.Fatalf("a 4xx trial leaves the circuit half-open, got %v", cb.State())
	}
	id, err := cb.Execute(context.Background(), func(context.Context) (string, error) { return "doc-2", nil })
	if err != nil || id != "doc-2" {
		t.Fatalf("next trial = %q, %v", id, err)
	}
	if cb.State() != CircuitClosed {
		t.Errorf("expected Closed, got %v", cb.State())
	}
}

func TestCircuitStateString(t *testing.T) {
	tests := map[CircuitState]string{
		CircuitClosed:    "closed",
		CircuitOpen:      "open",
		CircuitHalfOpen:  "half-open",
		CircuitState(42): "unknown",
	}
	for state, want := range tests {
		if got := state.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", state, got, want)
		}
	}
}
