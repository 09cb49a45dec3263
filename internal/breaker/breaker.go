// Package breaker implements a per-source circuit breaker guarding outbound
// calls made by adapters through the HTTP fetcher. It mirrors the
// CLOSED/OPEN/HALF_OPEN state machine of the ingestion pipeline's original
// circuit breaker, with one addition the Go port makes explicit: HALF_OPEN
// admits exactly one in-flight probe, everything else fails fast.
package breaker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chjobfeed/ingest/internal/metrics"
)

// State is one of the three circuit breaker states.
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// ErrOpen is returned in place of invoking the wrapped operation when the
// circuit is open (or a probe is already in flight during HALF_OPEN). It
// carries a RetryAfter hint so callers can back off intelligently instead of
// hammering a known-down source.
type ErrOpen struct {
	Source     string
	RetryAfter time.Duration
}

func (e *ErrOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for %q, retry after %s", e.Source, e.RetryAfter)
}

// Breaker is a single per-source circuit breaker instance. The zero value is
// not usable; construct with New.
type Breaker struct {
	source            string
	failureThreshold  int
	recoveryTimeout   time.Duration
	now               func() time.Time

	mu              sync.Mutex
	state           State
	failureCount    int
	successCount    int
	lastFailureAt   time.Time
	probeInFlight   bool
}

// New constructs a Breaker for one source key. failureThreshold and
// recoveryTimeout come from config; every source gets the same process-wide
// values, with no per-source override.
func New(source string, failureThreshold int, recoveryTimeout time.Duration) *Breaker {
	return &Breaker{
		source:           source,
		failureThreshold: failureThreshold,
		recoveryTimeout:  recoveryTimeout,
		now:              time.Now,
		state:            StateClosed,
	}
}

// State returns the current externally-visible state, advancing OPEN to
// HALF_OPEN if the recovery timeout has elapsed.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stateLocked()
}

func (b *Breaker) stateLocked() State {
	if b.state == StateOpen && b.now().Sub(b.lastFailureAt) >= b.recoveryTimeout {
		b.state = StateHalfOpen
		b.reportStateLocked()
	}
	return b.state
}

// reportStateLocked publishes the current state to the circuit_breaker_state
// gauge. Called with mu held, right after every state mutation.
func (b *Breaker) reportStateLocked() {
	metrics.CircuitBreakerState.WithLabelValues(b.source).Set(float64(b.state))
}

// Call executes op through the breaker. It returns *ErrOpen without
// invoking op when the circuit is open, or when a HALF_OPEN probe is
// already in flight. Any other error returned by op counts as a failure.
func (b *Breaker) Call(ctx context.Context, op func(ctx context.Context) error) error {
	b.mu.Lock()
	state := b.stateLocked()

	switch state {
	case StateOpen:
		retryAfter := b.recoveryTimeout - b.now().Sub(b.lastFailureAt)
		if retryAfter < 0 {
			retryAfter = 0
		}
		b.mu.Unlock()
		return &ErrOpen{Source: b.source, RetryAfter: retryAfter}
	case StateHalfOpen:
		if b.probeInFlight {
			b.mu.Unlock()
			return &ErrOpen{Source: b.source, RetryAfter: 0}
		}
		b.probeInFlight = true
	}
	b.mu.Unlock()

	err := op(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	if state == StateHalfOpen {
		b.probeInFlight = false
	}
	if err != nil {
		b.onFailureLocked()
		return err
	}
	b.onSuccessLocked()
	return nil
}

func (b *Breaker) onSuccessLocked() {
	b.failureCount = 0
	b.successCount++
	if b.state == StateHalfOpen {
		b.state = StateClosed
		b.reportStateLocked()
	}
}

func (b *Breaker) onFailureLocked() {
	b.failureCount++
	b.lastFailureAt = b.now()
	if b.state == StateHalfOpen {
		b.state = StateOpen
		b.reportStateLocked()
		return
	}
	if b.failureCount >= b.failureThreshold {
		b.state = StateOpen
		b.reportStateLocked()
	}
}

// Reset forces the breaker back to CLOSED, clearing counters. Used by
// operator tooling and tests.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failureCount = 0
	b.successCount = 0
	b.probeInFlight = false
	b.reportStateLocked()
}

// Status is a read-only snapshot for the admin HTTP surface.
type Status struct {
	Source           string  `json:"source"`
	State            string  `json:"state"`
	FailureCount     int     `json:"failure_count"`
	SuccessCount     int     `json:"success_count"`
	FailureThreshold int     `json:"failure_threshold"`
	RecoveryTimeout  float64 `json:"recovery_timeout_seconds"`
}

func (b *Breaker) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Status{
		Source:           b.source,
		State:            b.stateLocked().String(),
		FailureCount:     b.failureCount,
		SuccessCount:     b.successCount,
		FailureThreshold: b.failureThreshold,
		RecoveryTimeout:  b.recoveryTimeout.Seconds(),
	}
}

// Registry owns one Breaker per source key, created lazily. It is safe for
// concurrent use by the orchestrator's parallel fetch phase.
type Registry struct {
	mu               sync.Mutex
	breakers         map[string]*Breaker
	failureThreshold int
	recoveryTimeout  time.Duration
}

func NewRegistry(failureThreshold int, recoveryTimeout time.Duration) *Registry {
	return &Registry{
		breakers:         make(map[string]*Breaker),
		failureThreshold: failureThreshold,
		recoveryTimeout:  recoveryTimeout,
	}
}

// Get returns the breaker for source, creating it on first use.
func (r *Registry) Get(source string) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.breakers[source]
	if !ok {
		b = New(source, r.failureThreshold, r.recoveryTimeout)
		r.breakers[source] = b
	}
	return b
}

// All returns a snapshot of every breaker's status, sorted by nothing in
// particular — callers that need stable order should sort by Source.
func (r *Registry) All() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Status, 0, len(r.breakers))
	for _, b := range r.breakers {
		out = append(out, b.Status())
	}
	return out
}
