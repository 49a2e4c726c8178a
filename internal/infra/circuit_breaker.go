package infra

import (
	"errors"
	"sync"
	"time"
)

// ── SMTP circuit breaker ──────────────────────────────────────────────────────
// Wraps calls to the mail relay so a dead SMTP server fails fast instead of
// stalling workers. Closed passes calls through, Open rejects them outright,
// and Half-Open lets probes through until enough succeed to close again.

// CBState is the breaker's current position.
type CBState int

const (
	CBClosed CBState = iota
	CBOpen
	CBHalfOpen
)

func (s CBState) String() string {
	switch s {
	case CBClosed:
		return "closed"
	case CBOpen:
		return "open"
	case CBHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// ErrCircuitOpen is returned by Execute while the breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig tunes trip and recovery behavior.
type CircuitBreakerConfig struct {
	FailureThreshold int           // consecutive failures before tripping open
	SuccessThreshold int           // consecutive half-open successes before closing
	OpenTimeout      time.Duration // how long to reject calls before probing
}

// DefaultCBConfig matches what the SMTP relay tolerates in practice.
func DefaultCBConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		OpenTimeout:      60 * time.Second,
	}
}

// CircuitBreaker is safe for concurrent use.
type CircuitBreaker struct {
	mu        sync.Mutex
	cfg       CircuitBreakerConfig
	state     CBState
	failures  int
	successes int
	openedAt  time.Time
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	def := DefaultCBConfig()
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = def.SuccessThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = def.OpenTimeout
	}
	return &CircuitBreaker{cfg: cfg, state: CBClosed}
}

// State reports the current position, moving open → half-open once the
// open timeout has elapsed.
func (cb *CircuitBreaker) State() CBState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.stateLocked()
}

func (cb *CircuitBreaker) stateLocked() CBState {
	if cb.state == CBOpen && time.Since(cb.openedAt) >= cb.cfg.OpenTimeout {
		cb.state = CBHalfOpen
		cb.successes = 0
	}
	return cb.state
}

// Execute runs fn unless the breaker is open, and records the outcome.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	cb.mu.Lock()
	if cb.stateLocked() == CBOpen {
		cb.mu.Unlock()
		return ErrCircuitOpen
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.record(err == nil)
	return err
}

func (cb *CircuitBreaker) record(ok bool) {
	if ok {
		switch cb.state {
		case CBClosed:
			cb.failures = 0
		case CBHalfOpen:
			cb.successes++
			if cb.successes >= cb.cfg.SuccessThreshold {
				cb.state = CBClosed
				cb.failures = 0
				cb.successes = 0
			}
		}
		return
	}

	cb.openedAt = time.Now()
	switch cb.state {
	case CBClosed:
		cb.failures++
		if cb.failures >= cb.cfg.FailureThreshold {
			cb.state = CBOpen
			cb.successes = 0
		}
	case CBHalfOpen:
		// Probe failed, back to open for a full timeout.
		cb.state = CBOpen
		cb.failures = 0
	}
}
