package resilience

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitState string

const (
	CircuitStateClosed   CircuitState = "closed"
	CircuitStateOpen     CircuitState = "open"
	CircuitStateHalfOpen CircuitState = "half_open"
)

// CircuitBreaker stops calling a provider after consecutive failures and probes it again
// once OpenTimeout has elapsed.
type CircuitBreaker struct {
	mu sync.Mutex

	cfg CircuitBreakerConfig

	state               CircuitState
	consecutiveFailures int
	openedAt            time.Time
	probesInFlight      int
	probeSuccesses      int

	onStateChange func(from, to CircuitState)
	now           func() time.Time
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{
		cfg:   NormalizeCircuitBreakerConfig(cfg),
		state: CircuitStateClosed,
		now:   time.Now,
	}
}

// OnStateChange registers a hook called with the breaker lock held. Keep it cheap.
func (b *CircuitBreaker) OnStateChange(fn func(from, to CircuitState)) {
	b.mu.Lock()
	b.onStateChange = fn
	b.mu.Unlock()
}

func (b *CircuitBreaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitStateOpen {
		if b.now().Sub(b.openedAt) < b.cfg.OpenTimeout {
			return ErrCircuitOpen
		}
		b.transition(CircuitStateHalfOpen)
	}

	if b.state == CircuitStateHalfOpen {
		if b.probesInFlight >= b.cfg.HalfOpenMaxReq {
			return ErrCircuitOpen
		}
		b.probesInFlight++
	}
	return nil
}

func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case CircuitStateClosed:
		b.consecutiveFailures = 0
	case CircuitStateHalfOpen:
		b.releaseProbe()
		b.probeSuccesses++
		if b.probeSuccesses >= b.cfg.HalfOpenMaxReq && b.probesInFlight == 0 {
			b.transition(CircuitStateClosed)
		}
	}
}

func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case CircuitStateClosed:
		b.consecutiveFailures++
		if b.consecutiveFailures >= b.cfg.FailureThreshold {
			b.transition(CircuitStateOpen)
		}
	case CircuitStateHalfOpen:
		b.releaseProbe()
		b.transition(CircuitStateOpen)
	case CircuitStateOpen:
		b.openedAt = b.now()
	}
}

func (b *CircuitBreaker) State() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitStateOpen && b.now().Sub(b.openedAt) >= b.cfg.OpenTimeout {
		return CircuitStateHalfOpen
	}
	return b.state
}

func (b *CircuitBreaker) releaseProbe() {
	if b.probesInFlight > 0 {
		b.probesInFlight--
	}
}

func (b *CircuitBreaker) transition(to CircuitState) {
	from := b.state
	b.state = to
	b.probesInFlight = 0
	b.probeSuccesses = 0

	switch to {
	case CircuitStateClosed:
		b.consecutiveFailures = 0
		b.openedAt = time.Time{}
	case CircuitStateOpen:
		b.openedAt = b.now()
	}

	if from != to && b.onStateChange != nil {
		b.onStateChange(from, to)
	}
}
