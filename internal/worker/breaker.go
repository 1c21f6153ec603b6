package worker

import (
	"sync"
	"time"

	"stockops/internal/pkg/clock"
)

// CircuitBreaker stops the loop from hammering a failing storage layer.
// State is process-local and resets on restart.
type CircuitBreaker struct {
	threshold int
	cooldown  time.Duration
	clock     clock.Clock

	mu                  sync.Mutex
	consecutiveFailures int
	openUntil           time.Time
}

func NewCircuitBreaker(threshold int, cooldown time.Duration, clk clock.Clock) *CircuitBreaker {
	return &CircuitBreaker{
		threshold: threshold,
		cooldown:  cooldown,
		clock:     clk,
	}
}

func (b *CircuitBreaker) Open() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.clock.Now().Before(b.openUntil)
}

func (b *CircuitBreaker) Failure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consecutiveFailures++
	if b.consecutiveFailures >= b.threshold {
		b.openUntil = b.clock.Now().Add(b.cooldown)
		b.consecutiveFailures = 0
	}
}

func (b *CircuitBreaker) Success() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consecutiveFailures = 0
}
