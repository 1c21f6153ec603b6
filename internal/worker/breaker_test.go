//go:build unit

package worker_test

import (
	"testing"
	"time"

	"stockops/internal/pkg/clock"
	"stockops/internal/worker"

	"github.com/stretchr/testify/assert"
)

const (
	breakerThreshold = 5
	breakerCooldown  = 10 * time.Second
)

func newBreaker() (*worker.CircuitBreaker, *clock.MockClock) {
	clk := clock.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	return worker.NewCircuitBreaker(breakerThreshold, breakerCooldown, clk), clk
}

func TestCircuitBreaker(t *testing.T) {
	t.Run("starts closed", func(t *testing.T) {
		b, _ := newBreaker()
		assert.False(t, b.Open())
	})

	t.Run("opens at the failure threshold", func(t *testing.T) {
		b, _ := newBreaker()

		for i := 0; i < breakerThreshold-1; i++ {
			b.Failure()
			assert.False(t, b.Open())
		}

		b.Failure()
		assert.True(t, b.Open())
	})

	t.Run("closes after the cooldown elapses", func(t *testing.T) {
		b, clk := newBreaker()

		for i := 0; i < breakerThreshold; i++ {
			b.Failure()
		}
		assert.True(t, b.Open())

		clk.Add(breakerCooldown - time.Second)
		assert.True(t, b.Open())

		clk.Add(2 * time.Second)
		assert.False(t, b.Open())
	})

	t.Run("success resets the consecutive counter", func(t *testing.T) {
		b, _ := newBreaker()

		for i := 0; i < breakerThreshold-1; i++ {
			b.Failure()
		}
		b.Success()

		// The streak restarts: the next failures must reach the full
		// threshold again.
		for i := 0; i < breakerThreshold-1; i++ {
			b.Failure()
			assert.False(t, b.Open())
		}
		b.Failure()
		assert.True(t, b.Open())
	})

	t.Run("failures after cooldown start a fresh streak", func(t *testing.T) {
		b, clk := newBreaker()

		for i := 0; i < breakerThreshold; i++ {
			b.Failure()
		}
		clk.Add(breakerCooldown + time.Second)
		assert.False(t, b.Open())

		b.Failure()
		assert.False(t, b.Open())
	})
}
