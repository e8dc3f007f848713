package browser

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/dkaplan88/hireflow/internal/config"
)

func newTestGate(budget, interval time.Duration, probe ProbeFunc) *Gate {
	return NewGate(config.VerificationConfig{
		WaitBudget:   budget,
		PollInterval: interval,
	}, probe, zap.NewNop())
}

func TestGateWait(t *testing.T) {
	t.Parallel()

	t.Run("no challenge returns immediately", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		g := newTestGate(time.Second, time.Millisecond, func(_ context.Context) (bool, error) {
			calls.Add(1)
			return false, nil
		})

		start := time.Now()
		assert.NoError(t, g.Wait(context.Background()))
		assert.Less(t, time.Since(start), 100*time.Millisecond)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("released as soon as the challenge clears", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		g := newTestGate(5*time.Second, time.Millisecond, func(_ context.Context) (bool, error) {
			// Visible for the first three probes, then solved.
			return calls.Add(1) <= 3, nil
		})

		start := time.Now()
		assert.NoError(t, g.Wait(context.Background()))
		// Releasing must not consume the whole budget.
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("budget exhausted", func(t *testing.T) {
		t.Parallel()
		g := newTestGate(30*time.Millisecond, time.Millisecond, func(_ context.Context) (bool, error) {
			return true, nil
		})

		assert.ErrorIs(t, g.Wait(context.Background()), ErrVerificationTimeout)
	})

	t.Run("caller cancellation wins", func(t *testing.T) {
		t.Parallel()
		g := newTestGate(10*time.Second, time.Millisecond, func(_ context.Context) (bool, error) {
			return true, nil
		})

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, g.Wait(ctx), context.DeadlineExceeded)
	})

	t.Run("probe failure is surfaced", func(t *testing.T) {
		t.Parallel()
		g := newTestGate(time.Second, time.Millisecond, func(_ context.Context) (bool, error) {
			return false, assert.AnError
		})

		assert.ErrorIs(t, g.Wait(context.Background()), assert.AnError)
	})

	t.Run("nil probe is a no-op", func(t *testing.T) {
		t.Parallel()
		g := newTestGate(time.Second, time.Millisecond, nil)
		assert.NoError(t, g.Wait(context.Background()))
	})
}
