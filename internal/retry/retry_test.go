package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPolicy(maxRetries int) (*Policy, *[]time.Duration) {
	p := New(maxRetries, time.Second, 2.0, false, 60*time.Second)
	delays := &[]time.Duration{}
	p.sleep = func(d time.Duration) { *delays = append(*delays, d) }
	return p, delays
}

func TestPolicyDo(t *testing.T) {
	t.Run("ShouldReturnImmediatelyOnSuccess", func(t *testing.T) {
		p, delays := newTestPolicy(3)
		calls := 0
		err := p.Do(context.Background(), "op", func() error {
			calls++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
		assert.Empty(t, *delays)
	})

	t.Run("ShouldInvokeExactlyFourTimesWhenAllAttemptsFail", func(t *testing.T) {
		p, delays := newTestPolicy(3)
		calls := 0
		opErr := errors.New("connection refused")
		err := p.Do(context.Background(), "op", func() error {
			calls++
			return opErr
		})
		// 1 initial + 3 retries, original error returned unchanged
		assert.Equal(t, 4, calls)
		assert.Same(t, opErr, err)
		assert.Len(t, *delays, 3)
	})

	t.Run("ShouldUseNonDecreasingCappedDelays", func(t *testing.T) {
		p, delays := newTestPolicy(8)
		_ = p.Do(context.Background(), "op", func() error { return errors.New("boom") })
		prev := time.Duration(0)
		for _, d := range *delays {
			assert.GreaterOrEqual(t, d, prev)
			assert.LessOrEqual(t, d, 60*time.Second)
			prev = d
		}
		// 1s, 2s, 4s, ... capped at 60s
		assert.Equal(t, time.Second, (*delays)[0])
		assert.Equal(t, 2*time.Second, (*delays)[1])
		assert.Equal(t, 60*time.Second, (*delays)[7])
	})

	t.Run("ShouldScaleDelayIntoJitterRange", func(t *testing.T) {
		p := New(1, time.Second, 2.0, true, 60*time.Second)
		for range 50 {
			d := p.delayFor(0)
			assert.GreaterOrEqual(t, d, 500*time.Millisecond)
			assert.LessOrEqual(t, d, time.Second)
		}
	})

	t.Run("ShouldRecoverAfterTransientFailures", func(t *testing.T) {
		p, _ := newTestPolicy(3)
		calls := 0
		err := p.Do(context.Background(), "op", func() error {
			calls++
			if calls < 3 {
				return errors.New("timeout")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("ShouldStopWhenContextCanceled", func(t *testing.T) {
		p, _ := newTestPolicy(3)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := p.Do(ctx, "op", func() error { return errors.New("boom") })
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestDoValue(t *testing.T) {
	t.Run("ShouldReturnValueFromRetriedOperation", func(t *testing.T) {
		p, _ := newTestPolicy(2)
		calls := 0
		got, err := DoValue(context.Background(), p, "op", func() ([]float64, error) {
			calls++
			if calls == 1 {
				return nil, errors.New("flaky")
			}
			return []float64{0.1, 0.2}, nil
		})
		require.NoError(t, err)
		assert.Equal(t, []float64{0.1, 0.2}, got)
	})
}
