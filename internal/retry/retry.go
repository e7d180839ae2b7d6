package retry

import (
	"context"
	"math"
	"math/rand"
	"time"

	"docs-rag-service/internal/logger"
)

// Policy retries an operation with capped exponential backoff. Attempt n
// (0-indexed) sleeps min(InitialDelay * Base^n, MaxDelay) before retrying,
// scaled by a uniform [0.5, 1.0] jitter factor when Jitter is set.
type Policy struct {
	MaxRetries   int
	InitialDelay time.Duration
	Base         float64
	Jitter       bool
	MaxDelay     time.Duration

	// sleep is replaceable in tests
	sleep func(time.Duration)
	rand  *rand.Rand
}

// Default mirrors the provider-call policy used across the service.
func Default() *Policy {
	return New(3, time.Second, 2.0, true, 60*time.Second)
}

func New(maxRetries int, initialDelay time.Duration, base float64, jitter bool, maxDelay time.Duration) *Policy {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Policy{
		MaxRetries:   maxRetries,
		InitialDelay: initialDelay,
		Base:         base,
		Jitter:       jitter,
		MaxDelay:     maxDelay,
		sleep:        time.Sleep,
		rand:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Do executes op, retrying on error up to MaxRetries additional attempts.
// The final error is returned unchanged so callers can still distinguish
// validation errors from provider failures with errors.Is/As.
func (p *Policy) Do(ctx context.Context, name string, op func() error) error {
	var err error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		if attempt == p.MaxRetries {
			logger.Error("Operation failed after retries", "operation", name, "retries", p.MaxRetries, "error", err)
			return err
		}
		delay := p.delayFor(attempt)
		logger.Warn("Operation attempt failed, retrying",
			"operation", name,
			"attempt", attempt+1,
			"delay", delay.String(),
			"error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		p.sleep(delay)
	}
	return err
}

// DoValue is Do for operations that produce a value.
func DoValue[T any](ctx context.Context, p *Policy, name string, op func() (T, error)) (T, error) {
	var result T
	err := p.Do(ctx, name, func() error {
		var opErr error
		result, opErr = op()
		return opErr
	})
	return result, err
}

func (p *Policy) delayFor(attempt int) time.Duration {
	delay := float64(p.InitialDelay) * math.Pow(p.Base, float64(attempt))
	if max := float64(p.MaxDelay); delay > max {
		delay = max
	}
	if p.Jitter {
		delay *= 0.5 + p.rand.Float64()*0.5
	}
	return time.Duration(delay)
}
