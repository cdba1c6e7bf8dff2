package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

const DefaultSendDelay = time.Second

// Limiter paces sends. Wait blocks until the next send may start.
type Limiter interface {
	Wait(ctx context.Context) error
}

// FixedDelay waits the same duration after every attempt. A zero Delay never blocks.
type FixedDelay struct {
	Delay time.Duration
}

func (f FixedDelay) Wait(ctx context.Context) error {
	if f.Delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(f.Delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// TokenBucket allows bursts up to Burst and a sustained rate of PerSecond sends.
type TokenBucket struct {
	limiter *rate.Limiter
}

func NewTokenBucket(perSecond float64, burst int) *TokenBucket {
	if burst < 1 {
		burst = 1
	}
	return &TokenBucket{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (b *TokenBucket) Wait(ctx context.Context) error {
	return b.limiter.Wait(ctx)
}

// NewLimiter builds the limiter named by kind: "fixed" (default) or "token_bucket".
func NewLimiter(kind string, delay time.Duration, perSecond float64, burst int) (Limiter, error) {
	switch kind {
	case "", "fixed":
		return FixedDelay{Delay: delay}, nil
	case "token_bucket":
		if perSecond <= 0 {
			return nil, fmt.Errorf("token bucket rate must be positive, got %v", perSecond)
		}
		return NewTokenBucket(perSecond, burst), nil
	case "none":
		return FixedDelay{}, nil
	default:
		return nil, fmt.Errorf("unknown limiter %q", kind)
	}
}
