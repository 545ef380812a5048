package rateLimit

import (
	"context"
	"time"

	"github.com/robertarktes/flight-seat-ledger/internal/observability"
)

// Counter is a fixed-window counter; the redis cache adapter implements it.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

type RateLimiter struct {
	counter Counter
	logger  observability.Logger
}

func NewRateLimiter(counter Counter, logger observability.Logger) *RateLimiter {
	return &RateLimiter{counter: counter, logger: logger}
}

// Allow reports whether another request for key fits in the window. A
// counter failure lets the request through.
func (rl *RateLimiter) Allow(ctx context.Context, key string, rate int, period time.Duration) bool {
	n, err := rl.counter.Incr(ctx, key, period)
	if err != nil {
		rl.logger.WithError(err).Warn("rate limit counter unavailable")
		return true
	}
	if n > int64(rate) {
		observability.RateLimitExceeded.Inc()
		return false
	}
	return true
}
