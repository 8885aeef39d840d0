package domain

import (
	"context"
	"time"
)

// RateLimitDecision reports the state of a fixed window after one request
// was counted against it.
type RateLimitDecision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (RateLimitDecision, error)
}
