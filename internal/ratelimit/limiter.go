package ratelimit

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable means the limiter backend could not answer.
var ErrUnavailable = errors.New("rate limiter unavailable")

type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter decides whether the caller identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

type allowAll struct{}

// AllowAll returns a Limiter that never denies.
func AllowAll() Limiter {
	return allowAll{}
}

func (allowAll) Allow(context.Context, string) (Result, error) {
	return Result{Allowed: true}, nil
}
