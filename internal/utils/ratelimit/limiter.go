// Package ratelimit throttles repeated requests per client key. It is used to slow
// down password guessing on the login form.
package ratelimit

import (
	"sync"

	"golang.org/x/time/rate"
)

// Limiter is a token bucket for a single client.
type Limiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	rps     float64
	burst   int
}

// NewLimiter creates a limiter that refills rps tokens per second up to burst.
func NewLimiter(rps float64, burst int) *Limiter {
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		rps:     rps,
		burst:   burst,
	}
}

// Allow reports whether one more request may proceed now and consumes a token if so.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.limiter.Allow()
}

// Reset refills the bucket, e.g. after a successful login.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.limiter = rate.NewLimiter(rate.Limit(l.rps), l.burst)
}
