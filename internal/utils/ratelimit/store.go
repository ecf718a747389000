package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Store keeps one Limiter per client key.
type Store struct {
	mu       sync.Mutex
	limiters map[string]*Limiter
	rps      float64
	burst    int
	maxSize  int
}

// NewStore creates a store whose limiters share the same rate. The map is reset when
// it grows beyond maxSize during cleanup.
func NewStore(rps float64, burst int, maxSize int) *Store {
	return &Store{
		limiters: make(map[string]*Limiter),
		rps:      rps,
		burst:    burst,
		maxSize:  maxSize,
	}
}

// GetLimiter returns the limiter for key, creating it on first use.
func (s *Store) GetLimiter(key string) *Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	limiter, exists := s.limiters[key]
	if !exists {
		limiter = NewLimiter(s.rps, s.burst)
		s.limiters[key] = limiter
	}
	return limiter
}

// Allow consumes a token for key.
func (s *Store) Allow(key string) bool {
	return s.GetLimiter(key).Allow()
}

// Reset forgets the limiter for key.
func (s *Store) Reset(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.limiters, key)
}

// Size returns the number of tracked keys.
func (s *Store) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.limiters)
}

// Run periodically cleans the store until ctx is cancelled.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *Store) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.limiters) > s.maxSize {
		log.Warn().Int("size", len(s.limiters)).Msg("Rate limiter store growing too large, resetting")
		s.limiters = make(map[string]*Limiter)
	}
}
