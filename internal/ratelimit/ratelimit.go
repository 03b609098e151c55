package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Limiter paces requests against the chain sites. Wait blocks until the
// next request is allowed or the context is cancelled.
type Limiter interface {
	Wait(ctx context.Context) error
}

// JitteredLimiter enforces a randomized delay between requests so the
// crawl does not hit a site on a fixed cadence.
type JitteredLimiter struct {
	minDelay   time.Duration
	maxDelay   time.Duration
	lastAction time.Time
	mu         sync.Mutex
}

func NewJitteredLimiter(minDelay, maxDelay time.Duration) *JitteredLimiter {
	return &JitteredLimiter{
		minDelay: minDelay,
		maxDelay: maxDelay,
	}
}

func (l *JitteredLimiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	elapsed := time.Since(l.lastAction)
	delay := l.nextDelay()

	if elapsed < delay {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay - elapsed):
		}
	}

	l.lastAction = time.Now()
	return nil
}

func (l *JitteredLimiter) nextDelay() time.Duration {
	if l.maxDelay <= l.minDelay {
		return l.minDelay
	}
	return l.minDelay + time.Duration(rand.Int63n(int64(l.maxDelay-l.minDelay)))
}

// AdaptiveLimiter backs off when fetches start failing and slowly speeds
// up again after a streak of successes. The chain sites throttle rather
// than block, so reacting to errors is usually enough.
type AdaptiveLimiter struct {
	*JitteredLimiter
	errorCount   int
	successCount int
}

const (
	backoffFactor      = 1.5
	backoffAfterErrors = 3
	speedupAfterOKs    = 5
	floorDelay         = 1 * time.Second
	ceilingDelay       = 120 * time.Second
)

func NewAdaptiveLimiter(minDelay, maxDelay time.Duration) *AdaptiveLimiter {
	return &AdaptiveLimiter{
		JitteredLimiter: NewJitteredLimiter(minDelay, maxDelay),
	}
}

func (l *AdaptiveLimiter) RecordSuccess() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.successCount++
	l.errorCount = 0

	if l.successCount > speedupAfterOKs {
		l.minDelay = max(time.Duration(float64(l.minDelay)*0.9), floorDelay)
		l.successCount = 0
	}
}

func (l *AdaptiveLimiter) RecordError() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.errorCount++
	l.successCount = 0

	if l.errorCount >= backoffAfterErrors {
		l.minDelay = min(time.Duration(float64(l.minDelay)*backoffFactor), ceilingDelay/2)
		l.maxDelay = min(time.Duration(float64(l.maxDelay)*backoffFactor), ceilingDelay)
		l.errorCount = 0
	}
}
