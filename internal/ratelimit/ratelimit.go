package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Limiter spaces outbound page fetches with a jittered delay and backs
// off when the storefront starts rejecting requests.
type Limiter struct {
	mu         sync.Mutex
	minDelay   time.Duration
	maxDelay   time.Duration
	lastAction time.Time

	errorStreak   int
	successStreak int
}

const (
	backoffFactor = 1.5
	backoffAfter  = 3
	easeAfter     = 5
	floorDelay    = 1 * time.Second
	ceilDelay     = 2 * time.Minute
)

func New(minDelay, maxDelay time.Duration) *Limiter {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &Limiter{minDelay: minDelay, maxDelay: maxDelay}
}

// Wait blocks until enough time has passed since the previous fetch.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	delay := l.jitteredDelay()
	elapsed := time.Since(l.lastAction)
	l.mu.Unlock()

	if elapsed < delay {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay - elapsed):
		}
	}

	l.mu.Lock()
	l.lastAction = time.Now()
	l.mu.Unlock()
	return nil
}

// RecordSuccess eases the pace after a run of clean fetches.
func (l *Limiter) RecordSuccess() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.successStreak++
	l.errorStreak = 0

	if l.successStreak >= easeAfter {
		l.successStreak = 0
		eased := time.Duration(float64(l.minDelay) * 0.9)
		if eased < floorDelay {
			eased = floorDelay
		}
		l.minDelay = eased
	}
}

// RecordError slows down after repeated failures, which usually means
// throttling or bot checks rather than a broken listing.
func (l *Limiter) RecordError() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.errorStreak++
	l.successStreak = 0

	if l.errorStreak >= backoffAfter {
		l.errorStreak = 0
		l.minDelay = capDelay(time.Duration(float64(l.minDelay) * backoffFactor))
		l.maxDelay = capDelay(time.Duration(float64(l.maxDelay) * backoffFactor))
	}
}

func (l *Limiter) jitteredDelay() time.Duration {
	if l.maxDelay <= l.minDelay {
		return l.minDelay
	}
	return l.minDelay + time.Duration(rand.Int63n(int64(l.maxDelay-l.minDelay)))
}

func capDelay(d time.Duration) time.Duration {
	if d > ceilDelay {
		return ceilDelay
	}
	return d
}
