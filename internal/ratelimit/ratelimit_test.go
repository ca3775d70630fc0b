package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitSpacesCalls(t *testing.T) {
	l := New(50*time.Millisecond, 50*time.Millisecond)

	require.NoError(t, l.Wait(context.Background()))
	start := time.Now()
	require.NoError(t, l.Wait(context.Background()))

	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestWaitHonorsCanceledContext(t *testing.T) {
	l := New(time.Hour, time.Hour)
	require.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, l.Wait(ctx), context.DeadlineExceeded)
}

func TestRepeatedErrorsBackOff(t *testing.T) {
	l := New(2*time.Second, 4*time.Second)

	for i := 0; i < backoffAfter; i++ {
		l.RecordError()
	}

	assert.Equal(t, 3*time.Second, l.minDelay)
	assert.Equal(t, 6*time.Second, l.maxDelay)
}

func TestBackoffIsCapped(t *testing.T) {
	l := New(90*time.Second, 100*time.Second)

	for i := 0; i < backoffAfter; i++ {
		l.RecordError()
	}

	assert.Equal(t, ceilDelay, l.minDelay)
	assert.Equal(t, ceilDelay, l.maxDelay)
}

func TestSuccessStreakEasesPace(t *testing.T) {
	l := New(10*time.Second, 20*time.Second)

	for i := 0; i < easeAfter; i++ {
		l.RecordSuccess()
	}

	assert.Equal(t, 9*time.Second, l.minDelay)
}

func TestSuccessResetsErrorStreak(t *testing.T) {
	l := New(2*time.Second, 4*time.Second)

	l.RecordError()
	l.RecordError()
	l.RecordSuccess()
	l.RecordError()
	l.RecordError()

	assert.Equal(t, 2*time.Second, l.minDelay, "interleaved successes must prevent backoff")
}
