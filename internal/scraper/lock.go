package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrScrapeInProgress means another run holds the lease for this ASIN.
var ErrScrapeInProgress = errors.New("scrape already in progress")

// ScrapeLock serializes scrapes of one ASIN across processes with a redis
// SETNX lease. The TTL bounds how long a crashed run can hold the lease.
type ScrapeLock struct {
	client *redis.Client
	ttl    time.Duration
}

func NewScrapeLock(client *redis.Client, ttl time.Duration) *ScrapeLock {
	return &ScrapeLock{client: client, ttl: ttl}
}

func (l *ScrapeLock) Acquire(ctx context.Context, asin string) (func(), error) {
	key := "scrape:lock:" + asin

	ok, err := l.client.SetNX(ctx, key, "1", l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrScrapeInProgress, asin)
	}

	return func() {
		// Release must survive a canceled scrape context.
		l.client.Del(context.WithoutCancel(ctx), key)
	}, nil
}
