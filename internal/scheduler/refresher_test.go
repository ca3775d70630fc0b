package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeService struct {
	asins    []string
	listErr  error
	failASIN string
	scraped  []string
}

func (f *fakeService) ListASINs(_ context.Context) ([]string, error) {
	return f.asins, f.listErr
}

func (f *fakeService) Scrape(_ context.Context, asin string) error {
	f.scraped = append(f.scraped, asin)
	if asin == f.failASIN {
		return errors.New("boom")
	}
	return nil
}

func newTestRefresher(svc *fakeService) *Refresher {
	return NewRefresher(svc, Options{
		Spec:         "@hourly",
		PauseBetween: time.Millisecond,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRefreshAllScrapesEveryProduct(t *testing.T) {
	svc := &fakeService{asins: []string{"B001", "B002", "B003"}}

	newTestRefresher(svc).RefreshAll(context.Background())

	assert.Equal(t, []string{"B001", "B002", "B003"}, svc.scraped)
}

func TestRefreshAllContinuesPastFailures(t *testing.T) {
	svc := &fakeService{asins: []string{"B001", "B002", "B003"}, failASIN: "B002"}

	newTestRefresher(svc).RefreshAll(context.Background())

	assert.Equal(t, []string{"B001", "B002", "B003"}, svc.scraped)
}

func TestRefreshAllStopsOnCanceledContext(t *testing.T) {
	svc := &fakeService{asins: []string{"B001", "B002"}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	newTestRefresher(svc).RefreshAll(ctx)

	assert.Empty(t, svc.scraped)
}

func TestRefreshAllListErrorIsNonFatal(t *testing.T) {
	svc := &fakeService{listErr: errors.New("db down")}

	newTestRefresher(svc).RefreshAll(context.Background())

	assert.Empty(t, svc.scraped)
}
