package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Refreshable is the slice of the scrape service the refresher drives.
type Refreshable interface {
	ListASINs(ctx context.Context) ([]string, error)
	Scrape(ctx context.Context, asin string) error
}

// Refresher periodically re-scrapes every stored product so price
// histories keep tracking the live listings.
type Refresher struct {
	cron     *cron.Cron
	service  Refreshable
	spec     string
	interval time.Duration
	logger   *slog.Logger
}

// Options for the refresher. Spec is a standard cron expression;
// PauseBetween spaces the scrapes inside a run to stay polite.
type Options struct {
	Spec         string
	PauseBetween time.Duration
}

func NewRefresher(service Refreshable, opts Options, logger *slog.Logger) *Refresher {
	pause := opts.PauseBetween
	if pause <= 0 {
		pause = 2 * time.Second
	}
	return &Refresher{
		cron:     cron.New(),
		service:  service,
		spec:     opts.Spec,
		interval: pause,
		logger:   logger.With("component", "refresher"),
	}
}

func (r *Refresher) Start(ctx context.Context) error {
	_, err := r.cron.AddFunc(r.spec, func() { r.RefreshAll(ctx) })
	if err != nil {
		return err
	}
	r.cron.Start()
	r.logger.Info("price refresher scheduled", "spec", r.spec)
	return nil
}

// Stop halts the schedule and waits for a running refresh to finish.
func (r *Refresher) Stop() {
	<-r.cron.Stop().Done()
}

// RefreshAll re-scrapes every stored ASIN sequentially. Failures are
// logged and skipped so one dead listing cannot stall the whole run.
func (r *Refresher) RefreshAll(ctx context.Context) {
	asins, err := r.service.ListASINs(ctx)
	if err != nil {
		r.logger.Error("failed to list products for refresh", "error", err)
		return
	}
	if len(asins) == 0 {
		r.logger.Info("no products to refresh")
		return
	}

	r.logger.Info("starting price refresh", "products", len(asins))

	var failed int
	for i, asin := range asins {
		if ctx.Err() != nil {
			r.logger.Info("refresh aborted", "done", i, "total", len(asins))
			return
		}
		if err := r.service.Scrape(ctx, asin); err != nil {
			failed++
			r.logger.Error("refresh scrape failed", "asin", asin, "error", err)
		}
		if i < len(asins)-1 {
			time.Sleep(r.interval)
		}
	}

	r.logger.Info("price refresh finished", "products", len(asins), "failed", failed)
}
