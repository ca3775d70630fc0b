package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
)

// PriceTracker appends price observations to a product's history, skipping
// the write when the price has not moved since the latest row.
type PriceTracker struct {
	prices PriceStore
	logger *slog.Logger
}

func NewPriceTracker(prices PriceStore, logger *slog.Logger) *PriceTracker {
	return &PriceTracker{
		prices: prices,
		logger: logger.With("component", "price_tracker"),
	}
}

// RecordPrice compares amount against the most recent row for asin. It
// inserts a new row when there is no history yet or the amount differs, and
// otherwise returns the existing row untouched. The bool reports whether a
// row was written.
func (t *PriceTracker) RecordPrice(ctx context.Context, asin string, amount decimal.Decimal) (*Price, bool, error) {
	latest, err := t.prices.Latest(ctx, asin)
	if err != nil {
		return nil, false, fmt.Errorf("load latest price: %w", err)
	}

	if latest != nil && latest.Amount.Equal(amount) {
		t.logger.Debug("price unchanged", "asin", asin, "amount", amount.String())
		return latest, false, nil
	}

	row, err := t.prices.Insert(ctx, asin, amount)
	if err != nil {
		return nil, false, fmt.Errorf("insert price: %w", err)
	}

	t.logger.Info("price recorded", "asin", asin, "amount", amount.String())
	return row, true, nil
}
