package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/DevShoesed/amazon-scrape/internal/catalog"
)

var _ catalog.PriceStore = (*PriceRepo)(nil)

type PriceRepo struct {
	db *DB
}

func NewPriceRepo(db *DB) *PriceRepo {
	return &PriceRepo{db: db}
}

// Latest returns the most recently created price row for a product, ties
// in creation time broken by highest id. Nil when there is no history.
func (r *PriceRepo) Latest(ctx context.Context, asin string) (*catalog.Price, error) {
	query := `
		SELECT id, product_asin, amount, created_at
		FROM prices
		WHERE product_asin = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1`

	p := &catalog.Price{}
	err := r.db.QueryRow(ctx, query, asin).Scan(&p.ID, &p.ProductASIN, &p.Amount, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest price: %w", err)
	}
	return p, nil
}

func (r *PriceRepo) Insert(ctx context.Context, asin string, amount decimal.Decimal) (*catalog.Price, error) {
	query := `
		INSERT INTO prices (product_asin, amount)
		VALUES ($1, $2)
		RETURNING id, created_at`

	p := &catalog.Price{ProductASIN: asin, Amount: amount}
	if err := r.db.QueryRow(ctx, query, asin, amount).Scan(&p.ID, &p.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to insert price: %w", err)
	}
	return p, nil
}

// History returns all price rows for a product, newest first.
func (r *PriceRepo) History(ctx context.Context, asin string) ([]catalog.Price, error) {
	query := `
		SELECT id, product_asin, amount, created_at
		FROM prices
		WHERE product_asin = $1
		ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Query(ctx, query, asin)
	if err != nil {
		return nil, fmt.Errorf("failed to query price history: %w", err)
	}
	defer rows.Close()

	var history []catalog.Price
	for rows.Next() {
		var p catalog.Price
		if err := rows.Scan(&p.ID, &p.ProductASIN, &p.Amount, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan price: %w", err)
		}
		history = append(history, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read prices: %w", err)
	}

	return history, nil
}
