package database

import (
	"context"
	"fmt"
)

// The unique constraint on categories.name backs the resolver's
// find-or-create: two scrapes racing to create the same category cannot
// produce duplicate rows.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS categories (
		id        BIGSERIAL PRIMARY KEY,
		name      TEXT NOT NULL UNIQUE,
		parent_id BIGINT REFERENCES categories(id)
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		asin        TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		category_id BIGINT NOT NULL REFERENCES categories(id)
	)`,
	`CREATE TABLE IF NOT EXISTS prices (
		id           BIGSERIAL PRIMARY KEY,
		product_asin TEXT NOT NULL REFERENCES products(asin) ON DELETE CASCADE,
		amount       NUMERIC(12,2) NOT NULL CHECK (amount >= 0),
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS prices_product_created_idx
		ON prices (product_asin, created_at DESC, id DESC)`,
}

// Migrate creates the catalog schema when missing.
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply migration: %w", err)
		}
	}
	return nil
}
