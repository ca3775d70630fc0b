package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/DevShoesed/amazon-scrape/internal/catalog"
)

var _ catalog.ProductStore = (*ProductRepo)(nil)

type ProductRepo struct {
	db *DB
}

func NewProductRepo(db *DB) *ProductRepo {
	return &ProductRepo{db: db}
}

// Upsert creates or updates a product by its ASIN, keeping one row per
// ASIN at all times.
func (r *ProductRepo) Upsert(ctx context.Context, p *catalog.Product) error {
	if p.ASIN == "" {
		return fmt.Errorf("%w: asin is required", catalog.ErrInvalidProduct)
	}
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", catalog.ErrInvalidProduct)
	}
	if p.CategoryID == catalog.NoCategory {
		return fmt.Errorf("%w: category is required", catalog.ErrInvalidProduct)
	}

	query := `
		INSERT INTO products (asin, name, category_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (asin) DO UPDATE SET
			name = EXCLUDED.name,
			category_id = EXCLUDED.category_id`

	if _, err := r.db.Exec(ctx, query, p.ASIN, p.Name, p.CategoryID); err != nil {
		return fmt.Errorf("failed to upsert product: %w", err)
	}
	return nil
}

func (r *ProductRepo) ByASIN(ctx context.Context, asin string) (*catalog.Product, error) {
	query := `SELECT asin, name, category_id FROM products WHERE asin = $1`

	p := &catalog.Product{}
	err := r.db.QueryRow(ctx, query, asin).Scan(&p.ASIN, &p.Name, &p.CategoryID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

// List returns products with their current price, cheapest first. Products
// without price history list with a current price of zero.
func (r *ProductRepo) List(ctx context.Context, f catalog.ListFilter) ([]catalog.ListedProduct, error) {
	query := `
		SELECT p.asin, p.name, p.category_id, COALESCE(lp.amount, 0) AS current_price
		FROM products p
		LEFT JOIN LATERAL (
			SELECT amount FROM prices
			WHERE product_asin = p.asin
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		) lp ON true
		WHERE ($1 = 0 OR p.category_id = $1)
		  AND ($2 = '' OR p.name ILIKE '%' || $2 || '%')
		ORDER BY current_price ASC, p.asin ASC`

	rows, err := r.db.Query(ctx, query, f.CategoryID, f.NameSubstring)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []catalog.ListedProduct
	for rows.Next() {
		var p catalog.ListedProduct
		if err := rows.Scan(&p.ASIN, &p.Name, &p.CategoryID, &p.CurrentPrice); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read products: %w", err)
	}

	return products, nil
}

// Delete removes a product; its price rows go with it via the cascading
// foreign key. Returns false when no such product exists.
func (r *ProductRepo) Delete(ctx context.Context, asin string) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE asin = $1`, asin)
	if err != nil {
		return false, fmt.Errorf("failed to delete product: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
