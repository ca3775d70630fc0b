package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/DevShoesed/amazon-scrape/internal/catalog"
)

var _ catalog.CategoryStore = (*CategoryRepo)(nil)

type CategoryRepo struct {
	db *DB
}

func NewCategoryRepo(db *DB) *CategoryRepo {
	return &CategoryRepo{db: db}
}

func (r *CategoryRepo) ByID(ctx context.Context, id int64) (*catalog.Category, error) {
	query := `SELECT id, name, parent_id FROM categories WHERE id = $1`

	c := &catalog.Category{}
	err := r.db.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.ParentID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return c, nil
}

func (r *CategoryRepo) ByName(ctx context.Context, name string) (*catalog.Category, error) {
	query := `SELECT id, name, parent_id FROM categories WHERE name = $1`

	c := &catalog.Category{}
	err := r.db.QueryRow(ctx, query, name).Scan(&c.ID, &c.Name, &c.ParentID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category by name: %w", err)
	}
	return c, nil
}

// Create inserts a category, tolerating a concurrent insert of the same
// name: on conflict the insert is a no-op and the winner row is re-read.
func (r *CategoryRepo) Create(ctx context.Context, name string, parentID *int64) (*catalog.Category, error) {
	query := `
		INSERT INTO categories (name, parent_id)
		VALUES ($1, $2)
		ON CONFLICT (name) DO NOTHING
		RETURNING id`

	c := &catalog.Category{Name: name, ParentID: parentID}
	err := r.db.QueryRow(ctx, query, name, parentID).Scan(&c.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		// Lost the race. Categories are never deleted, so the winner is
		// guaranteed to be readable.
		existing, err := r.ByName(ctx, name)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, fmt.Errorf("category %q vanished after insert conflict", name)
		}
		return existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return c, nil
}
