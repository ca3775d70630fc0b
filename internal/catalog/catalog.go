package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// NoCategory is the leaf id resolved for an empty breadcrumb.
const NoCategory int64 = 0

var (
	// ErrCycleDetected means the persisted category tree contains a parent
	// loop. Resolution never creates back-edges, so this only happens when
	// the stored data has been corrupted.
	ErrCycleDetected = errors.New("cycle detected in category tree")

	// ErrInvalidProduct reports an upsert with a missing required field.
	ErrInvalidProduct = errors.New("invalid product")
)

// Category is a node in the self-referential category forest. Root nodes
// have a nil ParentID.
type Category struct {
	ID       int64
	Name     string
	ParentID *int64
}

// Product is keyed by its ASIN, the natural key used across the catalog.
type Product struct {
	ASIN       string
	Name       string
	CategoryID int64
}

// Price is one observation in a product's append-only price history.
type Price struct {
	ID          int64
	ProductASIN string
	Amount      decimal.Decimal
	CreatedAt   time.Time
}

// ListFilter narrows a product listing. Zero values disable a filter; both
// filters combine with AND semantics.
type ListFilter struct {
	CategoryID    int64
	NameSubstring string
}

// ListedProduct is a product with its current price, zero when the product
// has no price history yet.
type ListedProduct struct {
	Product
	CurrentPrice decimal.Decimal
}

// CategoryStore persists the category forest. Create must tolerate two
// callers racing to create the same name: the name column is unique and the
// implementation re-reads the winner on conflict.
type CategoryStore interface {
	ByID(ctx context.Context, id int64) (*Category, error)
	ByName(ctx context.Context, name string) (*Category, error)
	Create(ctx context.Context, name string, parentID *int64) (*Category, error)
}

// ProductStore persists products keyed by ASIN.
type ProductStore interface {
	Upsert(ctx context.Context, p *Product) error
	ByASIN(ctx context.Context, asin string) (*Product, error)
	List(ctx context.Context, f ListFilter) ([]ListedProduct, error)
	Delete(ctx context.Context, asin string) (bool, error)
}

// PriceStore persists price history rows. Latest returns nil when a product
// has no rows yet.
type PriceStore interface {
	Latest(ctx context.Context, asin string) (*Price, error)
	Insert(ctx context.Context, asin string, amount decimal.Decimal) (*Price, error)
	History(ctx context.Context, asin string) ([]Price, error)
}
