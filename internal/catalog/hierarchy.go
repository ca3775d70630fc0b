package catalog

import (
	"context"
	"fmt"
	"log/slog"
)

// maxTreeDepth caps ancestor walks. A chain deeper than this is treated as
// corrupt rather than walked forever.
const maxTreeDepth = 64

// HierarchyResolver turns breadcrumbs into persisted category chains and
// walks leaf categories back to their root.
type HierarchyResolver struct {
	categories CategoryStore
	logger     *slog.Logger
}

func NewHierarchyResolver(categories CategoryStore, logger *slog.Logger) *HierarchyResolver {
	return &HierarchyResolver{
		categories: categories,
		logger:     logger.With("component", "hierarchy_resolver"),
	}
}

// ResolveChain finds or creates a category row for every breadcrumb name,
// root first, and returns the leaf id. Lookup is by name alone, not scoped
// to the expected parent, so a name that already exists anywhere in the
// forest is reused with its original parent. Empty input resolves to
// NoCategory.
func (r *HierarchyResolver) ResolveChain(ctx context.Context, names []string) (int64, error) {
	leaf := NoCategory
	var parentID *int64

	for _, name := range names {
		cat, err := r.categories.ByName(ctx, name)
		if err != nil {
			return NoCategory, fmt.Errorf("lookup category %q: %w", name, err)
		}
		if cat == nil {
			cat, err = r.categories.Create(ctx, name, parentID)
			if err != nil {
				return NoCategory, fmt.Errorf("create category %q: %w", name, err)
			}
			r.logger.Info("category created", "name", name, "id", cat.ID)
		}
		leaf = cat.ID
		id := cat.ID
		parentID = &id
	}

	return leaf, nil
}

// AncestorChain returns category names from the leaf up to its root.
func (r *HierarchyResolver) AncestorChain(ctx context.Context, leafID int64) ([]string, error) {
	if leafID == NoCategory {
		return nil, nil
	}

	var names []string
	id := leafID
	for depth := 0; ; depth++ {
		if depth >= maxTreeDepth {
			return nil, fmt.Errorf("%w: walk from category %d exceeded depth %d", ErrCycleDetected, leafID, maxTreeDepth)
		}

		cat, err := r.categories.ByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load category %d: %w", id, err)
		}
		if cat == nil {
			return nil, fmt.Errorf("category %d not found", id)
		}

		names = append(names, cat.Name)
		if cat.ParentID == nil {
			return names, nil
		}
		id = *cat.ParentID
	}
}
