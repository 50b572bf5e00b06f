package repository

import (
	"context"

	"github.com/shopfra/catalogsync/internal/domain"
)

// ProductFilter defines filter criteria for listing products.
type ProductFilter struct {
	Category *string
	Size     *string
	Color    *string
	MinPrice *int64
	MaxPrice *int64
	Page     int
	PerPage  int
}

// CatalogStore defines the interface for the authoritative product store.
// It owns canonical documents and stable identifiers; the search index is
// only ever derived from it.
type CatalogStore interface {
	// Create inserts a new product into the store.
	Create(ctx context.Context, product *domain.Product) error

	// GetByID retrieves a product by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	// List returns products matching the given filter along with the total count.
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, int, error)

	// ListFrom returns up to limit products with id > afterID, in identifier
	// order. An empty afterID starts from the beginning. Used for batch scans.
	ListFrom(ctx context.Context, afterID string, limit int) ([]domain.Product, error)

	// Update replaces an existing product in the store. Concurrent updates to
	// the same identifier are serialized last-writer-wins; there is no
	// optimistic-concurrency token.
	Update(ctx context.Context, product *domain.Product) error

	// Delete removes a product from the store by its identifier.
	Delete(ctx context.Context, id string) error
}
