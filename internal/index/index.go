package index

import (
	"context"
	"time"

	"github.com/shopfra/catalogsync/internal/domain"
)

// Document is the copy of a product held in the search index, keyed by the
// product identifier. It is eventually consistent with the catalog record:
// it may be transiently absent, stale, or dangling after a failed delete
// propagation. Upserts replace it wholesale; there is no field-level patching.
type Document struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	Categories  []string  `json:"categories"`
	Size        string    `json:"size"`
	Color       string    `json:"color"`
	PriceCents  int64     `json:"price_cents"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DocumentFromProduct builds the indexed document from a catalog snapshot.
func DocumentFromProduct(p *domain.Product) Document {
	doc := Document{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		Categories:  p.Categories,
		Size:        p.Size,
		Color:       p.Color,
		PriceCents:  p.PriceCents,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if doc.Categories == nil {
		doc.Categories = []string{}
	}
	return doc
}

// Sort options for search results.
const (
	SortRelevance = "relevance"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortNewest    = "newest"
)

// IsValidSort checks whether the given sort string is a valid sort option.
func IsValidSort(sort string) bool {
	switch sort {
	case SortRelevance, SortPriceAsc, SortPriceDesc, SortNewest:
		return true
	}
	return false
}

// Query holds all parameters for a search request. Text is matched across
// title, description, and categories; the remaining fields are exact filters.
type Query struct {
	Text     string   `json:"text"`
	Category *string  `json:"category,omitempty"`
	Size     *string  `json:"size,omitempty"`
	Color    *string  `json:"color,omitempty"`
	MinPrice *int64   `json:"min_price,omitempty"`
	MaxPrice *int64   `json:"max_price,omitempty"`
	SortBy   string   `json:"sort_by"`
	Page     int      `json:"page"`
	PerPage  int      `json:"per_page"`
}

// Hit is a single ranked search result: the identifier, the engine's relevance
// score, and the stored document snapshot used for fast hydration.
type Hit struct {
	ID       string   `json:"id"`
	Score    float64  `json:"score"`
	Document Document `json:"document"`
}

// Result holds the paginated, ranked search response.
type Result struct {
	Hits    []Hit `json:"hits"`
	Total   int   `json:"total"`
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	TookMs  int64 `json:"took_ms"`
}

// Indexer is the adapter surface over the full-text search engine. An
// implementation holds its own connection lifecycle and is passed by
// reference to the coordinator, query router, and reconciler.
type Indexer interface {
	// EnsureIndex creates the index with the fixed document schema if it
	// does not already exist. It is safe to call repeatedly.
	EnsureIndex(ctx context.Context) error

	// Upsert adds or replaces the document for doc.ID. The identifier is the
	// index primary key, so repeated upserts are idempotent.
	Upsert(ctx context.Context, doc Document) error

	// Delete removes the document for id. Deleting an absent document is not
	// an error.
	Delete(ctx context.Context, id string) error

	// Search executes a ranked multi-field search.
	Search(ctx context.Context, query *Query) (*Result, error)

	// BulkUpsert adds or replaces multiple documents in one round trip.
	BulkUpsert(ctx context.Context, docs []Document) error

	// DeleteIndex drops the entire index. Schema changes require dropping and
	// recreating; there is no in-place migration.
	DeleteIndex(ctx context.Context) error

	// Ping reports whether the engine is reachable.
	Ping(ctx context.Context) error
}
