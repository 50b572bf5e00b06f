package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shopfra/catalogsync/internal/domain"
	"github.com/shopfra/catalogsync/internal/event"
	"github.com/shopfra/catalogsync/internal/repository"
	apperrors "github.com/shopfra/catalogsync/pkg/errors"
)

// Propagator forwards catalog mutations to the search index.
type Propagator interface {
	Propagate(ctx context.Context, event domain.SyncEvent) error
}

// CatalogService implements the business logic for catalog operations. The
// database write is the source of truth: once it commits, the operation
// succeeds even if the follow-up index propagation fails. The returned
// indexed flag tells the caller whether the index received the change.
type CatalogService struct {
	store      repository.CatalogStore
	propagator Propagator
	producer   *event.Producer
	logger     *slog.Logger
}

// NewCatalogService creates a new catalog service. producer may be nil when
// event publishing is disabled.
func NewCatalogService(store repository.CatalogStore, propagator Propagator, producer *event.Producer, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		store:      store,
		propagator: propagator,
		producer:   producer,
		logger:     logger,
	}
}

// CreateProductInput holds the parameters for creating a product.
type CreateProductInput struct {
	Title       string
	Description string
	ImageURL    string
	Categories  []string
	Size        string
	Color       string
	PriceCents  int64
}

// UpdateProductInput holds the parameters for updating a product. Nil fields
// keep their current value.
type UpdateProductInput struct {
	Title       *string
	Description *string
	ImageURL    *string
	Categories  []string
	Size        *string
	Color       *string
	PriceCents  *int64
}

// CreateProduct persists a new product and propagates it to the index.
func (s *CatalogService) CreateProduct(ctx context.Context, input *CreateProductInput) (*domain.Product, bool, error) {
	if input.Title == "" {
		return nil, false, apperrors.InvalidInput("product title is required")
	}
	if input.PriceCents < 0 {
		return nil, false, apperrors.InvalidInput("price must not be negative")
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:          uuid.New().String(),
		Title:       input.Title,
		Description: input.Description,
		ImageURL:    input.ImageURL,
		Categories:  input.Categories,
		Size:        input.Size,
		Color:       input.Color,
		PriceCents:  input.PriceCents,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if product.Categories == nil {
		product.Categories = []string{}
	}

	if err := s.store.Create(ctx, product); err != nil {
		return nil, false, fmt.Errorf("create product: %w", err)
	}

	indexed := s.propagate(ctx, domain.CreatedEvent(product))

	if s.producer != nil {
		if err := s.producer.PublishProductCreated(ctx, product, indexed); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish product.created event",
				slog.String("product_id", product.ID),
				slog.String("error", err.Error()),
			)
			// Do not fail the operation if event publishing fails.
		}
	}

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", product.ID),
		slog.Bool("indexed", indexed),
	)

	return product, indexed, nil
}

// GetProduct retrieves a product by its ID from the catalog store.
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product by id: %w", err)
	}
	return product, nil
}

// ListProducts returns a filtered, paginated list of products.
func (s *CatalogService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 20
	}
	if filter.PerPage > 100 {
		filter.PerPage = 100
	}

	products, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}

	return products, total, nil
}

// UpdateProduct applies partial updates to an existing product. The stored
// row is replaced with the merged snapshot; whichever update commits last
// wins in both the catalog and the index.
func (s *CatalogService) UpdateProduct(ctx context.Context, id string, input *UpdateProductInput) (*domain.Product, bool, error) {
	product, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, false, fmt.Errorf("get product for update: %w", err)
	}

	if input.Title != nil {
		if *input.Title == "" {
			return nil, false, apperrors.InvalidInput("product title must not be empty")
		}
		product.Title = *input.Title
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.ImageURL != nil {
		product.ImageURL = *input.ImageURL
	}
	if input.Categories != nil {
		product.Categories = input.Categories
	}
	if input.Size != nil {
		product.Size = *input.Size
	}
	if input.Color != nil {
		product.Color = *input.Color
	}
	if input.PriceCents != nil {
		if *input.PriceCents < 0 {
			return nil, false, apperrors.InvalidInput("price must not be negative")
		}
		product.PriceCents = *input.PriceCents
	}

	if err := s.store.Update(ctx, product); err != nil {
		return nil, false, fmt.Errorf("update product: %w", err)
	}

	indexed := s.propagate(ctx, domain.UpdatedEvent(product))

	if s.producer != nil {
		if err := s.producer.PublishProductUpdated(ctx, product, indexed); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish product.updated event",
				slog.String("product_id", product.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "product updated",
		slog.String("product_id", product.ID),
		slog.Bool("indexed", indexed),
	)

	return product, indexed, nil
}

// DeleteProduct removes a product from the catalog and propagates the
// deletion to the index.
func (s *CatalogService) DeleteProduct(ctx context.Context, id string) (bool, error) {
	if err := s.store.Delete(ctx, id); err != nil {
		return false, fmt.Errorf("delete product: %w", err)
	}

	indexed := s.propagate(ctx, domain.DeletedEvent(id))

	if s.producer != nil {
		if err := s.producer.PublishProductDeleted(ctx, id, indexed); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish product.deleted event",
				slog.String("product_id", id),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "product deleted",
		slog.String("product_id", id),
		slog.Bool("indexed", indexed),
	)

	return indexed, nil
}

// propagate forwards one sync event to the index and reports whether it
// landed. The catalog write has already committed, so an index failure only
// widens the staleness window until the next reconciliation.
func (s *CatalogService) propagate(ctx context.Context, ev domain.SyncEvent) bool {
	if err := s.propagator.Propagate(ctx, ev); err != nil {
		s.logger.WarnContext(ctx, "index propagation failed, catalog remains authoritative",
			slog.String("kind", string(ev.Kind)),
			slog.String("product_id", ev.ID),
			slog.String("error", err.Error()),
		)
		return false
	}
	return true
}
