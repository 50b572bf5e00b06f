package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopfra/catalogsync/internal/domain"
	pkgkafka "github.com/shopfra/catalogsync/pkg/kafka"
)

// Kafka topic constants for catalog domain events.
const (
	TopicProductCreated = "catalog.product.created"
	TopicProductUpdated = "catalog.product.updated"
	TopicProductDeleted = "catalog.product.deleted"
)

// Aggregate type constant.
const AggregateTypeProduct = "product"

// Source identifier for events originating from this service.
const SourceCatalogSync = "catalog-sync"

// ProductData is the payload for product.created and product.updated events.
type ProductData struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	ImageURL    string   `json:"image_url"`
	Categories  []string `json:"categories"`
	Size        string   `json:"size"`
	Color       string   `json:"color"`
	PriceCents  int64    `json:"price_cents"`
	Indexed     bool     `json:"indexed"`
}

// ProductDeletedData is the payload for a product.deleted event.
type ProductDeletedData struct {
	ID      string `json:"id"`
	Indexed bool   `json:"indexed"`
}

// Producer publishes catalog domain events to Kafka so downstream systems
// can react to product changes. Publishing is informational only: the search
// index is fed directly by the sync coordinator, not by these events.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the catalog service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishProductCreated publishes a product.created event.
func (p *Producer) PublishProductCreated(ctx context.Context, product *domain.Product, indexed bool) error {
	return p.publishSnapshot(ctx, TopicProductCreated, product, indexed)
}

// PublishProductUpdated publishes a product.updated event.
func (p *Producer) PublishProductUpdated(ctx context.Context, product *domain.Product, indexed bool) error {
	return p.publishSnapshot(ctx, TopicProductUpdated, product, indexed)
}

// PublishProductDeleted publishes a product.deleted event.
func (p *Producer) PublishProductDeleted(ctx context.Context, id string, indexed bool) error {
	data := ProductDeletedData{ID: id, Indexed: indexed}

	event, err := pkgkafka.NewEvent(TopicProductDeleted, id, AggregateTypeProduct, SourceCatalogSync, data)
	if err != nil {
		return fmt.Errorf("create product.deleted event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicProductDeleted, event); err != nil {
		return fmt.Errorf("publish product.deleted event: %w", err)
	}

	p.logger.DebugContext(ctx, "published product.deleted event",
		slog.String("product_id", id),
	)

	return nil
}

func (p *Producer) publishSnapshot(ctx context.Context, topic string, product *domain.Product, indexed bool) error {
	data := ProductData{
		ID:          product.ID,
		Title:       product.Title,
		Description: product.Description,
		ImageURL:    product.ImageURL,
		Categories:  product.Categories,
		Size:        product.Size,
		Color:       product.Color,
		PriceCents:  product.PriceCents,
		Indexed:     indexed,
	}

	event, err := pkgkafka.NewEvent(topic, product.ID, AggregateTypeProduct, SourceCatalogSync, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published catalog event",
		slog.String("topic", topic),
		slog.String("product_id", product.ID),
	)

	return nil
}
