package sync

import (
	"context"
	"fmt"
	"log/slog"
	stdsync "sync"
	"time"

	"github.com/shopfra/catalogsync/internal/domain"
	"github.com/shopfra/catalogsync/internal/index"
	apperrors "github.com/shopfra/catalogsync/pkg/errors"
)

// Coordinator forwards catalog mutations to the search index. Each event is
// propagated exactly once per call: a failed attempt is reported to the
// caller and never retried internally, so the catalog stays authoritative
// and the index converges through reconciliation.
type Coordinator struct {
	indexer index.Indexer
	logger  *slog.Logger

	mu    stdsync.Mutex
	ready bool
}

// NewCoordinator creates a coordinator over the given indexer. The index
// itself is created lazily on the first propagation, not here, so a search
// backend that is down at startup does not block catalog writes.
func NewCoordinator(indexer index.Indexer, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		indexer: indexer,
		logger:  logger,
	}
}

// Propagate applies a single sync event to the index. Created and updated
// events upsert the full document snapshot; deleted events remove the
// document. Any index failure is returned as-is after one attempt.
func (c *Coordinator) Propagate(ctx context.Context, event domain.SyncEvent) error {
	if err := event.Validate(); err != nil {
		return apperrors.InvalidInput(err.Error())
	}

	if err := c.ensureIndex(ctx); err != nil {
		PropagationsTotal.WithLabelValues(string(event.Kind), "error").Inc()
		return apperrors.IndexUnavailable(err)
	}

	start := time.Now()
	err := c.apply(ctx, event)
	PropagationDuration.WithLabelValues(string(event.Kind)).Observe(time.Since(start).Seconds())

	if err != nil {
		PropagationsTotal.WithLabelValues(string(event.Kind), "error").Inc()
		c.logger.ErrorContext(ctx, "index propagation failed",
			slog.String("kind", string(event.Kind)),
			slog.String("product_id", event.ID),
			slog.String("error", err.Error()),
		)
		return apperrors.IndexUnavailable(err)
	}

	PropagationsTotal.WithLabelValues(string(event.Kind), "success").Inc()
	return nil
}

func (c *Coordinator) apply(ctx context.Context, event domain.SyncEvent) error {
	switch event.Kind {
	case domain.SyncCreated, domain.SyncUpdated:
		return c.indexer.Upsert(ctx, index.DocumentFromProduct(event.Product))
	case domain.SyncDeleted:
		return c.indexer.Delete(ctx, event.ID)
	default:
		return fmt.Errorf("unknown sync kind %q", event.Kind)
	}
}

// Reset clears the bootstrap state so the next propagation recreates the
// index. Called after the index has been dropped.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	c.ready = false
	c.mu.Unlock()
}

// ensureIndex creates the index on the first successful call. A failed
// attempt leaves the coordinator unready so the next propagation retries
// the bootstrap.
func (c *Coordinator) ensureIndex(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ready {
		return nil
	}

	if err := c.indexer.EnsureIndex(ctx); err != nil {
		return fmt.Errorf("ensure index: %w", err)
	}

	c.ready = true
	c.logger.InfoContext(ctx, "search index ready")
	return nil
}
