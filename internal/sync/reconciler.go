package sync

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopfra/catalogsync/internal/index"
	"github.com/shopfra/catalogsync/internal/repository"
)

const defaultReconcileBatchSize = 500

// Summary reports the outcome of a reconciliation run.
type Summary struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Reconciler walks the entire catalog and re-upserts every product into the
// index, repairing any drift left behind by failed propagations. It never
// deletes index documents: a document whose product no longer exists is left
// in place until a later deletion propagates or an operator drops the index.
type Reconciler struct {
	store     repository.CatalogStore
	indexer   index.Indexer
	batchSize int
	logger    *slog.Logger
}

// NewReconciler creates a reconciler scanning the store in batches of
// batchSize. A non-positive batchSize falls back to the default.
func NewReconciler(store repository.CatalogStore, indexer index.Indexer, batchSize int, logger *slog.Logger) *Reconciler {
	if batchSize <= 0 {
		batchSize = defaultReconcileBatchSize
	}
	return &Reconciler{
		store:     store,
		indexer:   indexer,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Run executes one full reconciliation pass. The scan is ordered by product
// ID so concurrent writes cannot make it skip or loop. Individual index
// failures are counted and skipped; only store errors or an unreachable
// index abort the run.
func (r *Reconciler) Run(ctx context.Context) (*Summary, error) {
	if err := r.indexer.EnsureIndex(ctx); err != nil {
		ReconcileRunsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("ensure index: %w", err)
	}

	summary := &Summary{}
	afterID := ""

	for {
		select {
		case <-ctx.Done():
			ReconcileRunsTotal.WithLabelValues("canceled").Inc()
			return summary, ctx.Err()
		default:
		}

		products, err := r.store.ListFrom(ctx, afterID, r.batchSize)
		if err != nil {
			ReconcileRunsTotal.WithLabelValues("error").Inc()
			return summary, fmt.Errorf("scan catalog after %q: %w", afterID, err)
		}
		if len(products) == 0 {
			break
		}

		docs := make([]index.Document, 0, len(products))
		for i := range products {
			docs = append(docs, index.DocumentFromProduct(&products[i]))
		}
		summary.Attempted += len(docs)

		if err := r.indexer.BulkUpsert(ctx, docs); err != nil {
			// Retry the batch one document at a time so a single bad
			// document does not sink its whole batch.
			r.logger.WarnContext(ctx, "bulk upsert failed, retrying per document",
				slog.Int("batch_size", len(docs)),
				slog.String("error", err.Error()),
			)
			for _, doc := range docs {
				if err := r.indexer.Upsert(ctx, doc); err != nil {
					summary.Failed++
					ReconcileProducts.WithLabelValues("error").Inc()
					r.logger.ErrorContext(ctx, "reconcile upsert failed",
						slog.String("product_id", doc.ID),
						slog.String("error", err.Error()),
					)
					continue
				}
				summary.Succeeded++
				ReconcileProducts.WithLabelValues("success").Inc()
			}
		} else {
			summary.Succeeded += len(docs)
			ReconcileProducts.WithLabelValues("success").Add(float64(len(docs)))
		}

		afterID = products[len(products)-1].ID

		if len(products) < r.batchSize {
			break
		}
	}

	ReconcileRunsTotal.WithLabelValues("success").Inc()
	r.logger.InfoContext(ctx, "reconciliation finished",
		slog.Int("attempted", summary.Attempted),
		slog.Int("succeeded", summary.Succeeded),
		slog.Int("failed", summary.Failed),
	)
	return summary, nil
}
