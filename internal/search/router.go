package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopfra/catalogsync/internal/index"
	apperrors "github.com/shopfra/catalogsync/pkg/errors"
)

// Router validates query-path requests and routes them to the search index.
// Results are hydrated entirely from the stored document snapshots, so a
// query never touches the catalog database.
type Router struct {
	indexer index.Indexer
	cache   ResultCache
	logger  *slog.Logger
}

// NewRouter creates a query router. cache may be nil to disable caching.
func NewRouter(indexer index.Indexer, cache ResultCache, logger *slog.Logger) *Router {
	return &Router{
		indexer: indexer,
		cache:   cache,
		logger:  logger,
	}
}

// Search executes a ranked full-text search. A blank query text is rejected
// before the index is contacted.
func (r *Router) Search(ctx context.Context, query *index.Query) (*index.Result, error) {
	if strings.TrimSpace(query.Text) == "" {
		return nil, apperrors.MissingQuery()
	}

	if query.SortBy == "" {
		query.SortBy = index.SortRelevance
	}
	if !index.IsValidSort(query.SortBy) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown sort %q", query.SortBy))
	}

	if query.Page <= 0 {
		query.Page = 1
	}
	if query.PerPage <= 0 {
		query.PerPage = 20
	}
	if query.PerPage > 100 {
		query.PerPage = 100
	}

	key := ""
	if r.cache != nil {
		key = cacheKey(query)
		if key != "" {
			if result, ok := r.cache.Get(ctx, key); ok {
				r.logger.DebugContext(ctx, "search cache hit", slog.String("query", query.Text))
				return result, nil
			}
		}
	}

	result, err := r.indexer.Search(ctx, query)
	if err != nil {
		return nil, apperrors.IndexUnavailable(err)
	}

	if r.cache != nil && key != "" {
		r.cache.Set(ctx, key, result)
	}

	r.logger.DebugContext(ctx, "search executed",
		slog.String("query", query.Text),
		slog.Int("total", result.Total),
		slog.Int64("took_ms", result.TookMs),
	)

	return result, nil
}
