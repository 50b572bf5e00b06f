package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/shopfra/catalogsync/internal/index"
)

// Client is an Elasticsearch-backed implementation of the index.Indexer
// interface. It owns a single connection to the cluster; construct one
// instance and pass it by reference to everything that needs the index.
type Client struct {
	es        *elasticsearch.Client
	indexName string
	timeout   time.Duration
	logger    *slog.Logger
}

// esSearchResponse is the structure used to decode Elasticsearch search responses.
type esSearchResponse struct {
	Took int `json:"took"`
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			Score  float64        `json:"_score"`
			Source index.Document `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// esBulkResponse is the structure used to decode Elasticsearch bulk responses.
type esBulkResponse struct {
	Errors bool `json:"errors"`
	Items  []struct {
		Index struct {
			ID     string `json:"_id"`
			Status int    `json:"status"`
			Error  struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"index"`
	} `json:"items"`
}

// esErrorResponse is used to decode Elasticsearch error responses.
type esErrorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
	Status int `json:"status"`
}

// New creates a new Elasticsearch client for the given URL. It does not touch
// the index itself; EnsureIndex is called lazily by the sync coordinator (or
// eagerly by the reconciler). If indexName is empty, DefaultIndexName is used.
// The timeout bounds every individual call; zero disables it.
func New(esURL, indexName string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	if indexName == "" {
		indexName = DefaultIndexName
	}

	cfg := elasticsearch.Config{
		Addresses: []string{esURL},
	}

	es, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: failed to create client: %w", err)
	}

	return &Client{
		es:        es,
		indexName: indexName,
		timeout:   timeout,
		logger:    logger,
	}, nil
}

// callContext applies the per-call timeout. This is the only bound on the
// duration of an index operation; there is no cancellation primitive beyond it.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

// Ping checks whether the Elasticsearch cluster is reachable.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := c.callContext(ctx)
	defer cancel()

	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: unexpected status %s", res.Status())
	}
	return nil
}

// EnsureIndex checks whether the product index exists and creates it with the
// fixed mapping if not. Safe to call repeatedly.
func (c *Client) EnsureIndex(ctx context.Context) error {
	ctx, cancel := c.callContext(ctx)
	defer cancel()

	res, err := c.es.Indices.Exists(
		[]string{c.indexName},
		c.es.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("check index exists: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	// Status 200 means the index exists.
	if res.StatusCode == 200 {
		c.logger.Debug("elasticsearch index already exists", "index", c.indexName)
		return nil
	}

	mapping := buildIndexMapping()
	res, err = c.es.Indices.Create(
		c.indexName,
		c.es.Indices.Create.WithBody(strings.NewReader(mapping)),
		c.es.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		var errResp esErrorResponse
		if decErr := json.NewDecoder(res.Body).Decode(&errResp); decErr == nil {
			return fmt.Errorf("create index: %s: %s", errResp.Error.Type, errResp.Error.Reason)
		}
		return fmt.Errorf("create index: unexpected status %s", res.Status())
	}

	c.logger.Info("elasticsearch index created", "index", c.indexName)
	return nil
}

// Upsert adds or replaces a single document. The document id is the index
// primary key, so repeated upserts never create duplicates.
func (c *Client) Upsert(ctx context.Context, doc index.Document) error {
	ctx, cancel := c.callContext(ctx)
	defer cancel()

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("elasticsearch upsert: marshal document: %w", err)
	}

	res, err := c.es.Index(
		c.indexName,
		bytes.NewReader(data),
		c.es.Index.WithDocumentID(doc.ID),
		c.es.Index.WithRefresh("true"),
		c.es.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch upsert: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		var errResp esErrorResponse
		if decErr := json.NewDecoder(res.Body).Decode(&errResp); decErr == nil {
			return fmt.Errorf("elasticsearch upsert: %s: %s", errResp.Error.Type, errResp.Error.Reason)
		}
		return fmt.Errorf("elasticsearch upsert: unexpected status %s", res.Status())
	}

	c.logger.Debug("upserted document", "id", doc.ID, "title", doc.Title)
	return nil
}

// Delete removes a document by its ID. A 404 is ignored — the document might
// never have been propagated.
func (c *Client) Delete(ctx context.Context, id string) error {
	ctx, cancel := c.callContext(ctx)
	defer cancel()

	res, err := c.es.Delete(
		c.indexName,
		id,
		c.es.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch delete: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() && res.StatusCode != 404 {
		var errResp esErrorResponse
		if decErr := json.NewDecoder(res.Body).Decode(&errResp); decErr == nil {
			return fmt.Errorf("elasticsearch delete: %s: %s", errResp.Error.Type, errResp.Error.Reason)
		}
		return fmt.Errorf("elasticsearch delete: unexpected status %s", res.Status())
	}

	c.logger.Debug("deleted document", "id", id)
	return nil
}

// Search executes a ranked query against Elasticsearch.
func (c *Client) Search(ctx context.Context, query *index.Query) (*index.Result, error) {
	ctx, cancel := c.callContext(ctx)
	defer cancel()

	page := query.Page
	if page < 1 {
		page = 1
	}
	perPage := query.PerPage
	if perPage < 1 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}

	esQuery := c.buildSearchQuery(query, page, perPage)

	data, err := json.Marshal(esQuery)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search: marshal query: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithIndex(c.indexName),
		c.es.Search.WithBody(bytes.NewReader(data)),
		c.es.Search.WithContext(ctx),
		c.es.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		var errResp esErrorResponse
		if decErr := json.NewDecoder(res.Body).Decode(&errResp); decErr == nil {
			return nil, fmt.Errorf("elasticsearch search: %s: %s", errResp.Error.Type, errResp.Error.Reason)
		}
		return nil, fmt.Errorf("elasticsearch search: unexpected status %s", res.Status())
	}

	var esResp esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&esResp); err != nil {
		return nil, fmt.Errorf("elasticsearch search: decode response: %w", err)
	}

	hits := make([]index.Hit, 0, len(esResp.Hits.Hits))
	for _, hit := range esResp.Hits.Hits {
		hits = append(hits, index.Hit{
			ID:       hit.Source.ID,
			Score:    hit.Score,
			Document: hit.Source,
		})
	}

	return &index.Result{
		Hits:    hits,
		Total:   esResp.Hits.Total.Value,
		Page:    page,
		PerPage: perPage,
		TookMs:  int64(esResp.Took),
	}, nil
}

// buildSearchQuery constructs the Elasticsearch query DSL as a map.
func (c *Client) buildSearchQuery(query *index.Query, page, perPage int) map[string]any {
	var mustClause any
	if query.Text != "" {
		mustClause = map[string]any{
			"multi_match": map[string]any{
				"query":  query.Text,
				"fields": []string{"title^3", "description", "categories"},
				"type":   "best_fields",
			},
		}
	} else {
		mustClause = map[string]any{
			"match_all": map[string]any{},
		}
	}

	filters := c.buildFilters(query)

	boolQuery := map[string]any{
		"must": []any{mustClause},
	}
	if len(filters) > 0 {
		boolQuery["filter"] = filters
	}

	sortClause := c.buildSort(query.SortBy)

	esQuery := map[string]any{
		"query": map[string]any{
			"bool": boolQuery,
		},
		"from":             (page - 1) * perPage,
		"size":             perPage,
		"track_total_hits": true,
	}

	if sortClause != nil {
		esQuery["sort"] = sortClause
	}

	return esQuery
}

// buildFilters constructs the filter clauses based on the search query.
func (c *Client) buildFilters(query *index.Query) []any {
	var filters []any

	if query.Category != nil {
		filters = append(filters, map[string]any{
			"term": map[string]any{
				"categories": *query.Category,
			},
		})
	}

	if query.Size != nil {
		filters = append(filters, map[string]any{
			"term": map[string]any{
				"size": *query.Size,
			},
		})
	}

	if query.Color != nil {
		filters = append(filters, map[string]any{
			"term": map[string]any{
				"color": *query.Color,
			},
		})
	}

	if query.MinPrice != nil || query.MaxPrice != nil {
		rangeFilter := map[string]any{}
		if query.MinPrice != nil {
			rangeFilter["gte"] = *query.MinPrice
		}
		if query.MaxPrice != nil {
			rangeFilter["lte"] = *query.MaxPrice
		}
		filters = append(filters, map[string]any{
			"range": map[string]any{
				"price_cents": rangeFilter,
			},
		})
	}

	return filters
}

// buildSort constructs the sort clause based on the sort option.
func (c *Client) buildSort(sortBy string) []any {
	switch sortBy {
	case index.SortPriceAsc:
		return []any{
			map[string]any{"price_cents": "asc"},
		}
	case index.SortPriceDesc:
		return []any{
			map[string]any{"price_cents": "desc"},
		}
	case index.SortNewest:
		return []any{
			map[string]any{"created_at": "desc"},
		}
	default:
		// SortRelevance: default engine scoring.
		return []any{
			map[string]any{"_score": "desc"},
		}
	}
}

// BulkUpsert adds or replaces multiple documents using the bulk NDJSON API.
func (c *Client) BulkUpsert(ctx context.Context, docs []index.Document) error {
	if len(docs) == 0 {
		return nil
	}

	ctx, cancel := c.callContext(ctx)
	defer cancel()

	var buf bytes.Buffer

	for i := range docs {
		// Action line.
		action := map[string]any{
			"index": map[string]any{
				"_index": c.indexName,
				"_id":    docs[i].ID,
			},
		}
		if err := json.NewEncoder(&buf).Encode(action); err != nil {
			return fmt.Errorf("elasticsearch bulk upsert: encode action: %w", err)
		}

		// Document line.
		if err := json.NewEncoder(&buf).Encode(docs[i]); err != nil {
			return fmt.Errorf("elasticsearch bulk upsert: encode document: %w", err)
		}
	}

	res, err := c.es.Bulk(
		bytes.NewReader(buf.Bytes()),
		c.es.Bulk.WithIndex(c.indexName),
		c.es.Bulk.WithRefresh("true"),
		c.es.Bulk.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch bulk upsert: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		var errResp esErrorResponse
		if decErr := json.NewDecoder(res.Body).Decode(&errResp); decErr == nil {
			return fmt.Errorf("elasticsearch bulk upsert: %s: %s", errResp.Error.Type, errResp.Error.Reason)
		}
		return fmt.Errorf("elasticsearch bulk upsert: unexpected status %s", res.Status())
	}

	var bulkResp esBulkResponse
	if err := json.NewDecoder(res.Body).Decode(&bulkResp); err != nil {
		return fmt.Errorf("elasticsearch bulk upsert: decode response: %w", err)
	}

	if bulkResp.Errors {
		var errMsgs []string
		for _, item := range bulkResp.Items {
			if item.Index.Error.Type != "" {
				errMsgs = append(errMsgs, fmt.Sprintf("id=%s: %s: %s", item.Index.ID, item.Index.Error.Type, item.Index.Error.Reason))
			}
		}
		return fmt.Errorf("elasticsearch bulk upsert: partial errors: %s", strings.Join(errMsgs, "; "))
	}

	c.logger.Info("bulk upserted documents", "count", len(docs))
	return nil
}

// DeleteIndex removes the entire Elasticsearch index. A 404 response is
// treated as success (index already absent). This is the only supported path
// for schema changes: drop, then reconcile from the catalog.
func (c *Client) DeleteIndex(ctx context.Context) error {
	ctx, cancel := c.callContext(ctx)
	defer cancel()

	res, err := c.es.Indices.Delete(
		[]string{c.indexName},
		c.es.Indices.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch delete index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() && res.StatusCode != 404 {
		var errResp esErrorResponse
		if decErr := json.NewDecoder(res.Body).Decode(&errResp); decErr == nil {
			return fmt.Errorf("elasticsearch delete index: %s: %s", errResp.Error.Type, errResp.Error.Reason)
		}
		return fmt.Errorf("elasticsearch delete index: unexpected status %s", res.Status())
	}

	c.logger.Info("elasticsearch index deleted", "index", c.indexName)
	return nil
}
