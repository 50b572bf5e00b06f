package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopfra/catalogsync/internal/index"
)

// Index is an in-memory implementation of the index.Indexer interface used in
// tests and local development. It performs simple token matching on title,
// description, and categories. Thread-safe via sync.RWMutex.
type Index struct {
	mu      sync.RWMutex
	docs    map[string]index.Document
	ensures int
}

// New creates a new in-memory index.
func New() *Index {
	return &Index{
		docs: make(map[string]index.Document),
	}
}

// EnsureIndex is a no-op for the in-memory engine; it only records the call.
func (ix *Index) EnsureIndex(_ context.Context) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.ensures++
	return nil
}

// Ensures returns how many times EnsureIndex has been called.
func (ix *Index) Ensures() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.ensures
}

// Upsert adds or replaces a single document.
func (ix *Index) Upsert(_ context.Context, doc index.Document) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.docs[doc.ID] = doc
	return nil
}

// Delete removes a document by its ID. Deleting an absent document is not an error.
func (ix *Index) Delete(_ context.Context, id string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	delete(ix.docs, id)
	return nil
}

// Get returns the stored document and whether it exists. Test helper.
func (ix *Index) Get(id string) (index.Document, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	doc, ok := ix.docs[id]
	return doc, ok
}

// Len returns the number of stored documents. Test helper.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docs)
}

// Search executes a query against the in-memory index.
func (ix *Index) Search(_ context.Context, query *index.Query) (*index.Result, error) {
	start := time.Now()

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	tokens := strings.Fields(strings.ToLower(query.Text))

	hits := make([]index.Hit, 0)
	for _, doc := range ix.docs {
		score, ok := ix.match(doc, query, tokens)
		if !ok {
			continue
		}
		hits = append(hits, index.Hit{ID: doc.ID, Score: score, Document: doc})
	}

	ix.sortHits(hits, query.SortBy)

	total := len(hits)

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

	offset := (page - 1) * perPage
	if offset > total {
		offset = total
	}
	end := offset + perPage
	if end > total {
		end = total
	}

	return &index.Result{
		Hits:    hits[offset:end],
		Total:   total,
		Page:    page,
		PerPage: perPage,
		TookMs:  time.Since(start).Milliseconds(),
	}, nil
}

// BulkUpsert adds or replaces multiple documents.
func (ix *Index) BulkUpsert(_ context.Context, docs []index.Document) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	for i := range docs {
		ix.docs[docs[i].ID] = docs[i]
	}
	return nil
}

// DeleteIndex drops all documents.
func (ix *Index) DeleteIndex(_ context.Context) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.docs = make(map[string]index.Document)
	return nil
}

// Ping always succeeds for the in-memory engine.
func (ix *Index) Ping(_ context.Context) error {
	return nil
}

// match checks filters and text tokens against a document. Every query token
// must appear in the title, description, or a category label. The returned
// score is a crude relevance proxy: title matches weigh double.
func (ix *Index) match(doc index.Document, query *index.Query, tokens []string) (float64, bool) {
	if query.Category != nil {
		found := false
		for _, c := range doc.Categories {
			if c == *query.Category {
				found = true
				break
			}
		}
		if !found {
			return 0, false
		}
	}
	if query.Size != nil && doc.Size != *query.Size {
		return 0, false
	}
	if query.Color != nil && doc.Color != *query.Color {
		return 0, false
	}
	if query.MinPrice != nil && doc.PriceCents < *query.MinPrice {
		return 0, false
	}
	if query.MaxPrice != nil && doc.PriceCents > *query.MaxPrice {
		return 0, false
	}

	if len(tokens) == 0 {
		return 1, true
	}

	title := strings.ToLower(doc.Title)
	desc := strings.ToLower(doc.Description)
	cats := strings.ToLower(strings.Join(doc.Categories, " "))

	var score float64
	for _, tok := range tokens {
		switch {
		case strings.Contains(title, tok):
			score += 2
		case strings.Contains(desc, tok), strings.Contains(cats, tok):
			score++
		default:
			return 0, false
		}
	}
	return score, true
}

// sortHits orders results by the requested sort option; relevance is the default.
func (ix *Index) sortHits(hits []index.Hit, sortBy string) {
	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		switch sortBy {
		case index.SortPriceAsc:
			return a.Document.PriceCents < b.Document.PriceCents
		case index.SortPriceDesc:
			return a.Document.PriceCents > b.Document.PriceCents
		case index.SortNewest:
			return a.Document.CreatedAt.After(b.Document.CreatedAt)
		default:
			if a.Score != b.Score {
				return a.Score > b.Score
			}
			// Stable tiebreak so pagination is deterministic.
			return a.ID < b.ID
		}
	})
}
