package sync

import (
	"context"
	"fmt"
	"sort"
	stdsync "sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopfra/catalogsync/internal/domain"
	"github.com/shopfra/catalogsync/internal/index"
	"github.com/shopfra/catalogsync/internal/index/memory"
	"github.com/shopfra/catalogsync/internal/repository"
)

// memStore is an in-memory CatalogStore backing the reconciler tests.
type memStore struct {
	products []domain.Product
}

func newMemStore(products ...domain.Product) *memStore {
	s := &memStore{products: products}
	sort.Slice(s.products, func(i, j int) bool { return s.products[i].ID < s.products[j].ID })
	return s
}

func (s *memStore) Create(_ context.Context, p *domain.Product) error {
	s.products = append(s.products, *p)
	sort.Slice(s.products, func(i, j int) bool { return s.products[i].ID < s.products[j].ID })
	return nil
}

func (s *memStore) GetByID(_ context.Context, id string) (*domain.Product, error) {
	for i := range s.products {
		if s.products[i].ID == id {
			return &s.products[i], nil
		}
	}
	return nil, fmt.Errorf("product %s not found", id)
}

func (s *memStore) List(_ context.Context, _ repository.ProductFilter) ([]domain.Product, int, error) {
	return s.products, len(s.products), nil
}

func (s *memStore) ListFrom(_ context.Context, afterID string, limit int) ([]domain.Product, error) {
	var out []domain.Product
	for _, p := range s.products {
		if p.ID > afterID {
			out = append(out, p)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (s *memStore) Update(_ context.Context, p *domain.Product) error {
	for i := range s.products {
		if s.products[i].ID == p.ID {
			s.products[i] = *p
			return nil
		}
	}
	return fmt.Errorf("product %s not found", p.ID)
}

func (s *memStore) Delete(_ context.Context, id string) error {
	for i := range s.products {
		if s.products[i].ID == id {
			s.products = append(s.products[:i], s.products[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("product %s not found", id)
}

func docOfProduct(p *domain.Product) index.Document {
	return index.DocumentFromProduct(p)
}

func docOf(t *testing.T, store *memStore, id string) index.Document {
	t.Helper()
	p, err := store.GetByID(context.Background(), id)
	require.NoError(t, err)
	return index.DocumentFromProduct(p)
}

func storeProducts(n int) []domain.Product {
	products := make([]domain.Product, 0, n)
	for i := 0; i < n; i++ {
		p := testProduct(fmt.Sprintf("p%03d", i))
		products = append(products, *p)
	}
	return products
}

func TestReconciler_Run_RepairsDrift(t *testing.T) {
	store := newMemStore(storeProducts(5)...)
	ix := memory.New()

	// One product made it into the index before the outage, four did not.
	require.NoError(t, ix.Upsert(context.Background(), docOf(t, store, "p000")))

	rec := NewReconciler(store, ix, 2, testLogger())
	summary, err := rec.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, summary.Attempted)
	assert.Equal(t, 5, summary.Succeeded)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 5, ix.Len())
}

func TestReconciler_Run_Idempotent(t *testing.T) {
	store := newMemStore(storeProducts(3)...)
	ix := memory.New()
	rec := NewReconciler(store, ix, 10, testLogger())

	first, err := rec.Run(context.Background())
	require.NoError(t, err)
	second, err := rec.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 3, ix.Len())
}

func TestReconciler_Run_NeverDeletes(t *testing.T) {
	store := newMemStore(storeProducts(2)...)
	ix := memory.New()

	// An orphan document whose product was deleted while the index was down.
	orphan := testProduct("zzz-orphan")
	require.NoError(t, ix.Upsert(context.Background(), docOfProduct(orphan)))

	rec := NewReconciler(store, ix, 10, testLogger())
	_, err := rec.Run(context.Background())
	require.NoError(t, err)

	_, ok := ix.Get("zzz-orphan")
	assert.True(t, ok)
	assert.Equal(t, 3, ix.Len())
}

func TestReconciler_Run_ContinuesPastFailedDocument(t *testing.T) {
	store := newMemStore(storeProducts(4)...)
	flaky := &flakyIndexer{Index: memory.New(), failBulk: true, failUpsertID: "p001"}

	rec := NewReconciler(store, flaky, 2, testLogger())
	summary, err := rec.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, summary.Attempted)
	assert.Equal(t, 3, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)

	_, ok := flaky.Get("p001")
	assert.False(t, ok)
	_, ok = flaky.Get("p003")
	assert.True(t, ok)
}

func TestReconciler_Run_EnsureIndexFailureAborts(t *testing.T) {
	store := newMemStore(storeProducts(2)...)
	flaky := &flakyIndexer{Index: memory.New(), failEnsure: true}

	rec := NewReconciler(store, flaky, 10, testLogger())
	_, err := rec.Run(context.Background())
	require.Error(t, err)
}

func TestReconciler_Run_EmptyCatalog(t *testing.T) {
	store := newMemStore()
	ix := memory.New()

	rec := NewReconciler(store, ix, 10, testLogger())
	summary, err := rec.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Attempted)
	assert.Equal(t, 0, ix.Len())
}

func TestReconciler_Run_ConvergesAfterConcurrentUpdateAndDelete(t *testing.T) {
	ix := memory.New()
	coord := NewCoordinator(ix, testLogger())

	require.NoError(t, coord.Propagate(context.Background(), domain.CreatedEvent(testProduct("p1"))))

	updated := testProduct("p1")
	updated.Title = "Blue Hoodie"

	// An update and a delete for the same id race on the write path, so
	// either interleaving may leave its mark on the index.
	var wg stdsync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = coord.Propagate(context.Background(), domain.UpdatedEvent(updated))
	}()
	go func() {
		defer wg.Done()
		_ = coord.Propagate(context.Background(), domain.DeletedEvent("p1"))
	}()
	wg.Wait()

	// The catalog settled on the update. A single reconciliation pass brings
	// the index back to the catalog's state no matter which write won above.
	store := newMemStore(*updated)
	rec := NewReconciler(store, ix, 10, testLogger())
	summary, err := rec.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, summary.Succeeded)

	doc, ok := ix.Get("p1")
	require.True(t, ok)
	assert.Equal(t, "Blue Hoodie", doc.Title)
	assert.Equal(t, 1, ix.Len())
}

func TestReconciler_Run_CanceledContext(t *testing.T) {
	store := newMemStore(storeProducts(10)...)
	ix := memory.New()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := NewReconciler(store, ix, 2, testLogger())
	_, err := rec.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
