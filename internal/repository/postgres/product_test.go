package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopfra/catalogsync/internal/domain"
	"github.com/shopfra/catalogsync/internal/repository"
	"github.com/shopfra/catalogsync/pkg/database"
	apperrors "github.com/shopfra/catalogsync/pkg/errors"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	return mock
}

func strPtr(s string) *string { return &s }
func int64Ptr(n int64) *int64 { return &n }

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

var testProductColumns = []string{
	"id", "title", "description", "image_url", "categories",
	"size", "color", "price_cents", "created_at", "updated_at",
}

var testProductColumnsWithCount = []string{
	"id", "title", "description", "image_url", "categories",
	"size", "color", "price_cents", "created_at", "updated_at",
	"total_count",
}

func sampleProduct() domain.Product {
	return domain.Product{
		ID:          "prod-1",
		Title:       "Zip Hoodie",
		Description: "A warm fleece hoodie",
		ImageURL:    "https://cdn.example.com/hoodie.jpg",
		Categories:  []string{"apparel", "outerwear"},
		Size:        "M",
		Color:       "navy",
		PriceCents:  5999,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func productRow(p domain.Product) []any {
	return []any{
		p.ID, p.Title, p.Description, p.ImageURL, p.Categories,
		p.Size, p.Color, p.PriceCents, p.CreatedAt, p.UpdatedAt,
	}
}

func TestProductRepository_Create_Success(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewProductRepository(mock)

	p := sampleProduct()

	mock.ExpectExec("INSERT INTO products").
		WithArgs(
			p.ID, p.Title, p.Description, p.ImageURL, p.Categories,
			p.Size, p.Color, p.PriceCents, p.CreatedAt, p.UpdatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), &p)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Create_UniqueViolation(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewProductRepository(mock)

	p := sampleProduct()

	mock.ExpectExec("INSERT INTO products").
		WithArgs(
			p.ID, p.Title, p.Description, p.ImageURL, p.Categories,
			p.Size, p.Color, p.PriceCents, p.CreatedAt, p.UpdatedAt,
		).
		WillReturnError(errors.New("ERROR: duplicate key value violates unique constraint (SQLSTATE 23505)"))

	err := repo.Create(context.Background(), &p)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_GetByID_Success(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewProductRepository(mock)

	p := sampleProduct()
	mock.ExpectQuery("SELECT .+ FROM products WHERE id").
		WithArgs(p.ID).
		WillReturnRows(
			pgxmock.NewRows(testProductColumns).AddRow(productRow(p)...),
		)

	result, err := repo.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, result.ID)
	assert.Equal(t, p.Title, result.Title)
	assert.Equal(t, p.Categories, result.Categories)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_GetByID_NotFound(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewProductRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM products WHERE id").
		WithArgs("missing-id").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing-id")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_List_Success(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewProductRepository(mock)

	p := sampleProduct()
	row := append(productRow(p), 1) // total_count = 1

	filter := repository.ProductFilter{
		Page:    1,
		PerPage: 20,
	}

	mock.ExpectQuery("SELECT .+ FROM products").
		WithArgs(20, 0). // limit, offset
		WillReturnRows(
			pgxmock.NewRows(testProductColumnsWithCount).AddRow(row...),
		)

	products, total, err := repo.List(context.Background(), filter)
	require.NoError(t, err)
	assert.Len(t, products, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, p.ID, products[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_List_WithFilters(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewProductRepository(mock)

	p := sampleProduct()
	row := append(productRow(p), 1)

	filter := repository.ProductFilter{
		Category: strPtr("apparel"),
		Color:    strPtr("navy"),
		MinPrice: int64Ptr(5000),
		Page:     1,
		PerPage:  10,
	}

	// $1 = ANY(categories), color=$2, price_cents>=$3, LIMIT $4 OFFSET $5
	mock.ExpectQuery("SELECT .+ FROM products").
		WithArgs("apparel", "navy", int64(5000), 10, 0).
		WillReturnRows(
			pgxmock.NewRows(testProductColumnsWithCount).AddRow(row...),
		)

	products, total, err := repo.List(context.Background(), filter)
	require.NoError(t, err)
	assert.Len(t, products, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_List_Empty(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewProductRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM products").
		WithArgs(20, 0).
		WillReturnRows(pgxmock.NewRows(testProductColumnsWithCount))

	products, total, err := repo.List(context.Background(), repository.ProductFilter{Page: 1, PerPage: 20})
	require.NoError(t, err)
	assert.NotNil(t, products)
	assert.Empty(t, products)
	assert.Equal(t, 0, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_ListFrom_OrdersByID(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewProductRepository(mock)

	p1 := sampleProduct()
	p2 := sampleProduct()
	p2.ID = "prod-2"

	mock.ExpectQuery("SELECT .+ FROM products WHERE id > .+ ORDER BY id").
		WithArgs("prod-0", 100).
		WillReturnRows(
			pgxmock.NewRows(testProductColumns).
				AddRow(productRow(p1)...).
				AddRow(productRow(p2)...),
		)

	products, err := repo.ListFrom(context.Background(), "prod-0", 100)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "prod-1", products[0].ID)
	assert.Equal(t, "prod-2", products[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_ListFrom_Exhausted(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewProductRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM products WHERE id > .+ ORDER BY id").
		WithArgs("prod-999", 100).
		WillReturnRows(pgxmock.NewRows(testProductColumns))

	products, err := repo.ListFrom(context.Background(), "prod-999", 100)
	require.NoError(t, err)
	assert.Empty(t, products)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Update_Success(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewProductRepository(mock)

	p := sampleProduct()

	mock.ExpectExec("UPDATE products").
		WithArgs(
			p.Title, p.Description, p.ImageURL, p.Categories,
			p.Size, p.Color, p.PriceCents,
			pgxmock.AnyArg(), // updated_at is set inside Update
			p.ID,
		).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.Update(context.Background(), &p)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Update_NotFound(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewProductRepository(mock)

	p := sampleProduct()
	p.ID = "nonexistent-id"

	mock.ExpectExec("UPDATE products").
		WithArgs(
			p.Title, p.Description, p.ImageURL, p.Categories,
			p.Size, p.Color, p.PriceCents,
			pgxmock.AnyArg(),
			p.ID,
		).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.Update(context.Background(), &p)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Delete_Success(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewProductRepository(mock)

	mock.ExpectExec("DELETE FROM products WHERE").
		WithArgs("prod-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := repo.Delete(context.Background(), "prod-1")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Delete_NotFound(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewProductRepository(mock)

	mock.ExpectExec("DELETE FROM products WHERE").
		WithArgs("missing-id").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.Delete(context.Background(), "missing-id")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
