package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/shopfra/catalogsync/internal/domain"
	"github.com/shopfra/catalogsync/internal/repository"
	apperrors "github.com/shopfra/catalogsync/pkg/errors"
)

// Pool is the subset of pgxpool.Pool used by the repository. It is satisfied
// by both *pgxpool.Pool and pgxmock.PgxPoolIface.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ProductRepository implements repository.CatalogStore using PostgreSQL.
type ProductRepository struct {
	pool Pool
}

// NewProductRepository creates a new PostgreSQL-backed catalog store.
func NewProductRepository(pool Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

const productColumns = `id, title, description, image_url, categories, size, color, price_cents, created_at, updated_at`

// Create inserts a new product into the database.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	query := `
		INSERT INTO products (id, title, description, image_url, categories, size, color, price_cents, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.pool.Exec(ctx, query,
		p.ID,
		p.Title,
		p.Description,
		p.ImageURL,
		p.Categories,
		p.Size,
		p.Color,
		p.PriceCents,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("product", "id", p.ID)
		}
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}

// GetByID retrieves a product by its ID.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = $1`

	return r.scanProduct(ctx, query, id)
}

// List returns products matching the given filter with the total count.
func (r *ProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.Category != nil {
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(categories)", argIndex))
		args = append(args, *filter.Category)
		argIndex++
	}

	if filter.Size != nil {
		conditions = append(conditions, fmt.Sprintf("size = $%d", argIndex))
		args = append(args, *filter.Size)
		argIndex++
	}

	if filter.Color != nil {
		conditions = append(conditions, fmt.Sprintf("color = $%d", argIndex))
		args = append(args, *filter.Color)
		argIndex++
	}

	if filter.MinPrice != nil {
		conditions = append(conditions, fmt.Sprintf("price_cents >= $%d", argIndex))
		args = append(args, *filter.MinPrice)
		argIndex++
	}

	if filter.MaxPrice != nil {
		conditions = append(conditions, fmt.Sprintf("price_cents <= $%d", argIndex))
		args = append(args, *filter.MaxPrice)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Use count(*) OVER() for total count in a single query.
	query := fmt.Sprintf(`
		SELECT %s,
			   count(*) OVER() AS total_count
		FROM products
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		productColumns, whereClause, argIndex, argIndex+1,
	)

	limit := filter.PerPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}

	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var (
		products   []domain.Product
		totalCount int
	)

	for rows.Next() {
		var p domain.Product

		if err := rows.Scan(
			&p.ID,
			&p.Title,
			&p.Description,
			&p.ImageURL,
			&p.Categories,
			&p.Size,
			&p.Color,
			&p.PriceCents,
			&p.CreatedAt,
			&p.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan product row: %w", err)
		}

		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate product rows: %w", err)
	}

	if products == nil {
		products = []domain.Product{}
	}

	return products, totalCount, nil
}

// ListFrom returns up to limit products whose ID sorts strictly after afterID,
// in ascending ID order. An empty afterID starts from the beginning.
func (r *ProductRepository) ListFrom(ctx context.Context, afterID string, limit int) ([]domain.Product, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE id > $1
		ORDER BY id
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("list products from %q: %w", afterID, err)
	}
	defer rows.Close()

	var products []domain.Product

	for rows.Next() {
		var p domain.Product

		if err := rows.Scan(
			&p.ID,
			&p.Title,
			&p.Description,
			&p.ImageURL,
			&p.Categories,
			&p.Size,
			&p.Color,
			&p.PriceCents,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}

		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	return products, nil
}

// Update modifies an existing product. The stored row is replaced with the
// incoming snapshot regardless of which write happened first.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	p.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE products
		SET title = $1, description = $2, image_url = $3, categories = $4,
		    size = $5, color = $6, price_cents = $7, updated_at = $8
		WHERE id = $9`

	ct, err := r.pool.Exec(ctx, query,
		p.Title,
		p.Description,
		p.ImageURL,
		p.Categories,
		p.Size,
		p.Color,
		p.PriceCents,
		p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", p.ID)
	}

	return nil
}

// Delete removes a product from the database by its ID.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM products WHERE id = $1`

	ct, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", id)
	}

	return nil
}

// scanProduct is a helper that executes a query expected to return a single product row.
func (r *ProductRepository) scanProduct(ctx context.Context, query string, args ...any) (*domain.Product, error) {
	var p domain.Product

	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&p.ID,
		&p.Title,
		&p.Description,
		&p.ImageURL,
		&p.Categories,
		&p.Size,
		&p.Color,
		&p.PriceCents,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}

	return &p, nil
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
