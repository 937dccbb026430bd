package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"compucobano/internal/domain"

	"github.com/jackc/pgx/v5"
)

var (
	ErrProductNotFound = errors.New("product not found")
)

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) (*domain.Product, error)
	Update(ctx context.Context, id string, changes domain.ProductChanges) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context, query domain.ProductQuery) ([]*domain.Product, int, error)
	Stats(ctx context.Context) (domain.Stats, error)
}

type productRepository struct {
	db DBTX
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db DBTX) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `id, categoria_id, nombre, COALESCE(descripcion, ''), precio, stock, foto`

func scanProduct(row pgx.Row) (*domain.Product, error) {
	product := &domain.Product{}
	err := row.Scan(
		&product.ID,
		&product.CategoryID,
		&product.Name,
		&product.Description,
		&product.Price,
		&product.Stock,
		&product.Images,
	)
	if err != nil {
		return nil, err
	}
	if product.Images == nil {
		product.Images = []string{}
	}
	return product, nil
}

// Create inserts a product and returns the stored row.
func (r *productRepository) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	images := product.Images
	if images == nil {
		images = []string{}
	}

	row := r.db.QueryRow(ctx, `
		INSERT INTO productos (id, categoria_id, nombre, descripcion, precio, stock, foto)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+productColumns,
		product.ID,
		product.CategoryID,
		product.Name,
		product.Description,
		product.Price,
		product.Stock,
		images,
	)

	created, err := scanProduct(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", translate(err))
	}

	return created, nil
}

// Update writes the present columns of changes. Images replaces the whole list.
func (r *productRepository) Update(ctx context.Context, id string, changes domain.ProductChanges) (*domain.Product, error) {
	var set setClause
	if changes.Name != nil {
		set.add("nombre", *changes.Name)
	}
	if changes.CategoryID != nil {
		set.add("categoria_id", *changes.CategoryID)
	}
	if changes.Description != nil {
		set.add("descripcion", *changes.Description)
	}
	if changes.Price != nil {
		set.add("precio", *changes.Price)
	}
	if changes.Stock != nil {
		set.add("stock", *changes.Stock)
	}
	if changes.Images != nil {
		images := *changes.Images
		if images == nil {
			images = []string{}
		}
		set.add("foto", images)
	}
	if set.empty() {
		return nil, errors.New("update product: no columns to update")
	}

	assignments, args, keyIndex := set.build(id)
	query := fmt.Sprintf(`
		UPDATE productos
		SET %s
		WHERE id = $%d
		RETURNING %s
	`, assignments, keyIndex, productColumns)

	updated, err := scanProduct(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to update product: %w", translate(err))
	}

	return updated, nil
}

// Delete removes a product by id.
func (r *productRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM productos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", translate(err))
	}

	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}

	return nil
}

// FindByID retrieves a product by its caller-chosen id.
func (r *productRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	row := r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM productos WHERE id = $1`, id)

	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// List returns one window of products plus the exact size of the filtered set.
func (r *productRepository) List(ctx context.Context, q domain.ProductQuery) ([]*domain.Product, int, error) {
	whereClause, args := productWhere(q)

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM productos %s", whereClause)
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	argIndex := len(args) + 1
	query := fmt.Sprintf(`
		SELECT %s
		FROM productos
		%s
		ORDER BY %s
		LIMIT $%d OFFSET $%d
	`, productColumns, whereClause, productOrder(q.SortBy, q.SortOrder), argIndex, argIndex+1)

	args = append(args, q.Limit, q.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating products: %w", err)
	}

	return products, total, nil
}

// Stats aggregates the product side of the admin dashboard.
// TotalCategories is left to the category repository.
func (r *productRepository) Stats(ctx context.Context) (domain.Stats, error) {
	var stats domain.Stats
	err := r.db.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(stock), 0),
			COUNT(*) FILTER (WHERE stock = 0)
		FROM productos
	`).Scan(&stats.TotalProducts, &stats.TotalStock, &stats.OutOfStock)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("failed to aggregate product stats: %w", err)
	}
	return stats, nil
}

func productWhere(q domain.ProductQuery) (string, []any) {
	var conditions []string
	var args []any

	if q.CategoryIDs != nil {
		args = append(args, q.CategoryIDs)
		conditions = append(conditions, fmt.Sprintf("categoria_id = ANY($%d)", len(args)))
	}

	if q.Search != "" {
		args = append(args, "%"+escapeLike(q.Search)+"%")
		conditions = append(conditions, fmt.Sprintf(`nombre ILIKE $%d ESCAPE '\'`, len(args)))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

// productOrder never interpolates user text: every branch is a constant.
// id breaks ties so offset windows never overlap.
func productOrder(field domain.SortField, order domain.SortOrder) string {
	direction := "ASC"
	if order == domain.SortDesc {
		direction = "DESC"
	}

	switch field {
	case domain.SortByPrice:
		return "precio " + direction + " NULLS LAST, id ASC"
	case domain.SortByDate:
		return "id " + direction
	default:
		return "nombre " + direction + ", id ASC"
	}
}
