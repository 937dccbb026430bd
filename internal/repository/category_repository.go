package repository

import (
	"context"
	"errors"
	"fmt"

	"compucobano/internal/domain"

	"github.com/jackc/pgx/v5"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
)

// CategoryRepository defines the interface for category data access
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) (*domain.Category, error)
	Update(ctx context.Context, id int64, changes domain.CategoryChanges) (*domain.Category, error)
	Delete(ctx context.Context, id int64) error
	ListWithCounts(ctx context.Context) ([]*domain.CategoryCount, error)
	Count(ctx context.Context) (int, error)
}

type categoryRepository struct {
	db DBTX
}

// NewCategoryRepository creates a new instance of CategoryRepository
func NewCategoryRepository(db DBTX) CategoryRepository {
	return &categoryRepository{db: db}
}

const categoryColumns = `id, nombre, COALESCE(descripcion, '')`

// Create inserts a category. A zero ID lets the sequence assign one; an
// explicit ID moves the sequence past it so later inserts do not collide.
func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	created := &domain.Category{}

	if category.ID != 0 {
		var sequence int64
		err := r.db.QueryRow(ctx, `
			WITH inserted AS (
				INSERT INTO categorias (id, nombre, descripcion)
				VALUES ($1, $2, $3)
				RETURNING `+categoryColumns+`
			)
			SELECT inserted.*, setval(
				pg_get_serial_sequence('categorias', 'id'),
				GREATEST(inserted.id, pg_sequence_last_value(pg_get_serial_sequence('categorias', 'id')::regclass))
			)
			FROM inserted`,
			category.ID, category.Name, category.Description,
		).Scan(&created.ID, &created.Name, &created.Description, &sequence)
		if err != nil {
			return nil, fmt.Errorf("failed to create category: %w", translate(err))
		}
		return created, nil
	}

	row := r.db.QueryRow(ctx, `
		INSERT INTO categorias (nombre, descripcion)
		VALUES ($1, $2)
		RETURNING `+categoryColumns,
		category.Name, category.Description,
	)
	if err := row.Scan(&created.ID, &created.Name, &created.Description); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", translate(err))
	}

	return created, nil
}

// Update writes the present columns and returns the stored row.
func (r *categoryRepository) Update(ctx context.Context, id int64, changes domain.CategoryChanges) (*domain.Category, error) {
	var set setClause
	if changes.Name != nil {
		set.add("nombre", *changes.Name)
	}
	if changes.Description != nil {
		set.add("descripcion", *changes.Description)
	}
	if set.empty() {
		return nil, errors.New("update category: no columns to update")
	}

	assignments, args, keyIndex := set.build(id)
	query := fmt.Sprintf(`
		UPDATE categorias
		SET %s
		WHERE id = $%d
		RETURNING %s
	`, assignments, keyIndex, categoryColumns)

	updated := &domain.Category{}
	err := r.db.QueryRow(ctx, query, args...).Scan(&updated.ID, &updated.Name, &updated.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to update category: %w", translate(err))
	}

	return updated, nil
}

// Delete removes a category. The productos foreign key rejects the delete
// while any product still references it.
func (r *categoryRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM categorias WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", translate(err))
	}

	if tag.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}

	return nil
}

// ListWithCounts returns every category alphabetically with its product count.
func (r *categoryRepository) ListWithCounts(ctx context.Context) ([]*domain.CategoryCount, error) {
	query := `
		SELECT c.id, c.nombre, COALESCE(c.descripcion, ''), COUNT(p.id)
		FROM categorias c
		LEFT JOIN productos p ON p.categoria_id = c.id
		GROUP BY c.id, c.nombre, c.descripcion
		ORDER BY c.nombre ASC, c.id ASC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []*domain.CategoryCount{}
	for rows.Next() {
		category := &domain.CategoryCount{}
		err := rows.Scan(
			&category.ID,
			&category.Name,
			&category.Description,
			&category.ProductCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

func (r *categoryRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM categorias`).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count categories: %w", err)
	}
	return total, nil
}
