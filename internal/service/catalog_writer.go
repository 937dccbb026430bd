package service

import (
	"context"
	"errors"
	"math"
	"strings"

	"compucobano/internal/domain"
	"compucobano/internal/repository"

	"go.uber.org/zap"
)

// CatalogWriter defines the validated admin mutations.
type CatalogWriter interface {
	CreateProduct(ctx context.Context, input domain.ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	CreateCategory(ctx context.Context, input domain.CategoryInput) (*domain.Category, error)
	UpdateCategory(ctx context.Context, id int64, patch domain.CategoryPatch) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
}

type catalogWriter struct {
	categories repository.CategoryRepository
	products   repository.ProductRepository
	logger     *zap.Logger
}

// NewCatalogWriter creates a new instance of CatalogWriter
func NewCatalogWriter(
	categories repository.CategoryRepository,
	products repository.ProductRepository,
	logger *zap.Logger,
) CatalogWriter {
	return &catalogWriter{
		categories: categories,
		products:   products,
		logger:     logger,
	}
}

// CreateProduct validates a form submission and inserts it.
func (w *catalogWriter) CreateProduct(ctx context.Context, input domain.ProductInput) (*domain.Product, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, domain.NewValidationError("id", "product id is required")
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.NewValidationError("nombre", "product name is required")
	}

	categoryID, err := parseCategoryID(input.CategoryID)
	if err != nil {
		return nil, err
	}

	price, err := parsePrice(input.Price)
	if err != nil {
		return nil, err
	}

	stock, err := parseStock(input.Stock)
	if err != nil {
		return nil, err
	}

	images, err := cleanImages(input.Images)
	if err != nil {
		return nil, err
	}

	product, err := w.products.Create(ctx, &domain.Product{
		ID:          id,
		CategoryID:  &categoryID,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Price:       &price,
		Stock:       stock,
		Images:      images,
	})
	if err != nil {
		return nil, w.classify("create_product", err, false)
	}

	w.logger.Info("Product created", zap.String("product_id", product.ID))
	return product, nil
}

// UpdateProduct applies the present fields of patch. The id is only the
// lookup key and is never written.
func (w *catalogWriter) UpdateProduct(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.NewValidationError("id", "product id is required")
	}

	var changes domain.ProductChanges

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, domain.NewValidationError("nombre", "product name cannot be empty")
		}
		changes.Name = &name
	}

	if patch.CategoryID.Present {
		if patch.CategoryID.Value.Blank() {
			return nil, domain.NewValidationError("categoria_id", "category cannot be cleared")
		}
		categoryID, err := parseCategoryID(patch.CategoryID.Value)
		if err != nil {
			return nil, err
		}
		changes.CategoryID = &categoryID
	}

	if patch.Description != nil {
		description := strings.TrimSpace(*patch.Description)
		changes.Description = &description
	}

	if patch.Price != nil {
		price, err := parsePrice(*patch.Price)
		if err != nil {
			return nil, err
		}
		changes.Price = &price
	}

	if patch.Stock != nil {
		stock, err := parseStock(*patch.Stock)
		if err != nil {
			return nil, err
		}
		changes.Stock = &stock
	}

	if patch.Images != nil {
		images, err := cleanImages(*patch.Images)
		if err != nil {
			return nil, err
		}
		changes.Images = &images
	}

	if changes.Empty() {
		return nil, domain.NewValidationError("data", "no fields to update")
	}

	product, err := w.products.Update(ctx, id, changes)
	if err != nil {
		return nil, w.classify("update_product", err, false)
	}

	w.logger.Info("Product updated", zap.String("product_id", product.ID))
	return product, nil
}

// DeleteProduct removes a product. A missing id is reported as NotFound.
func (w *catalogWriter) DeleteProduct(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.NewValidationError("id", "product id is required")
	}

	if err := w.products.Delete(ctx, id); err != nil {
		return w.classify("delete_product", err, false)
	}

	w.logger.Info("Product deleted", zap.String("product_id", id))
	return nil
}

// CreateCategory validates and inserts a category. The store assigns the id
// unless the caller supplied one.
func (w *catalogWriter) CreateCategory(ctx context.Context, input domain.CategoryInput) (*domain.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.NewValidationError("nombre", "category name is required")
	}

	category := &domain.Category{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
	}
	if input.ID != nil {
		if *input.ID <= 0 {
			return nil, domain.NewValidationError("id", "category id must be a positive integer")
		}
		category.ID = *input.ID
	}

	created, err := w.categories.Create(ctx, category)
	if err != nil {
		return nil, w.classify("create_category", err, false)
	}

	w.logger.Info("Category created", zap.Int64("category_id", created.ID))
	return created, nil
}

// UpdateCategory applies the present fields of patch.
func (w *catalogWriter) UpdateCategory(ctx context.Context, id int64, patch domain.CategoryPatch) (*domain.Category, error) {
	if id <= 0 {
		return nil, domain.NewValidationError("id", "category id must be a positive integer")
	}

	var changes domain.CategoryChanges
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, domain.NewValidationError("nombre", "category name cannot be empty")
		}
		changes.Name = &name
	}
	if patch.Description != nil {
		description := strings.TrimSpace(*patch.Description)
		changes.Description = &description
	}
	if changes.Empty() {
		return nil, domain.NewValidationError("data", "no fields to update")
	}

	updated, err := w.categories.Update(ctx, id, changes)
	if err != nil {
		return nil, w.classify("update_category", err, false)
	}

	w.logger.Info("Category updated", zap.Int64("category_id", updated.ID))
	return updated, nil
}

// DeleteCategory removes a category nobody references. The foreign key on
// productos rejects the delete otherwise.
func (w *catalogWriter) DeleteCategory(ctx context.Context, id int64) error {
	if id <= 0 {
		return domain.NewValidationError("id", "category id must be a positive integer")
	}

	if err := w.categories.Delete(ctx, id); err != nil {
		return w.classify("delete_category", err, true)
	}

	w.logger.Info("Category deleted", zap.Int64("category_id", id))
	return nil
}

// classify maps repository failures onto domain kinds. A foreign key
// violation means a dangling reference on writes and a blocked delete when
// the row being removed is the referenced one.
func (w *catalogWriter) classify(op string, err error, referencedDelete bool) error {
	switch {
	case errors.Is(err, repository.ErrDuplicateKey):
		return domain.Wrap(domain.KindDuplicateKey, err)
	case errors.Is(err, repository.ErrForeignKeyViolation):
		if referencedDelete {
			return domain.Wrap(domain.KindReferentialConflict, err)
		}
		return domain.Wrap(domain.KindInvalidReference, err)
	case errors.Is(err, repository.ErrProductNotFound), errors.Is(err, repository.ErrCategoryNotFound):
		return domain.Wrap(domain.KindNotFound, err)
	default:
		w.logger.Error("Catalog mutation failed", zap.String("op", op), zap.Error(err))
		return domain.Wrap(domain.KindInternal, err)
	}
}

func parseCategoryID(raw domain.Scalar) (int64, error) {
	if raw.Blank() {
		return 0, domain.NewValidationError("categoria_id", "category is required")
	}
	id, err := raw.Int()
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError("categoria_id", "category must be a positive integer")
	}
	return id, nil
}

// maxPrice is the first value precio NUMERIC(12,2) cannot hold.
const maxPrice = 1e10

// parsePrice treats blank as 0 and clamps negatives. Text that is not a
// number, or a price the column cannot store, rejects the mutation.
func parsePrice(raw domain.Scalar) (float64, error) {
	if raw.Blank() {
		return 0, nil
	}
	price, err := raw.Float()
	if err != nil {
		return 0, domain.NewValidationError("precio", err.Error())
	}
	// the column rounds to cents before checking its precision
	if math.Round(price*100)/100 >= maxPrice {
		return 0, domain.NewValidationError("precio", "price is too large")
	}
	return math.Max(price, 0), nil
}

// parseStock follows parsePrice and truncates toward zero.
func parseStock(raw domain.Scalar) (int, error) {
	if raw.Blank() {
		return 0, nil
	}
	stock, err := raw.Float()
	if err != nil {
		return 0, domain.NewValidationError("stock", err.Error())
	}
	if stock > math.MaxInt32 {
		return 0, domain.NewValidationError("stock", "stock is too large")
	}
	return int(math.Max(math.Trunc(stock), 0)), nil
}

// cleanImages keeps order and rejects blank entries. URLs are not fetched.
func cleanImages(images []string) ([]string, error) {
	cleaned := make([]string, 0, len(images))
	for _, image := range images {
		if strings.TrimSpace(image) == "" {
			return nil, domain.NewValidationError("foto", "image URLs cannot be blank")
		}
		cleaned = append(cleaned, image)
	}
	return cleaned, nil
}
