package service

import (
	"context"
	"errors"
	"fmt"

	"compucobano/internal/domain"
	"compucobano/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultPageSize = 24
	MaxPageSize     = 100
)

// FetchError describes a read that degraded to an empty result.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("catalog fetch %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// CatalogReader defines the storefront and admin read paths.
type CatalogReader interface {
	ListCategories(ctx context.Context) []domain.CategoryView
	ListProducts(ctx context.Context, filter domain.ProductFilter) domain.ProductPage
	ListProductsByCategoryIDs(ctx context.Context, ids []int64, filter domain.ProductFilter) domain.ProductPage
	GetProduct(ctx context.Context, id string) (*domain.ProductView, error)
	GetCategoryTree(ctx context.Context) domain.CategoryTree
	Stats(ctx context.Context) (domain.Stats, error)
	LoadStorefront(ctx context.Context, filter domain.ProductFilter) domain.StorefrontPage
	NormalizeFilter(filter domain.ProductFilter) domain.ProductFilter
}

type ReaderOption func(*catalogReader)

// WithFetchErrorHook installs a callback for every degraded read.
func WithFetchErrorHook(hook func(*FetchError)) ReaderOption {
	return func(r *catalogReader) {
		r.onFetchError = hook
	}
}

// WithPageSizes overrides the default and maximum page sizes.
// Non-positive values keep the built-in limits.
func WithPageSizes(defaultSize, maxSize int) ReaderOption {
	return func(r *catalogReader) {
		if defaultSize > 0 {
			r.defaultPageSize = defaultSize
		}
		if maxSize > 0 {
			r.maxPageSize = maxSize
		}
	}
}

type catalogReader struct {
	categories      repository.CategoryRepository
	products        repository.ProductRepository
	logger          *zap.Logger
	onFetchError    func(*FetchError)
	defaultPageSize int
	maxPageSize     int
}

// NewCatalogReader creates a new instance of CatalogReader
func NewCatalogReader(
	categories repository.CategoryRepository,
	products repository.ProductRepository,
	logger *zap.Logger,
	opts ...ReaderOption,
) CatalogReader {
	r := &catalogReader{
		categories:      categories,
		products:        products,
		logger:          logger,
		defaultPageSize: DefaultPageSize,
		maxPageSize:     MaxPageSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.defaultPageSize > r.maxPageSize {
		r.defaultPageSize = r.maxPageSize
	}
	return r
}

func (r *catalogReader) fetchFailed(op string, err error) {
	fe := &FetchError{Op: op, Err: err}
	r.logger.Error("Catalog read degraded to empty result",
		zap.String("op", op),
		zap.Error(err),
	)
	if r.onFetchError != nil {
		r.onFetchError(fe)
	}
}

// ListCategories returns every category alphabetically with its product count.
func (r *catalogReader) ListCategories(ctx context.Context) []domain.CategoryView {
	rows, err := r.categories.ListWithCounts(ctx)
	if err != nil {
		r.fetchFailed("list_categories", err)
		return []domain.CategoryView{}
	}

	views := make([]domain.CategoryView, 0, len(rows))
	for _, row := range rows {
		views = append(views, domain.NewCategoryView(row))
	}
	return views
}

// NormalizeFilter applies the page, limit and sort defaults.
func (r *catalogReader) NormalizeFilter(filter domain.ProductFilter) domain.ProductFilter {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = r.defaultPageSize
	}
	if filter.Limit > r.maxPageSize {
		filter.Limit = r.maxPageSize
	}
	filter.SortBy = domain.ParseSortField(string(filter.SortBy))
	filter.SortOrder = domain.ParseSortOrder(string(filter.SortOrder))
	return filter
}

func (r *catalogReader) query(filter domain.ProductFilter, ids []int64) domain.ProductQuery {
	filter = r.NormalizeFilter(filter)
	return domain.ProductQuery{
		CategoryIDs: ids,
		Search:      filter.SearchTerm,
		SortBy:      filter.SortBy,
		SortOrder:   filter.SortOrder,
		Limit:       filter.Limit,
		Offset:      filter.Offset(),
	}
}

// ListProducts returns one page of products. CategoryID restricts the set
// when present.
func (r *catalogReader) ListProducts(ctx context.Context, filter domain.ProductFilter) domain.ProductPage {
	var ids []int64
	if filter.CategoryID != nil {
		ids = []int64{*filter.CategoryID}
	}
	return r.list(ctx, "list_products", r.query(filter, ids))
}

// ListProductsByCategoryIDs restricts the listing to a set of categories.
// An empty set is answered without touching the store.
func (r *catalogReader) ListProductsByCategoryIDs(ctx context.Context, ids []int64, filter domain.ProductFilter) domain.ProductPage {
	if len(ids) == 0 {
		return emptyPage()
	}
	return r.list(ctx, "list_products_by_category_ids", r.query(filter, ids))
}

func (r *catalogReader) list(ctx context.Context, op string, q domain.ProductQuery) domain.ProductPage {
	rows, total, err := r.products.List(ctx, q)
	if err != nil {
		r.fetchFailed(op, err)
		return emptyPage()
	}

	views := make([]domain.ProductView, 0, len(rows))
	for _, row := range rows {
		views = append(views, domain.NewProductView(row))
	}
	return domain.ProductPage{Products: views, TotalCount: total}
}

func emptyPage() domain.ProductPage {
	return domain.ProductPage{Products: []domain.ProductView{}, TotalCount: 0}
}

// GetProduct propagates failures so callers can tell a missing product
// from an empty listing.
func (r *catalogReader) GetProduct(ctx context.Context, id string) (*domain.ProductView, error) {
	product, err := r.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, domain.Wrap(domain.KindNotFound, err)
		}
		return nil, domain.Wrap(domain.KindInternal, err)
	}

	view := domain.NewProductView(product)
	return &view, nil
}

// GetCategoryTree returns every category as a root. ByParent stays empty
// because categorias has no parent column.
func (r *catalogReader) GetCategoryTree(ctx context.Context) domain.CategoryTree {
	tree := domain.CategoryTree{
		Parents:  []domain.CategoryNode{},
		ByParent: map[int64][]domain.CategoryNode{},
	}

	rows, err := r.categories.ListWithCounts(ctx)
	if err != nil {
		r.fetchFailed("get_category_tree", err)
		return tree
	}

	for _, row := range rows {
		tree.Parents = append(tree.Parents, domain.CategoryNode{
			ID:           row.ID,
			Name:         row.Name,
			ProductCount: row.ProductCount,
		})
		tree.TotalGlobal += row.ProductCount
	}
	return tree
}

// Stats aggregates the admin dashboard counters.
func (r *catalogReader) Stats(ctx context.Context) (domain.Stats, error) {
	var (
		stats      domain.Stats
		categories int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats, err = r.products.Stats(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = r.categories.Count(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.Stats{}, domain.Wrap(domain.KindInternal, err)
	}

	stats.TotalCategories = categories
	return stats, nil
}

// LoadStorefront fetches the categories and one product page concurrently.
// Each half degrades on its own.
func (r *catalogReader) LoadStorefront(ctx context.Context, filter domain.ProductFilter) domain.StorefrontPage {
	var page domain.StorefrontPage

	var g errgroup.Group
	g.Go(func() error {
		page.Categories = r.ListCategories(ctx)
		return nil
	})
	g.Go(func() error {
		page.Products = r.ListProducts(ctx, filter)
		return nil
	})
	_ = g.Wait()

	return page
}
