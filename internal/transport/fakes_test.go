package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"compucobano/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

// fakeReader records the filters it receives and returns canned data.
type fakeReader struct {
	categories []domain.CategoryView
	page       domain.ProductPage
	product    *domain.ProductView
	productErr error
	stats      domain.Stats
	statsErr   error

	lastFilter domain.ProductFilter
	lastIDs    []int64
	byIDsCalls int
}

func (f *fakeReader) ListCategories(ctx context.Context) []domain.CategoryView {
	return f.categories
}

func (f *fakeReader) ListProducts(ctx context.Context, filter domain.ProductFilter) domain.ProductPage {
	f.lastFilter = filter
	return f.page
}

func (f *fakeReader) ListProductsByCategoryIDs(ctx context.Context, ids []int64, filter domain.ProductFilter) domain.ProductPage {
	f.byIDsCalls++
	f.lastIDs = ids
	f.lastFilter = filter
	return f.page
}

func (f *fakeReader) GetProduct(ctx context.Context, id string) (*domain.ProductView, error) {
	if f.productErr != nil {
		return nil, f.productErr
	}
	return f.product, nil
}

func (f *fakeReader) GetCategoryTree(ctx context.Context) domain.CategoryTree {
	nodes := make([]domain.CategoryNode, 0, len(f.categories))
	total := 0
	for _, c := range f.categories {
		nodes = append(nodes, domain.CategoryNode{ID: c.ID, Name: c.Name, ProductCount: c.ProductCount})
		total += c.ProductCount
	}
	return domain.CategoryTree{Parents: nodes, ByParent: map[int64][]domain.CategoryNode{}, TotalGlobal: total}
}

func (f *fakeReader) Stats(ctx context.Context) (domain.Stats, error) {
	return f.stats, f.statsErr
}

func (f *fakeReader) LoadStorefront(ctx context.Context, filter domain.ProductFilter) domain.StorefrontPage {
	f.lastFilter = filter
	return domain.StorefrontPage{Categories: f.categories, Products: f.page}
}

func (f *fakeReader) NormalizeFilter(filter domain.ProductFilter) domain.ProductFilter {
	return filter
}

// fakeWriter returns err from every mutation when set and otherwise echoes
// what it was asked to store.
type fakeWriter struct {
	err   error
	calls []string

	productInput  domain.ProductInput
	productPatch  domain.ProductPatch
	categoryPatch domain.CategoryPatch
	targetID      string
	categoryID    int64
}

func (f *fakeWriter) CreateProduct(ctx context.Context, input domain.ProductInput) (*domain.Product, error) {
	f.calls = append(f.calls, "create_product")
	f.productInput = input
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Product{ID: input.ID, Name: input.Name, Images: input.Images}, nil
}

func (f *fakeWriter) UpdateProduct(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error) {
	f.calls = append(f.calls, "update_product")
	f.targetID = id
	f.productPatch = patch
	if f.err != nil {
		return nil, f.err
	}
	p := &domain.Product{ID: id}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	return p, nil
}

func (f *fakeWriter) DeleteProduct(ctx context.Context, id string) error {
	f.calls = append(f.calls, "delete_product")
	f.targetID = id
	return f.err
}

func (f *fakeWriter) CreateCategory(ctx context.Context, input domain.CategoryInput) (*domain.Category, error) {
	f.calls = append(f.calls, "create_category")
	if f.err != nil {
		return nil, f.err
	}
	id := int64(3)
	if input.ID != nil {
		id = *input.ID
	}
	return &domain.Category{ID: id, Name: input.Name, Description: input.Description}, nil
}

func (f *fakeWriter) UpdateCategory(ctx context.Context, id int64, patch domain.CategoryPatch) (*domain.Category, error) {
	f.calls = append(f.calls, "update_category")
	f.categoryID = id
	f.categoryPatch = patch
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Category{ID: id}, nil
}

func (f *fakeWriter) DeleteCategory(ctx context.Context, id int64) error {
	f.calls = append(f.calls, "delete_category")
	f.categoryID = id
	return f.err
}

func passThrough(next http.Handler) http.Handler { return next }

// envelope is the union of the success and error bodies.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Details json.RawMessage `json:"details"`
}

func doJSON(t *testing.T, router chi.Router, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	if bytes.HasPrefix(bytes.TrimSpace(rec.Body.Bytes()), []byte("{")) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func authorizedRequest(method, path, token string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func serve(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}
