package transport

import (
	"net/http"
	"strconv"
	"strings"

	"compucobano/internal/domain"
	"compucobano/internal/middleware"
	"compucobano/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ProductListQuery holds the raw storefront query parameters
type ProductListQuery struct {
	Category   string `json:"category" validate:"omitempty,numeric"`
	Categories string `json:"categories" validate:"omitempty,max=512"`
	Search     string `json:"q" validate:"max=120"`
	Sort       string `json:"sort"`
	Order      string `json:"order"`
	Page       string `json:"page" validate:"omitempty,numeric"`
	Limit      string `json:"limit" validate:"omitempty,numeric"`
}

// CatalogHandler serves the storefront reads
type CatalogHandler struct {
	reader service.CatalogReader
	errors errorResponder
	logger *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(reader service.CatalogReader, logger *zap.Logger, exposeDetails bool) *CatalogHandler {
	return &CatalogHandler{
		reader: reader,
		errors: errorResponder{logger: logger, exposeDetails: exposeDetails},
		logger: logger,
	}
}

// RegisterRoutes registers all storefront routes
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/categories", h.ListCategories)
	r.Get("/api/categories/tree", h.CategoryTree)
	r.Get("/api/products", h.ListProducts)
	r.Get("/api/products/{id}", h.GetProduct)
	r.Get("/api/storefront", h.Storefront)
}

func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, h.reader.ListCategories(r.Context()))
}

func (h *CatalogHandler) CategoryTree(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, h.reader.GetCategoryTree(r.Context()))
}

// ListProducts accepts either category=<id> or categories=<id>,<id>
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	filter, ids, ok := h.parseFilter(w, r)
	if !ok {
		return
	}

	if ids != nil {
		middleware.RespondWithJSON(w, http.StatusOK, h.reader.ListProductsByCategoryIDs(r.Context(), ids, filter))
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, h.reader.ListProducts(r.Context(), filter))
}

func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	product, err := h.reader.GetProduct(r.Context(), id)
	if err != nil {
		h.errors.respond(w, "get_product", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

func (h *CatalogHandler) Storefront(w http.ResponseWriter, r *http.Request) {
	filter, _, ok := h.parseFilter(w, r)
	if !ok {
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, h.reader.LoadStorefront(r.Context(), filter))
}

// parseFilter writes a 400 and returns ok=false when the query is malformed.
// ids is non-nil only when the categories parameter was sent.
func (h *CatalogHandler) parseFilter(w http.ResponseWriter, r *http.Request) (domain.ProductFilter, []int64, bool) {
	values := r.URL.Query()
	q := ProductListQuery{
		Category:   strings.TrimSpace(values.Get("category")),
		Categories: strings.TrimSpace(values.Get("categories")),
		Search:     strings.TrimSpace(values.Get("q")),
		Sort:       values.Get("sort"),
		Order:      values.Get("order"),
		Page:       strings.TrimSpace(values.Get("page")),
		Limit:      strings.TrimSpace(values.Get("limit")),
	}

	if err := middleware.ValidateRequest(q); err != nil {
		middleware.RespondWithValidationErrors(w, middleware.FormatValidationErrors(err))
		return domain.ProductFilter{}, nil, false
	}

	filter := domain.ProductFilter{
		SearchTerm: q.Search,
		SortBy:     domain.ParseSortField(q.Sort),
		SortOrder:  domain.ParseSortOrder(q.Order),
		Page:       atoi(q.Page),
		Limit:      atoi(q.Limit),
	}

	if q.Category != "" {
		id, err := strconv.ParseInt(q.Category, 10, 64)
		if err != nil {
			middleware.RespondWithValidationErrors(w, []middleware.ValidationError{
				{Field: "category", Message: "Value must be an integer"},
			})
			return filter, nil, false
		}
		filter.CategoryID = &id
	}

	if !values.Has("categories") {
		return filter, nil, true
	}

	ids := []int64{}
	for _, part := range strings.Split(q.Categories, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			middleware.RespondWithValidationErrors(w, []middleware.ValidationError{
				{Field: "categories", Message: "Value must be a comma separated list of integers"},
			})
			return filter, nil, false
		}
		ids = append(ids, id)
	}
	return filter, ids, true
}

// atoi reads integral page and limit values. Fractions truncate; anything
// else becomes 0 and is normalised by the reader.
func atoi(s string) int {
	if s == "" {
		return 0
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > -1e9 && f < 1e9 {
		return int(f)
	}
	return 0
}
