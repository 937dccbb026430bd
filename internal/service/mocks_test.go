package service

import (
	"context"
	"sort"
	"strings"
	"sync"

	"compucobano/internal/domain"
	"compucobano/internal/repository"
)

// memStore mimics the two tables and their constraints closely enough for
// reader and writer tests: unique ids and names, the RESTRICT foreign key,
// and the listing order of the SQL repository.
type memStore struct {
	mu         sync.Mutex
	categories map[int64]*domain.Category
	products   map[string]*domain.Product
	nextID     int64

	// failWith makes every call return this error when set.
	failWith error
	calls    int
}

func newMemStore() *memStore {
	return &memStore{
		categories: make(map[int64]*domain.Category),
		products:   make(map[string]*domain.Product),
		nextID:     1,
	}
}

func (s *memStore) enter() error {
	s.mu.Lock()
	s.calls++
	return s.failWith
}

func (s *memStore) repos() (repository.CategoryRepository, repository.ProductRepository) {
	return &mockCategoryRepository{s}, &mockProductRepository{s}
}

type mockCategoryRepository struct{ s *memStore }

func (m *mockCategoryRepository) Create(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	s := m.s
	err := s.enter()
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	for _, existing := range s.categories {
		if existing.Name == category.Name || existing.ID == category.ID {
			return nil, repository.ErrDuplicateKey
		}
	}

	stored := *category
	if stored.ID == 0 {
		stored.ID = s.nextID
	}
	if stored.ID >= s.nextID {
		s.nextID = stored.ID + 1
	}
	s.categories[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (m *mockCategoryRepository) Update(ctx context.Context, id int64, changes domain.CategoryChanges) (*domain.Category, error) {
	s := m.s
	err := s.enter()
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	category, ok := s.categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	if changes.Name != nil {
		for _, other := range s.categories {
			if other.ID != id && other.Name == *changes.Name {
				return nil, repository.ErrDuplicateKey
			}
		}
		category.Name = *changes.Name
	}
	if changes.Description != nil {
		category.Description = *changes.Description
	}
	out := *category
	return &out, nil
}

func (m *mockCategoryRepository) Delete(ctx context.Context, id int64) error {
	s := m.s
	err := s.enter()
	defer s.mu.Unlock()
	if err != nil {
		return err
	}

	for _, p := range s.products {
		if p.CategoryID != nil && *p.CategoryID == id {
			return repository.ErrForeignKeyViolation
		}
	}
	if _, ok := s.categories[id]; !ok {
		return repository.ErrCategoryNotFound
	}
	delete(s.categories, id)
	return nil
}

func (m *mockCategoryRepository) ListWithCounts(ctx context.Context) ([]*domain.CategoryCount, error) {
	s := m.s
	err := s.enter()
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	list := []*domain.CategoryCount{}
	for _, c := range s.categories {
		count := 0
		for _, p := range s.products {
			if p.CategoryID != nil && *p.CategoryID == c.ID {
				count++
			}
		}
		list = append(list, &domain.CategoryCount{Category: *c, ProductCount: count})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

func (m *mockCategoryRepository) Count(ctx context.Context) (int, error) {
	s := m.s
	err := s.enter()
	defer s.mu.Unlock()
	if err != nil {
		return 0, err
	}
	return len(s.categories), nil
}

type mockProductRepository struct{ s *memStore }

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	s := m.s
	err := s.enter()
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if _, exists := s.products[product.ID]; exists {
		return nil, repository.ErrDuplicateKey
	}
	if product.CategoryID != nil {
		if _, ok := s.categories[*product.CategoryID]; !ok {
			return nil, repository.ErrForeignKeyViolation
		}
	}

	stored := cloneProduct(product)
	s.products[stored.ID] = stored
	return cloneProduct(stored), nil
}

func (m *mockProductRepository) Update(ctx context.Context, id string, changes domain.ProductChanges) (*domain.Product, error) {
	s := m.s
	err := s.enter()
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	product, ok := s.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	if changes.CategoryID != nil {
		if _, ok := s.categories[*changes.CategoryID]; !ok {
			return nil, repository.ErrForeignKeyViolation
		}
		v := *changes.CategoryID
		product.CategoryID = &v
	}
	if changes.Name != nil {
		product.Name = *changes.Name
	}
	if changes.Description != nil {
		product.Description = *changes.Description
	}
	if changes.Price != nil {
		v := *changes.Price
		product.Price = &v
	}
	if changes.Stock != nil {
		product.Stock = *changes.Stock
	}
	if changes.Images != nil {
		product.Images = append([]string{}, (*changes.Images)...)
	}
	return cloneProduct(product), nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id string) error {
	s := m.s
	err := s.enter()
	defer s.mu.Unlock()
	if err != nil {
		return err
	}

	if _, ok := s.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(s.products, id)
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	s := m.s
	err := s.enter()
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	product, ok := s.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return cloneProduct(product), nil
}

func (m *mockProductRepository) List(ctx context.Context, q domain.ProductQuery) ([]*domain.Product, int, error) {
	s := m.s
	err := s.enter()
	defer s.mu.Unlock()
	if err != nil {
		return nil, 0, err
	}

	var matched []*domain.Product
	for _, p := range s.products {
		if q.CategoryIDs != nil && !containsCategory(q.CategoryIDs, p.CategoryID) {
			continue
		}
		if q.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(q.Search)) {
			continue
		}
		matched = append(matched, p)
	}

	sort.Slice(matched, func(i, j int) bool {
		return productLess(matched[i], matched[j], q.SortBy, q.SortOrder)
	})

	total := len(matched)
	page := []*domain.Product{}
	for i := q.Offset; i < total && i < q.Offset+q.Limit; i++ {
		page = append(page, cloneProduct(matched[i]))
	}
	return page, total, nil
}

func (m *mockProductRepository) Stats(ctx context.Context) (domain.Stats, error) {
	s := m.s
	err := s.enter()
	defer s.mu.Unlock()
	if err != nil {
		return domain.Stats{}, err
	}

	var stats domain.Stats
	for _, p := range s.products {
		stats.TotalProducts++
		stats.TotalStock += p.Stock
		if p.Stock == 0 {
			stats.OutOfStock++
		}
	}
	return stats, nil
}

func containsCategory(ids []int64, id *int64) bool {
	if id == nil {
		return false
	}
	for _, candidate := range ids {
		if candidate == *id {
			return true
		}
	}
	return false
}

// productLess follows the ORDER BY clauses of the SQL repository.
func productLess(a, b *domain.Product, field domain.SortField, order domain.SortOrder) bool {
	desc := order == domain.SortDesc

	switch field {
	case domain.SortByPrice:
		switch {
		case a.Price == nil && b.Price == nil:
			return a.ID < b.ID
		case a.Price == nil:
			return false
		case b.Price == nil:
			return true
		case *a.Price != *b.Price:
			if desc {
				return *a.Price > *b.Price
			}
			return *a.Price < *b.Price
		}
		return a.ID < b.ID
	case domain.SortByDate:
		if desc {
			return a.ID > b.ID
		}
		return a.ID < b.ID
	default:
		if a.Name != b.Name {
			if desc {
				return a.Name > b.Name
			}
			return a.Name < b.Name
		}
		return a.ID < b.ID
	}
}

func cloneProduct(p *domain.Product) *domain.Product {
	out := *p
	if p.CategoryID != nil {
		v := *p.CategoryID
		out.CategoryID = &v
	}
	if p.Price != nil {
		v := *p.Price
		out.Price = &v
	}
	out.Images = append([]string{}, p.Images...)
	return &out
}
