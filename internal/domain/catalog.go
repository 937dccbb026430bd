package domain

// Category is a row of categorias.
type Category struct {
	ID          int64  `json:"id" db:"id"`
	Name        string `json:"nombre" db:"nombre"`
	Description string `json:"descripcion" db:"descripcion"`
}

// CategoryCount pairs a category with the number of products referencing it.
// The count is derived on every read and never stored.
type CategoryCount struct {
	Category
	ProductCount int `json:"product_count"`
}

// Product is a row of productos. ID is chosen by the caller and never changes.
// Price is nil when the stored precio is NULL.
type Product struct {
	ID          string   `json:"id" db:"id"`
	CategoryID  *int64   `json:"categoria_id" db:"categoria_id"`
	Name        string   `json:"nombre" db:"nombre"`
	Description string   `json:"descripcion" db:"descripcion"`
	Price       *float64 `json:"precio" db:"precio"`
	Stock       int      `json:"stock" db:"stock"`
	Images      []string `json:"foto" db:"foto"`
}

// ProductChanges carries the validated columns of a partial product update.
// Nil fields are left untouched. Images, when non-nil, replaces the stored list.
type ProductChanges struct {
	Name        *string
	CategoryID  *int64
	Description *string
	Price       *float64
	Stock       *int
	Images      *[]string
}

// Empty reports whether no column would be written.
func (c ProductChanges) Empty() bool {
	return c.Name == nil && c.CategoryID == nil && c.Description == nil &&
		c.Price == nil && c.Stock == nil && c.Images == nil
}

// CategoryChanges carries the validated columns of a partial category update.
type CategoryChanges struct {
	Name        *string
	Description *string
}

// Empty reports whether no column would be written.
func (c CategoryChanges) Empty() bool {
	return c.Name == nil && c.Description == nil
}

// Stats is the admin dashboard aggregate.
type Stats struct {
	TotalProducts   int `json:"totalProductos"`
	TotalCategories int `json:"totalCategorias"`
	TotalStock      int `json:"totalStock"`
	OutOfStock      int `json:"sinStock"`
}
