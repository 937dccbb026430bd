package domain

// DefaultCurrency is attached to every product projection.
const DefaultCurrency = "USD"

// CategoryView is the storefront shape of a category.
type CategoryView struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	ProductCount int    `json:"product_count"`
}

// ProductView is the storefront shape of a product. FinalPrice and PriceRaw
// are zero when the stored price is null.
type ProductView struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	CategoryID   *int64   `json:"category_id"`
	Stock        int      `json:"stock"`
	ImageURL     []string `json:"image_url"`
	ImageFileURL []string `json:"image_file_url"`
	FinalPrice   float64  `json:"final_price"`
	PriceRaw     float64  `json:"price_raw"`
	Currency     string   `json:"currency"`
}

// ProductPage is one window of a listing. TotalCount counts the whole
// filtered set, before pagination.
type ProductPage struct {
	Products   []ProductView `json:"products"`
	TotalCount int           `json:"totalCount"`
}

// CategoryNode is a category in the tree shape. ParentID is always nil:
// categorias has no parent column yet.
type CategoryNode struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	ParentID     *int64 `json:"parentId"`
	ProductCount int    `json:"productCount"`
}

// CategoryTree is a depth-one forest. ByParent stays empty until the schema
// grows a hierarchy.
type CategoryTree struct {
	Parents     []CategoryNode           `json:"parents"`
	ByParent    map[int64][]CategoryNode `json:"byParent"`
	TotalGlobal int                      `json:"totalGlobal"`
}

// StorefrontPage bundles the reads of a single storefront render.
type StorefrontPage struct {
	Categories []CategoryView `json:"categories"`
	Products   ProductPage    `json:"products"`
}

// NewProductView projects a stored product into its storefront shape.
func NewProductView(p *Product) ProductView {
	var price float64
	if p.Price != nil {
		price = *p.Price
	}

	images := p.Images
	if images == nil {
		images = []string{}
	}

	return ProductView{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		CategoryID:   p.CategoryID,
		Stock:        p.Stock,
		ImageURL:     images,
		ImageFileURL: images,
		FinalPrice:   price,
		PriceRaw:     price,
		Currency:     DefaultCurrency,
	}
}

// NewCategoryView projects a counted category into its storefront shape.
func NewCategoryView(c *CategoryCount) CategoryView {
	return CategoryView{
		ID:           c.ID,
		Name:         c.Name,
		Description:  c.Description,
		ProductCount: c.ProductCount,
	}
}
