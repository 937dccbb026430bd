package domain

// ProductInput is a create_product payload exactly as the admin form submits it.
type ProductInput struct {
	ID          string   `json:"id"`
	Name        string   `json:"nombre"`
	CategoryID  Scalar   `json:"categoria_id"`
	Description string   `json:"descripcion"`
	Price       Scalar   `json:"precio"`
	Stock       Scalar   `json:"stock"`
	Images      []string `json:"foto"`
}

// ProductPatch is an update_product payload. Absent keys decode to nil.
// CategoryID also records an explicit null.
type ProductPatch struct {
	Name        *string        `json:"nombre"`
	CategoryID  OptionalScalar `json:"categoria_id"`
	Description *string        `json:"descripcion"`
	Price       *Scalar        `json:"precio"`
	Stock       *Scalar        `json:"stock"`
	Images      *[]string      `json:"foto"`
}

// CategoryInput is a create_category payload. ID is optional; the store
// assigns one when it is absent.
type CategoryInput struct {
	ID          *int64 `json:"id,omitempty"`
	Name        string `json:"nombre"`
	Description string `json:"descripcion"`
}

// CategoryPatch is an update_category payload.
type CategoryPatch struct {
	Name        *string `json:"nombre"`
	Description *string `json:"descripcion"`
}
