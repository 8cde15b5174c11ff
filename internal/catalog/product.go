package catalog

// Product is a catalog item as served by the backend API.
type Product struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Image       string `json:"image"`
}

// productPayload mirrors Product with pointer fields so that missing keys can
// be told apart from empty values.
type productPayload struct {
	ID          *int64  `json:"id" validate:"required"`
	Name        *string `json:"name" validate:"required"`
	Description *string `json:"description" validate:"required"`
	Price       *string `json:"price" validate:"required,numeric"`
	Image       *string `json:"image" validate:"required"`
}

func (p productPayload) product() Product {
	return Product{
		ID:          *p.ID,
		Name:        *p.Name,
		Description: *p.Description,
		Price:       *p.Price,
		Image:       *p.Image,
	}
}
