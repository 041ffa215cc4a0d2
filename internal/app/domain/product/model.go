package product

// Product is a catalog entry. ID is assigned locally at load time and is
// only stable within a single load generation; it is never persisted.
type Product struct {
	ID            string  `json:"-"`
	SKU           string  `json:"sku"`
	Name          string  `json:"name"`
	Category      string  `json:"category"`
	Color         string  `json:"color"`
	Size          string  `json:"size"`
	Price         float64 `json:"price"`
	Description   string  `json:"description"`
	ImageURL      string  `json:"imageUrl"`
	URL           string  `json:"url"`
	StockQuantity *int    `json:"stockQuantity"`
	Featured      *bool   `json:"featured"`
}

// Document mirrors the products.json catalog document.
type Document struct {
	Products []Product `json:"products"`
}
