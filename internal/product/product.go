// Package product is the product service. Access rules are enforced at the gateway; the
// service only reads the trusted identity to attribute its logs.
package product

import (
	"slices"
	"time"
)

// Product is a catalog entry.
type Product struct {
	ID            int       `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Price         float64   `json:"price"`
	Category      string    `json:"category"`
	StockQuantity int       `json:"stock_quantity"`
	CreatedAt     time.Time `json:"created_at"`
}

// Catalog is an in-memory product catalog.
type Catalog struct {
	products []Product
}

func NewCatalog(products []Product) *Catalog {
	return &Catalog{products: slices.Clone(products)}
}

// Get returns the product with id.
func (c *Catalog) Get(id int) (Product, bool) {
	i := slices.IndexFunc(c.products, func(p Product) bool { return p.ID == id })
	if i < 0 {
		return Product{}, false
	}
	return c.products[i], true
}

func (c *Catalog) Len() int {
	return len(c.products)
}

// Seed returns the demo catalog.
func Seed(createdAt time.Time) []Product {
	return []Product{
		{ID: 1, Name: "Laptop", Description: "High-performance laptop for professionals", Price: 999.99, Category: "Electronics", StockQuantity: 50, CreatedAt: createdAt},
		{ID: 2, Name: "Smartphone", Description: "Latest smartphone with advanced features", Price: 699.99, Category: "Electronics", StockQuantity: 100, CreatedAt: createdAt},
		{ID: 3, Name: "Coffee Maker", Description: "Automatic coffee maker with timer", Price: 89.99, Category: "Appliances", StockQuantity: 25, CreatedAt: createdAt},
	}
}
