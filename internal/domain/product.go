package domain

import (
	"time"
)

// Product represents a product in the catalog. Prices are stored in minor
// currency units (cents). Products are never physically deleted; IsActive
// false marks removal.
type Product struct {
	ID            string    `json:"id"`
	CategoryID    string    `json:"category_id"`
	CategoryName  string    `json:"category_name,omitempty"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	SKU           string    `json:"sku"`
	Price         int64     `json:"price"`
	DiscountPrice *int64    `json:"discount_price,omitempty"`
	StockQuantity int       `json:"stock_quantity"`
	Brand         *string   `json:"brand,omitempty"`
	Model         string    `json:"model,omitempty"`
	IsActive      bool      `json:"is_active"`
	Images        []string  `json:"images,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// InStock reports whether the product has any stock left.
func (p *Product) InStock() bool {
	return p.StockQuantity > 0
}

// EffectivePrice is the price a buyer pays: the discount price when one
// is set, the list price otherwise. Filtering, sorting and price facets
// all operate on this value.
func (p *Product) EffectivePrice() int64 {
	if p.DiscountPrice != nil {
		return *p.DiscountPrice
	}
	return p.Price
}

// Category is a product category. The tree structure (parent links) is owned
// by the catalog admin side; search only needs id and name.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ParentID  *string   `json:"parent_id,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProductDetail is a product together with its structured specifications.
type ProductDetail struct {
	Product
	Specifications []ProductSpecification `json:"specifications"`
}
