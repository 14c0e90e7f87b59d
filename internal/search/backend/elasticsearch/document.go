package elasticsearch

import (
	"time"

	"github.com/luanvuhlu/compmarket/internal/domain"
	"github.com/luanvuhlu/compmarket/internal/search/backend"
)

// esDocument is the JSON form of a product document in the index.
type esDocument struct {
	ID             string    `json:"id"`
	CategoryID     string    `json:"category_id"`
	CategoryName   string    `json:"category_name"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	SKU            string    `json:"sku"`
	Price          int64     `json:"price"`
	DiscountPrice  *int64    `json:"discount_price,omitempty"`
	EffectivePrice int64     `json:"effective_price"`
	StockQuantity  int       `json:"stock_quantity"`
	Brand          *string   `json:"brand,omitempty"`
	Model          string    `json:"model,omitempty"`
	IsActive       bool      `json:"is_active"`
	Images         []string  `json:"images,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	Specifications []esSpec  `json:"specifications"`
}

// esSpec is one nested specification row. ValueLabel holds the rendered
// value so facet aggregations can bucket every data type as one keyword.
type esSpec struct {
	Attribute    string   `json:"attribute"`
	DisplayName  string   `json:"display_name"`
	DataType     string   `json:"data_type"`
	ValueString  *string  `json:"value_string,omitempty"`
	ValueNumeric *float64 `json:"value_numeric,omitempty"`
	ValueBoolean *bool    `json:"value_boolean,omitempty"`
	ValueLabel   string   `json:"value_label"`
	IsFilterable bool     `json:"is_filterable"`
}

func toDocument(doc backend.Document) esDocument {
	specs := make([]esSpec, 0, len(doc.Specs))
	for _, s := range doc.Specs {
		specs = append(specs, esSpec{
			Attribute:    s.Attribute,
			DisplayName:  s.DisplayName,
			DataType:     string(s.DataType),
			ValueString:  s.ValueString,
			ValueNumeric: s.ValueNumeric,
			ValueBoolean: s.ValueBoolean,
			ValueLabel:   s.RenderValue(),
			IsFilterable: s.IsFilterable,
		})
	}
	return esDocument{
		ID:             doc.Product.ID,
		CategoryID:     doc.Product.CategoryID,
		CategoryName:   doc.Product.CategoryName,
		Name:           doc.Product.Name,
		Description:    doc.Product.Description,
		SKU:            doc.Product.SKU,
		Price:          doc.Product.Price,
		DiscountPrice:  doc.Product.DiscountPrice,
		EffectivePrice: doc.Product.EffectivePrice(),
		StockQuantity:  doc.Product.StockQuantity,
		Brand:          doc.Product.Brand,
		Model:          doc.Product.Model,
		IsActive:       doc.Product.IsActive,
		Images:         doc.Product.Images,
		CreatedAt:      doc.Product.CreatedAt,
		UpdatedAt:      doc.Product.UpdatedAt,
		Specifications: specs,
	}
}

func (d esDocument) toProduct() domain.Product {
	return domain.Product{
		ID:            d.ID,
		CategoryID:    d.CategoryID,
		CategoryName:  d.CategoryName,
		Name:          d.Name,
		Description:   d.Description,
		SKU:           d.SKU,
		Price:         d.Price,
		DiscountPrice: d.DiscountPrice,
		StockQuantity: d.StockQuantity,
		Brand:         d.Brand,
		Model:         d.Model,
		IsActive:      d.IsActive,
		Images:        d.Images,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}
