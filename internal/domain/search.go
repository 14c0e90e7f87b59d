package domain

// Sort options for search results.
const (
	SortByRelevance = "relevance"
	SortByPrice     = "price"
	SortByName      = "name"
	SortByNewest    = "newest"

	SortAsc  = "asc"
	SortDesc = "desc"
)

// Sort describes the requested result ordering.
type Sort struct {
	By    string `json:"by"`
	Order string `json:"order"`
}

// Normalize fills in defaults for empty or unknown sort fields.
func (s Sort) Normalize() Sort {
	switch s.By {
	case SortByPrice, SortByName, SortByNewest:
	default:
		s.By = SortByRelevance
	}
	switch s.Order {
	case SortAsc, SortDesc:
	default:
		s.Order = SortDesc
	}
	return s
}

// ValidSortBy reports whether the given string is a valid sort key.
func ValidSortBy(s string) bool {
	switch s {
	case SortByRelevance, SortByPrice, SortByName, SortByNewest:
		return true
	}
	return false
}

// SearchRequest holds all filter parameters for a product search. It is
// ephemeral: built per call and discarded. Specifications is an open-ended
// map of attribute name to filter value; unknown attribute names are
// accepted and simply match nothing.
type SearchRequest struct {
	Query          string            `json:"query"`
	CategoryIDs    []string          `json:"category_ids,omitempty"`
	Brands         []string          `json:"brands,omitempty"`
	MinPrice       *int64            `json:"min_price,omitempty"`
	MaxPrice       *int64            `json:"max_price,omitempty"`
	InStock        bool              `json:"in_stock"`
	SortBy         string            `json:"sort_by"`
	SortOrder      string            `json:"sort_order"`
	Specifications map[string]string `json:"specifications,omitempty"`
}

// Sort returns the normalized sort described by the request.
func (r *SearchRequest) Sort() Sort {
	return Sort{By: r.SortBy, Order: r.SortOrder}.Normalize()
}

// ProductPage is one page of search results. Page numbers are 0-indexed.
type ProductPage struct {
	Content       []Product `json:"content"`
	Number        int       `json:"number"`
	Size          int       `json:"size"`
	TotalElements int64     `json:"total_elements"`
	TotalPages    int       `json:"total_pages"`
	First         bool      `json:"first"`
	Last          bool      `json:"last"`
}

// NewProductPage assembles a ProductPage from raw results and the total count.
func NewProductPage(content []Product, number, size int, totalElements int64) ProductPage {
	if content == nil {
		content = []Product{}
	}
	totalPages := 0
	if size > 0 && totalElements > 0 {
		totalPages = int(totalElements) / size
		if int(totalElements)%size > 0 {
			totalPages++
		}
	}
	return ProductPage{
		Content:       content,
		Number:        number,
		Size:          size,
		TotalElements: totalElements,
		TotalPages:    totalPages,
		First:         number == 0,
		Last:          number >= totalPages-1,
	}
}

// CategoryFacet is one category bucket with its matching product count.
type CategoryFacet struct {
	CategoryID   string `json:"category_id"`
	CategoryName string `json:"category_name"`
	Count        int64  `json:"count"`
}

// BrandFacet is one brand bucket with its matching product count.
type BrandFacet struct {
	Brand string `json:"brand"`
	Count int64  `json:"count"`
}

// PriceRangeFacet is one fixed price bucket with its matching product count.
// Max is nil for the open-ended top bucket. Bounds are in minor currency
// units; Min is inclusive, Max exclusive.
type PriceRangeFacet struct {
	Min   int64  `json:"min"`
	Max   *int64 `json:"max,omitempty"`
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// SpecificationValue is one observed attribute value with its product count.
type SpecificationValue struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// SpecificationFacet groups the top observed values of one filterable
// attribute.
type SpecificationFacet struct {
	AttributeName        string               `json:"attribute_name"`
	AttributeDisplayName string               `json:"attribute_display_name"`
	Values               []SpecificationValue `json:"values"`
}

// SearchFacets carries the aggregated counts for every facet dimension.
type SearchFacets struct {
	Categories     []CategoryFacet      `json:"categories"`
	Brands         []BrandFacet         `json:"brands"`
	PriceRanges    []PriceRangeFacet    `json:"price_ranges"`
	Specifications []SpecificationFacet `json:"specifications"`
}

// SearchResponse is the full result of a faceted search call.
type SearchResponse struct {
	Products ProductPage  `json:"products"`
	Facets   SearchFacets `json:"facets"`
	TookMs   int64        `json:"took_ms"`
}
