// Package predicate defines the typed filter predicates produced by the
// filter compiler. Each predicate is an immutable value describing one
// search constraint; a Set bundles the predicates of one request so that
// facet aggregation can recombine them with individual dimensions removed.
package predicate

import (
	"math"
	"strings"

	"github.com/luanvuhlu/compmarket/internal/domain"
)

// Dimension tags a predicate with the facet dimension it belongs to.
// Facet queries for a dimension are computed with that dimension's own
// predicates excluded, so counts answer "what would I get if I picked
// this value" rather than reflecting the already-applied choice.
type Dimension string

const (
	DimText          Dimension = "text"
	DimCategory      Dimension = "category"
	DimBrand         Dimension = "brand"
	DimPrice         Dimension = "price"
	DimStock         Dimension = "stock"
	DimSpecification Dimension = "specification"
)

// Predicate is one composable search constraint. Implementations are
// plain values; backends type-switch over them to render their native
// query form.
type Predicate interface {
	Dimension() Dimension
}

// Text matches products whose name, description or brand contains the
// query string, case-insensitively.
type Text struct {
	Query string
}

func (Text) Dimension() Dimension { return DimText }

// Category restricts results to products in any of the given categories.
type Category struct {
	IDs []string
}

func (Category) Dimension() Dimension { return DimCategory }

// Brand restricts results to products of any of the given brands.
type Brand struct {
	Names []string
}

func (Brand) Dimension() Dimension { return DimBrand }

// PriceRange bounds the effective price in minor currency units. Min is
// inclusive, Max exclusive; either bound may be nil for a half-open range.
type PriceRange struct {
	Min *int64
	Max *int64
}

func (PriceRange) Dimension() Dimension { return DimPrice }

// Contains reports whether the given price falls inside the range.
func (p PriceRange) Contains(price int64) bool {
	if p.Min != nil && price < *p.Min {
		return false
	}
	if p.Max != nil && price >= *p.Max {
		return false
	}
	return true
}

// InStock restricts results to products with positive stock.
type InStock struct{}

func (InStock) Dimension() Dimension { return DimStock }

// Specification filters on one EAV attribute value. Each Specification
// predicate is an independent existence test: a product matches when at
// least one of its specification rows for this attribute matches the
// value. The compiler resolves the attribute definition up front so that
// backends never need the definitions table.
//
// Known is false when the requested attribute has no definition; an
// unknown attribute matches no products but is never an error.
type Specification struct {
	Attribute string
	DataType  domain.AttributeDataType
	Known     bool

	// Raw is the filter value as supplied by the caller. Numeric and Bool
	// hold the coerced forms for NUMERIC and BOOLEAN attributes; Coerced
	// is false when coercion failed, in which case the predicate matches
	// nothing.
	Raw     string
	Numeric float64
	Bool    bool
	Coerced bool
}

func (Specification) Dimension() Dimension { return DimSpecification }

// Matches evaluates the predicate against one specification row's value
// slots. It implements the per-type match rules shared by the memory
// backend and the tests: STRING and ENUM compare case-insensitively by
// substring, NUMERIC by exact equality, BOOLEAN by equality.
func (s Specification) Matches(valueString *string, valueNumeric *float64, valueBoolean *bool) bool {
	if !s.Known || !s.Coerced {
		return false
	}
	switch s.DataType {
	case domain.DataTypeString, domain.DataTypeEnum:
		if valueString == nil {
			return false
		}
		return strings.Contains(strings.ToLower(*valueString), strings.ToLower(s.Raw))
	case domain.DataTypeNumeric:
		if valueNumeric == nil {
			return false
		}
		return math.Abs(*valueNumeric-s.Numeric) < 1e-9
	case domain.DataTypeBoolean:
		if valueBoolean == nil {
			return false
		}
		return *valueBoolean == s.Bool
	}
	return false
}
