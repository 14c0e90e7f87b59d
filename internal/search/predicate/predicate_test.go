package predicate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luanvuhlu/compmarket/internal/domain"
)

func testDefs() map[string]domain.AttributeDefinition {
	return map[string]domain.AttributeDefinition{
		"ram_size":  {Name: "ram_size", DisplayName: "RAM Size", DataType: domain.DataTypeNumeric},
		"cpu":       {Name: "cpu", DisplayName: "Processor", DataType: domain.DataTypeString},
		"backlit":   {Name: "backlit", DisplayName: "Backlit Keyboard", DataType: domain.DataTypeBoolean},
		"form":      {Name: "form", DisplayName: "Form Factor", DataType: domain.DataTypeEnum},
	}
}

func TestCompile_EmptyRequest(t *testing.T) {
	set := Compile(&domain.SearchRequest{}, testDefs())

	assert.Zero(t, set.Len())
}

func TestCompile_AllDimensions(t *testing.T) {
	min := int64(50000)
	req := &domain.SearchRequest{
		Query:          "laptop",
		CategoryIDs:    []string{"cat-1"},
		Brands:         []string{"Dell", "HP"},
		MinPrice:       &min,
		InStock:        true,
		Specifications: map[string]string{"ram_size": "16"},
	}

	set := Compile(req, testDefs())

	assert.Equal(t, 6, set.Len())
	for _, dim := range []Dimension{DimText, DimCategory, DimBrand, DimPrice, DimStock, DimSpecification} {
		assert.True(t, set.Has(dim), "missing dimension %s", dim)
	}
}

func TestCompile_BlankValuesDropped(t *testing.T) {
	req := &domain.SearchRequest{
		Query:       "   ",
		CategoryIDs: []string{"", "  "},
		Brands:      []string{""},
	}

	set := Compile(req, testDefs())

	assert.Zero(t, set.Len())
}

func TestCompile_NumericCoercion(t *testing.T) {
	req := &domain.SearchRequest{Specifications: map[string]string{"ram_size": "16"}}

	set := Compile(req, testDefs())

	require.Equal(t, 1, set.Len())
	spec := set.Predicates()[0].(Specification)
	assert.True(t, spec.Known)
	assert.True(t, spec.Coerced)
	assert.Equal(t, 16.0, spec.Numeric)
}

func TestCompile_UncoercibleNumericMatchesNothing(t *testing.T) {
	req := &domain.SearchRequest{Specifications: map[string]string{"ram_size": "lots"}}

	set := Compile(req, testDefs())

	spec := set.Predicates()[0].(Specification)
	assert.True(t, spec.Known)
	assert.False(t, spec.Coerced)
	v := 16.0
	assert.False(t, spec.Matches(nil, &v, nil))
}

func TestCompile_UnknownAttributeMatchesNothing(t *testing.T) {
	req := &domain.SearchRequest{Specifications: map[string]string{"no_such_attr": "x"}}

	set := Compile(req, testDefs())

	spec := set.Predicates()[0].(Specification)
	assert.False(t, spec.Known)
	s := "x"
	assert.False(t, spec.Matches(&s, nil, nil))
}

func TestCompile_AttributeNameNormalized(t *testing.T) {
	req := &domain.SearchRequest{Specifications: map[string]string{"  RAM_Size ": "8"}}

	set := Compile(req, testDefs())

	spec := set.Predicates()[0].(Specification)
	assert.Equal(t, "ram_size", spec.Attribute)
	assert.True(t, spec.Known)
}

func TestSpecification_Matches_StringContainsCaseInsensitive(t *testing.T) {
	req := &domain.SearchRequest{Specifications: map[string]string{"cpu": "core i7"}}
	spec := Compile(req, testDefs()).Predicates()[0].(Specification)

	v := "Intel Core i7-1165G7"
	assert.True(t, spec.Matches(&v, nil, nil))

	other := "AMD Ryzen 5"
	assert.False(t, spec.Matches(&other, nil, nil))
	assert.False(t, spec.Matches(nil, nil, nil))
}

func TestSpecification_Matches_Boolean(t *testing.T) {
	req := &domain.SearchRequest{Specifications: map[string]string{"backlit": "TRUE"}}
	spec := Compile(req, testDefs()).Predicates()[0].(Specification)

	require.True(t, spec.Coerced)
	yes, no := true, false
	assert.True(t, spec.Matches(nil, nil, &yes))
	assert.False(t, spec.Matches(nil, nil, &no))
}

func TestPriceRange_Contains(t *testing.T) {
	min, max := int64(10000), int64(50000)
	p := PriceRange{Min: &min, Max: &max}

	assert.True(t, p.Contains(10000), "min inclusive")
	assert.True(t, p.Contains(49999))
	assert.False(t, p.Contains(50000), "max exclusive")
	assert.False(t, p.Contains(9999))

	open := PriceRange{Min: &min}
	assert.True(t, open.Contains(1_000_000))
}

func TestSet_Without(t *testing.T) {
	set := NewSet(Text{Query: "laptop"}, Brand{Names: []string{"Dell"}},
		Specification{Attribute: "ram_size"}, Specification{Attribute: "cpu"})

	stripped := set.Without(DimSpecification)

	assert.Equal(t, 2, stripped.Len())
	assert.False(t, stripped.Has(DimSpecification))
	assert.True(t, stripped.Has(DimText))
	// Original set untouched.
	assert.Equal(t, 4, set.Len())
}

func TestSet_Without_MultipleDimensions(t *testing.T) {
	set := NewSet(Text{Query: "x"}, InStock{}, PriceRange{})

	stripped := set.Without(DimPrice, DimStock)

	assert.Equal(t, 1, stripped.Len())
	assert.Equal(t, DimText, stripped.Predicates()[0].Dimension())
}

func TestSet_With(t *testing.T) {
	set := NewSet(Text{Query: "x"})
	grown := set.With(InStock{})

	assert.Equal(t, 1, set.Len())
	assert.Equal(t, 2, grown.Len())
}
