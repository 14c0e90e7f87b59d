package predicate

import (
	"strconv"
	"strings"

	"github.com/luanvuhlu/compmarket/internal/domain"
)

// Compile turns a search request into a predicate set. Compilation is
// pure: it touches no I/O and never fails. Malformed filter values
// compile to predicates that match nothing, so a bad filter narrows the
// result to empty instead of erroring the whole search.
//
// defs maps normalized attribute names to their definitions; the caller
// loads it once per request (or serves it from cache).
func Compile(req *domain.SearchRequest, defs map[string]domain.AttributeDefinition) Set {
	var preds []Predicate

	if q := strings.TrimSpace(req.Query); q != "" {
		preds = append(preds, Text{Query: q})
	}
	if ids := compact(req.CategoryIDs); len(ids) > 0 {
		preds = append(preds, Category{IDs: ids})
	}
	if brands := compact(req.Brands); len(brands) > 0 {
		preds = append(preds, Brand{Names: brands})
	}
	if req.MinPrice != nil || req.MaxPrice != nil {
		preds = append(preds, PriceRange{Min: req.MinPrice, Max: req.MaxPrice})
	}
	if req.InStock {
		preds = append(preds, InStock{})
	}
	for name, value := range req.Specifications {
		preds = append(preds, compileSpecification(name, value, defs))
	}

	return NewSet(preds...)
}

func compileSpecification(name, value string, defs map[string]domain.AttributeDefinition) Specification {
	spec := Specification{
		Attribute: domain.NormalizeAttributeName(name),
		Raw:       strings.TrimSpace(value),
	}

	def, ok := defs[spec.Attribute]
	if !ok {
		return spec
	}
	spec.Known = true
	spec.DataType = def.DataType

	switch def.DataType {
	case domain.DataTypeString, domain.DataTypeEnum:
		spec.Coerced = spec.Raw != ""
	case domain.DataTypeNumeric:
		n, err := strconv.ParseFloat(spec.Raw, 64)
		if err == nil {
			spec.Numeric = n
			spec.Coerced = true
		}
	case domain.DataTypeBoolean:
		b, err := strconv.ParseBool(strings.ToLower(spec.Raw))
		if err == nil {
			spec.Bool = b
			spec.Coerced = true
		}
	}
	return spec
}

// compact drops empty entries and surrounding whitespace from a string
// slice.
func compact(in []string) []string {
	var out []string
	for _, s := range in {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}
