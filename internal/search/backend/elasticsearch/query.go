package elasticsearch

import (
	"strings"

	"github.com/luanvuhlu/compmarket/internal/domain"
	"github.com/luanvuhlu/compmarket/internal/search/predicate"
)

// buildBoolQuery renders a predicate set as an Elasticsearch bool query.
// Text becomes a scored must clause; everything else goes into filter
// context. The is_active filter is always present.
func buildBoolQuery(set predicate.Set) map[string]interface{} {
	filters := []interface{}{
		map[string]interface{}{"term": map[string]interface{}{"is_active": true}},
	}
	var must []interface{}

	for _, pr := range set.Predicates() {
		switch pred := pr.(type) {
		case predicate.Text:
			must = append(must, map[string]interface{}{
				"multi_match": map[string]interface{}{
					"query":         pred.Query,
					"fields":        []string{"name^3", "name.autocomplete^2", "description", "brand"},
					"type":          "best_fields",
					"fuzziness":     "AUTO",
					"prefix_length": 1,
				},
			})

		case predicate.Category:
			filters = append(filters, map[string]interface{}{
				"terms": map[string]interface{}{"category_id": pred.IDs},
			})

		case predicate.Brand:
			filters = append(filters, map[string]interface{}{
				"terms": map[string]interface{}{"brand.keyword": pred.Names},
			})

		case predicate.PriceRange:
			rangeFilter := map[string]interface{}{}
			if pred.Min != nil {
				rangeFilter["gte"] = *pred.Min
			}
			if pred.Max != nil {
				rangeFilter["lt"] = *pred.Max
			}
			filters = append(filters, map[string]interface{}{
				"range": map[string]interface{}{"effective_price": rangeFilter},
			})

		case predicate.InStock:
			filters = append(filters, map[string]interface{}{
				"range": map[string]interface{}{"stock_quantity": map[string]interface{}{"gt": 0}},
			})

		case predicate.Specification:
			filters = append(filters, specificationClause(pred))
		}
	}

	boolQuery := map[string]interface{}{"filter": filters}
	if len(must) > 0 {
		boolQuery["must"] = must
	}
	return map[string]interface{}{"bool": boolQuery}
}

// specificationClause renders one attribute filter as a nested query so
// that the attribute name and its value are matched inside the same
// specification row. Unknown or uncoercible filters render as match_none.
func specificationClause(pred predicate.Specification) map[string]interface{} {
	if !pred.Known || !pred.Coerced {
		return map[string]interface{}{"match_none": map[string]interface{}{}}
	}

	var valueClause map[string]interface{}
	switch pred.DataType {
	case domain.DataTypeString, domain.DataTypeEnum:
		valueClause = map[string]interface{}{
			"wildcard": map[string]interface{}{
				"specifications.value_string.keyword": map[string]interface{}{
					"value":            "*" + strings.ToLower(pred.Raw) + "*",
					"case_insensitive": true,
				},
			},
		}
	case domain.DataTypeNumeric:
		valueClause = map[string]interface{}{
			"term": map[string]interface{}{"specifications.value_numeric": pred.Numeric},
		}
	case domain.DataTypeBoolean:
		valueClause = map[string]interface{}{
			"term": map[string]interface{}{"specifications.value_boolean": pred.Bool},
		}
	default:
		return map[string]interface{}{"match_none": map[string]interface{}{}}
	}

	return map[string]interface{}{
		"nested": map[string]interface{}{
			"path": "specifications",
			"query": map[string]interface{}{
				"bool": map[string]interface{}{
					"filter": []interface{}{
						map[string]interface{}{
							"term": map[string]interface{}{"specifications.attribute": pred.Attribute},
						},
						valueClause,
					},
				},
			},
		},
	}
}

// buildSort renders the sort clause for a normalized sort. Every ordering
// ends with id so pagination stays stable across equal sort keys.
func buildSort(st domain.Sort) []interface{} {
	st = st.Normalize()
	dir := "desc"
	if st.Order == domain.SortAsc {
		dir = "asc"
	}

	var primary map[string]interface{}
	switch st.By {
	case domain.SortByPrice:
		primary = map[string]interface{}{"effective_price": dir}
	case domain.SortByName:
		primary = map[string]interface{}{"name.keyword": dir}
	case domain.SortByNewest:
		primary = map[string]interface{}{"created_at": dir}
	default:
		primary = map[string]interface{}{"_score": "desc"}
	}
	return []interface{}{primary, map[string]interface{}{"id": "asc"}}
}
