package postgres

import (
	"fmt"
	"strings"

	"github.com/luanvuhlu/compmarket/internal/domain"
	"github.com/luanvuhlu/compmarket/internal/search/predicate"
)

// whereClause renders a predicate set as one SQL condition over the
// products table (aliased p). Every query of this backend shares it, so
// count, page and facet queries always agree on what "matching" means.
func whereClause(set predicate.Set) (string, []any) {
	conditions := []string{"p.is_active = TRUE"}
	var args []any
	argIndex := 1

	for _, pr := range set.Predicates() {
		switch pred := pr.(type) {
		case predicate.Text:
			conditions = append(conditions, fmt.Sprintf(
				"(p.name ILIKE $%d OR p.description ILIKE $%d OR p.brand ILIKE $%d)",
				argIndex, argIndex, argIndex))
			args = append(args, "%"+pred.Query+"%")
			argIndex++

		case predicate.Category:
			conditions = append(conditions, fmt.Sprintf("p.category_id = ANY($%d)", argIndex))
			args = append(args, pred.IDs)
			argIndex++

		case predicate.Brand:
			conditions = append(conditions, fmt.Sprintf("p.brand = ANY($%d)", argIndex))
			args = append(args, pred.Names)
			argIndex++

		case predicate.PriceRange:
			if pred.Min != nil {
				conditions = append(conditions, fmt.Sprintf("COALESCE(p.discount_price, p.price) >= $%d", argIndex))
				args = append(args, *pred.Min)
				argIndex++
			}
			if pred.Max != nil {
				conditions = append(conditions, fmt.Sprintf("COALESCE(p.discount_price, p.price) < $%d", argIndex))
				args = append(args, *pred.Max)
				argIndex++
			}

		case predicate.InStock:
			conditions = append(conditions, "p.stock_quantity > 0")

		case predicate.Specification:
			cond, specArgs, next := specificationCondition(pred, argIndex)
			conditions = append(conditions, cond)
			args = append(args, specArgs...)
			argIndex = next
		}
	}

	return strings.Join(conditions, " AND "), args
}

// specificationCondition renders one attribute filter as an EXISTS
// subquery. Each filter probes rows independently, so two attribute
// filters never have to hit the same specification row. Unknown or
// uncoercible filters render as FALSE: they match nothing but the query
// still runs.
func specificationCondition(pred predicate.Specification, argIndex int) (string, []any, int) {
	if !pred.Known || !pred.Coerced {
		return "FALSE", nil, argIndex
	}

	var valueCond string
	var valueArg any
	switch pred.DataType {
	case domain.DataTypeString, domain.DataTypeEnum:
		valueCond = fmt.Sprintf("ps.value_string ILIKE $%d", argIndex+1)
		valueArg = "%" + pred.Raw + "%"
	case domain.DataTypeNumeric:
		valueCond = fmt.Sprintf("ps.value_numeric = $%d", argIndex+1)
		valueArg = pred.Numeric
	case domain.DataTypeBoolean:
		valueCond = fmt.Sprintf("ps.value_boolean = $%d", argIndex+1)
		valueArg = pred.Bool
	default:
		return "FALSE", nil, argIndex
	}

	cond := fmt.Sprintf(`EXISTS (
		SELECT 1 FROM product_specifications ps
		JOIN attribute_definitions ad ON ad.id = ps.attribute_id
		WHERE ps.product_id = p.id AND ad.name = $%d AND %s)`, argIndex, valueCond)
	return cond, []any{pred.Attribute, valueArg}, argIndex + 2
}

// orderBy renders the ORDER BY clause for a normalized sort. Every
// ordering ends with p.id so the total order is unambiguous and pages
// never overlap.
func orderBy(st domain.Sort) string {
	st = st.Normalize()
	dir := "DESC"
	if st.Order == domain.SortAsc {
		dir = "ASC"
	}

	switch st.By {
	case domain.SortByPrice:
		return fmt.Sprintf("COALESCE(p.discount_price, p.price) %s, p.id ASC", dir)
	case domain.SortByName:
		return fmt.Sprintf("lower(p.name) %s, p.id ASC", dir)
	case domain.SortByNewest:
		return fmt.Sprintf("p.created_at %s, p.id ASC", dir)
	default:
		// No text scoring in SQL; relevance degrades to a stable name order.
		return "lower(p.name) ASC, p.id ASC"
	}
}
