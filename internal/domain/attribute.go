package domain

import (
	"strconv"
	"strings"
	"time"
)

// AttributeDataType is the declared value type of an attribute definition.
type AttributeDataType string

const (
	DataTypeString  AttributeDataType = "STRING"
	DataTypeNumeric AttributeDataType = "NUMERIC"
	DataTypeBoolean AttributeDataType = "BOOLEAN"
	DataTypeEnum    AttributeDataType = "ENUM"
)

// ValidDataTypes returns the set of valid attribute data types.
func ValidDataTypes() []AttributeDataType {
	return []AttributeDataType{DataTypeString, DataTypeNumeric, DataTypeBoolean, DataTypeEnum}
}

// IsValidDataType checks whether the given string is a valid attribute data type.
func IsValidDataType(s string) bool {
	for _, dt := range ValidDataTypes() {
		if string(dt) == s {
			return true
		}
	}
	return false
}

// AttributeDefinition defines the schema for one EAV attribute
// (e.g. "ram_size"). Definitions are created by catalog setup and are
// immutable at search time.
type AttributeDefinition struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	DisplayName  string            `json:"display_name"`
	DataType     AttributeDataType `json:"data_type"`
	Unit         *string           `json:"unit,omitempty"`
	IsFilterable bool              `json:"is_filterable"`
	IsSearchable bool              `json:"is_searchable"`
	SortOrder    int               `json:"sort_order"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// NormalizeAttributeName canonicalizes an attribute name for lookups:
// trimmed and case-folded. "  RAM_Size " and "ram_size" address the same
// definition.
func NormalizeAttributeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ProductSpecification is one EAV fact row: (product, attribute, value).
// Exactly one of ValueString, ValueNumeric, ValueBoolean is populated,
// matching the attribute's declared data type.
type ProductSpecification struct {
	ID           string            `json:"id"`
	ProductID    string            `json:"product_id"`
	AttributeID  string            `json:"attribute_id"`
	Attribute    string            `json:"attribute"`
	DisplayName  string            `json:"display_name"`
	DataType     AttributeDataType `json:"data_type"`
	Unit         *string           `json:"unit,omitempty"`
	IsFilterable bool              `json:"is_filterable"`
	ValueString  *string           `json:"value_string,omitempty"`
	ValueNumeric *float64          `json:"value_numeric,omitempty"`
	ValueBoolean *bool             `json:"value_boolean,omitempty"`
}

// RenderValue returns the human-readable form of whichever value slot is
// populated. Numeric values are rendered without trailing zeros so that a
// stored 16 renders as "16", matching how the value appears in facets.
func (s *ProductSpecification) RenderValue() string {
	switch {
	case s.ValueString != nil:
		return *s.ValueString
	case s.ValueNumeric != nil:
		return strconv.FormatFloat(*s.ValueNumeric, 'f', -1, 64)
	case s.ValueBoolean != nil:
		return strconv.FormatBool(*s.ValueBoolean)
	default:
		return ""
	}
}
