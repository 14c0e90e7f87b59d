package elasticsearch

// DefaultIndexName is the default Elasticsearch index used for product documents.
const DefaultIndexName = "compmarket_products"

// buildIndexMapping returns the full JSON mapping for the products index.
// Specifications are indexed as nested documents so that attribute and
// value can be matched inside the same row; effective_price is computed
// at index time so range filters and sorting need no script.
func buildIndexMapping() string {
	return `{
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0,
    "analysis": {
      "analyzer": {
        "autocomplete_analyzer": {
          "type": "custom",
          "tokenizer": "autocomplete_tokenizer",
          "filter": ["lowercase"]
        },
        "autocomplete_search": {
          "type": "custom",
          "tokenizer": "standard",
          "filter": ["lowercase"]
        }
      },
      "tokenizer": {
        "autocomplete_tokenizer": {
          "type": "edge_ngram",
          "min_gram": 2,
          "max_gram": 20,
          "token_chars": ["letter", "digit"]
        }
      }
    }
  },
  "mappings": {
    "properties": {
      "id":              { "type": "keyword" },
      "category_id":     { "type": "keyword" },
      "category_name":   { "type": "text", "fields": { "keyword": { "type": "keyword" } } },
      "name":            { "type": "text", "fields": { "keyword": { "type": "keyword", "ignore_above": 256 }, "autocomplete": { "type": "text", "analyzer": "autocomplete_analyzer", "search_analyzer": "autocomplete_search" } } },
      "description":     { "type": "text" },
      "sku":             { "type": "keyword" },
      "price":           { "type": "long" },
      "discount_price":  { "type": "long" },
      "effective_price": { "type": "long" },
      "stock_quantity":  { "type": "integer" },
      "brand":           { "type": "text", "fields": { "keyword": { "type": "keyword" } } },
      "model":           { "type": "keyword" },
      "is_active":       { "type": "boolean" },
      "images":          { "type": "keyword", "index": false },
      "created_at":      { "type": "date" },
      "updated_at":      { "type": "date" },
      "specifications": {
        "type": "nested",
        "properties": {
          "attribute":     { "type": "keyword" },
          "display_name":  { "type": "keyword" },
          "data_type":     { "type": "keyword" },
          "value_string":  { "type": "text", "fields": { "keyword": { "type": "keyword", "ignore_above": 256 } } },
          "value_numeric": { "type": "double" },
          "value_boolean": { "type": "boolean" },
          "value_label":   { "type": "keyword" },
          "is_filterable": { "type": "boolean" }
        }
      }
    }
  }
}`
}
