// Package elasticsearch implements the search backend on an
// Elasticsearch index. Products are denormalized into one document each
// (nested specification rows included) and kept in sync by the catalog
// event consumer; facet counts come from aggregations.
package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/luanvuhlu/compmarket/internal/domain"
	"github.com/luanvuhlu/compmarket/internal/search/backend"
	"github.com/luanvuhlu/compmarket/internal/search/predicate"
)

// Backend executes compiled predicate sets against Elasticsearch.
type Backend struct {
	client    *elasticsearch.Client
	indexName string
	logger    *slog.Logger
}

type esErrorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
	Status int `json:"status"`
}

// New creates an Elasticsearch backend connected to the given URL and
// ensures the products index exists.
func New(esURL, indexName string, logger *slog.Logger) (*Backend, error) {
	if indexName == "" {
		indexName = DefaultIndexName
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{esURL}})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: create client: %w", err)
	}

	b := &Backend{client: client, indexName: indexName, logger: logger}
	if err := b.ensureIndex(); err != nil {
		return nil, fmt.Errorf("elasticsearch: ensure index: %w", err)
	}
	return b, nil
}

// Ping checks whether the Elasticsearch cluster is reachable.
func (b *Backend) Ping(ctx context.Context) error {
	res, err := b.client.Ping(b.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: unexpected status %s", res.Status())
	}
	return nil
}

func (b *Backend) ensureIndex() error {
	res, err := b.client.Indices.Exists([]string{b.indexName})
	if err != nil {
		return fmt.Errorf("check index exists: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode == 200 {
		return nil
	}

	res, err = b.client.Indices.Create(
		b.indexName,
		b.client.Indices.Create.WithBody(strings.NewReader(buildIndexMapping())),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("create index: %s", decodeError(res.Body, res.Status()))
	}

	b.logger.Info("elasticsearch index created", "index", b.indexName)
	return nil
}

// Index adds or replaces a single product document.
func (b *Backend) Index(ctx context.Context, doc backend.Document) error {
	data, err := json.Marshal(toDocument(doc))
	if err != nil {
		return fmt.Errorf("elasticsearch index: marshal document: %w", err)
	}

	res, err := b.client.Index(
		b.indexName,
		bytes.NewReader(data),
		b.client.Index.WithDocumentID(doc.Product.ID),
		b.client.Index.WithRefresh("true"),
		b.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("elasticsearch index: %s", decodeError(res.Body, res.Status()))
	}

	b.logger.Debug("indexed product", "id", doc.Product.ID, "name", doc.Product.Name)
	return nil
}

// BulkIndex adds or replaces multiple documents using the bulk NDJSON API.
func (b *Backend) BulkIndex(ctx context.Context, docs []backend.Document) error {
	if len(docs) == 0 {
		return nil
	}

	var buf bytes.Buffer
	for i := range docs {
		action := map[string]interface{}{
			"index": map[string]interface{}{
				"_index": b.indexName,
				"_id":    docs[i].Product.ID,
			},
		}
		if err := json.NewEncoder(&buf).Encode(action); err != nil {
			return fmt.Errorf("elasticsearch bulk index: encode action: %w", err)
		}
		if err := json.NewEncoder(&buf).Encode(toDocument(docs[i])); err != nil {
			return fmt.Errorf("elasticsearch bulk index: encode document: %w", err)
		}
	}

	res, err := b.client.Bulk(
		bytes.NewReader(buf.Bytes()),
		b.client.Bulk.WithIndex(b.indexName),
		b.client.Bulk.WithRefresh("true"),
		b.client.Bulk.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch bulk index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("elasticsearch bulk index: %s", decodeError(res.Body, res.Status()))
	}

	var bulkResp struct {
		Errors bool `json:"errors"`
		Items  []struct {
			Index struct {
				ID    string `json:"_id"`
				Error struct {
					Type   string `json:"type"`
					Reason string `json:"reason"`
				} `json:"error"`
			} `json:"index"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&bulkResp); err != nil {
		return fmt.Errorf("elasticsearch bulk index: decode response: %w", err)
	}
	if bulkResp.Errors {
		var msgs []string
		for _, item := range bulkResp.Items {
			if item.Index.Error.Type != "" {
				msgs = append(msgs, fmt.Sprintf("id=%s: %s: %s", item.Index.ID, item.Index.Error.Type, item.Index.Error.Reason))
			}
		}
		return fmt.Errorf("elasticsearch bulk index: partial errors: %s", strings.Join(msgs, "; "))
	}

	b.logger.Info("bulk indexed products", "count", len(docs))
	return nil
}

// Delete removes a product document by ID. A 404 is not an error.
func (b *Backend) Delete(ctx context.Context, productID string) error {
	res, err := b.client.Delete(b.indexName, productID, b.client.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch delete: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("elasticsearch delete: %s", decodeError(res.Body, res.Status()))
	}
	return nil
}

// Count returns the number of active products matching the set.
func (b *Backend) Count(ctx context.Context, set predicate.Set) (int64, error) {
	body := map[string]interface{}{"query": buildBoolQuery(set)}
	data, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("elasticsearch count: marshal query: %w", err)
	}

	res, err := b.client.Count(
		b.client.Count.WithIndex(b.indexName),
		b.client.Count.WithBody(bytes.NewReader(data)),
		b.client.Count.WithContext(ctx),
	)
	if err != nil {
		return 0, fmt.Errorf("elasticsearch count: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return 0, fmt.Errorf("elasticsearch count: %s", decodeError(res.Body, res.Status()))
	}

	var countResp struct {
		Count int64 `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&countResp); err != nil {
		return 0, fmt.Errorf("elasticsearch count: decode response: %w", err)
	}
	return countResp.Count, nil
}

// FetchPage returns one page of matching products.
func (b *Backend) FetchPage(ctx context.Context, set predicate.Set, st domain.Sort, offset, limit int) ([]domain.Product, error) {
	body := map[string]interface{}{
		"query":            buildBoolQuery(set),
		"sort":             buildSort(st),
		"from":             offset,
		"size":             limit,
		"track_total_hits": true,
	}

	var searchResp struct {
		Hits struct {
			Hits []struct {
				Source esDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := b.search(ctx, body, &searchResp); err != nil {
		return nil, fmt.Errorf("elasticsearch fetch page: %w", err)
	}

	products := make([]domain.Product, 0, len(searchResp.Hits.Hits))
	for _, hit := range searchResp.Hits.Hits {
		products = append(products, hit.Source.toProduct())
	}
	return products, nil
}

// CategoryCounts returns per-category match counts via a multi_terms
// aggregation over (category_id, category_name).
func (b *Backend) CategoryCounts(ctx context.Context, set predicate.Set) ([]domain.CategoryFacet, error) {
	body := map[string]interface{}{
		"query": buildBoolQuery(set),
		"size":  0,
		"aggs": map[string]interface{}{
			"categories": map[string]interface{}{
				"multi_terms": map[string]interface{}{
					"terms": []interface{}{
						map[string]interface{}{"field": "category_id"},
						map[string]interface{}{"field": "category_name.keyword"},
					},
					"size": 100,
				},
			},
		},
	}

	var aggResp struct {
		Aggregations struct {
			Categories struct {
				Buckets []struct {
					Key      []string `json:"key"`
					DocCount int64    `json:"doc_count"`
				} `json:"buckets"`
			} `json:"categories"`
		} `json:"aggregations"`
	}
	if err := b.search(ctx, body, &aggResp); err != nil {
		return nil, fmt.Errorf("elasticsearch category counts: %w", err)
	}

	facets := make([]domain.CategoryFacet, 0, len(aggResp.Aggregations.Categories.Buckets))
	for _, bucket := range aggResp.Aggregations.Categories.Buckets {
		if len(bucket.Key) != 2 {
			continue
		}
		facets = append(facets, domain.CategoryFacet{
			CategoryID:   bucket.Key[0],
			CategoryName: bucket.Key[1],
			Count:        bucket.DocCount,
		})
	}
	return facets, nil
}

// BrandCounts returns per-brand match counts via a terms aggregation.
func (b *Backend) BrandCounts(ctx context.Context, set predicate.Set) ([]domain.BrandFacet, error) {
	body := map[string]interface{}{
		"query": buildBoolQuery(set),
		"size":  0,
		"aggs": map[string]interface{}{
			"brands": map[string]interface{}{
				"terms": map[string]interface{}{"field": "brand.keyword", "size": 100},
			},
		},
	}

	var aggResp struct {
		Aggregations struct {
			Brands struct {
				Buckets []struct {
					Key      string `json:"key"`
					DocCount int64  `json:"doc_count"`
				} `json:"buckets"`
			} `json:"brands"`
		} `json:"aggregations"`
	}
	if err := b.search(ctx, body, &aggResp); err != nil {
		return nil, fmt.Errorf("elasticsearch brand counts: %w", err)
	}

	facets := make([]domain.BrandFacet, 0, len(aggResp.Aggregations.Brands.Buckets))
	for _, bucket := range aggResp.Aggregations.Brands.Buckets {
		facets = append(facets, domain.BrandFacet{Brand: bucket.Key, Count: bucket.DocCount})
	}
	return facets, nil
}

// SpecificationCounts returns per-value counts of filterable attributes.
// The nested aggregation buckets by (attribute, display_name) and then by
// rendered value; reverse_nested climbs back to products so each product
// counts once per value.
func (b *Backend) SpecificationCounts(ctx context.Context, set predicate.Set, limit int) ([]backend.SpecValueCount, error) {
	body := map[string]interface{}{
		"query": buildBoolQuery(set),
		"size":  0,
		"aggs": map[string]interface{}{
			"specs": map[string]interface{}{
				"nested": map[string]interface{}{"path": "specifications"},
				"aggs": map[string]interface{}{
					"filterable": map[string]interface{}{
						"filter": map[string]interface{}{
							"term": map[string]interface{}{"specifications.is_filterable": true},
						},
						"aggs": map[string]interface{}{
							"attributes": map[string]interface{}{
								"multi_terms": map[string]interface{}{
									"terms": []interface{}{
										map[string]interface{}{"field": "specifications.attribute"},
										map[string]interface{}{"field": "specifications.display_name"},
									},
									"size": 50,
								},
								"aggs": map[string]interface{}{
									"values": map[string]interface{}{
										"terms": map[string]interface{}{
											"field": "specifications.value_label",
											"size":  limit,
										},
										"aggs": map[string]interface{}{
											"products": map[string]interface{}{
												"reverse_nested": map[string]interface{}{},
											},
										},
									},
								},
							},
						},
					},
				},
			},
		},
	}

	var aggResp struct {
		Aggregations struct {
			Specs struct {
				Filterable struct {
					Attributes struct {
						Buckets []struct {
							Key    []string `json:"key"`
							Values struct {
								Buckets []struct {
									Key      string `json:"key"`
									Products struct {
										DocCount int64 `json:"doc_count"`
									} `json:"products"`
								} `json:"buckets"`
							} `json:"values"`
						} `json:"buckets"`
					} `json:"attributes"`
				} `json:"filterable"`
			} `json:"specs"`
		} `json:"aggregations"`
	}
	if err := b.search(ctx, body, &aggResp); err != nil {
		return nil, fmt.Errorf("elasticsearch specification counts: %w", err)
	}

	var counts []backend.SpecValueCount
	for _, attrBucket := range aggResp.Aggregations.Specs.Filterable.Attributes.Buckets {
		if len(attrBucket.Key) != 2 {
			continue
		}
		for _, valueBucket := range attrBucket.Values.Buckets {
			counts = append(counts, backend.SpecValueCount{
				Attribute:   attrBucket.Key[0],
				DisplayName: attrBucket.Key[1],
				Value:       valueBucket.Key,
				Count:       valueBucket.Products.DocCount,
			})
		}
	}
	return counts, nil
}

// DeleteIndex removes the entire index. Administrative use only.
func (b *Backend) DeleteIndex(ctx context.Context) error {
	res, err := b.client.Indices.Delete(
		[]string{b.indexName},
		b.client.Indices.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch delete index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("elasticsearch delete index: %s", decodeError(res.Body, res.Status()))
	}
	return nil
}

// search runs one _search request and decodes the response into out.
func (b *Backend) search(ctx context.Context, body map[string]interface{}, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal query: %w", err)
	}

	res, err := b.client.Search(
		b.client.Search.WithIndex(b.indexName),
		b.client.Search.WithBody(bytes.NewReader(data)),
		b.client.Search.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("%s", decodeError(res.Body, res.Status()))
	}
	return json.NewDecoder(res.Body).Decode(out)
}

func decodeError(body io.Reader, status string) string {
	var errResp esErrorResponse
	if err := json.NewDecoder(body).Decode(&errResp); err == nil && errResp.Error.Type != "" {
		return fmt.Sprintf("%s: %s", errResp.Error.Type, errResp.Error.Reason)
	}
	return fmt.Sprintf("unexpected status %s", status)
}
