package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/luanvuhlu/compmarket/internal/domain"
	"github.com/luanvuhlu/compmarket/internal/search/backend"
	apperrors "github.com/luanvuhlu/compmarket/pkg/errors"
	"github.com/luanvuhlu/compmarket/pkg/logger"
)

// reindexBatchSize is how many products one catalog read and one bulk
// index request cover.
const reindexBatchSize = 200

// ProductLister walks the catalog store in stable batches, used to
// rebuild a secondary index from scratch.
type ProductLister interface {
	ListProducts(ctx context.Context, offset, limit int) ([]domain.ProductDetail, error)
}

// Reindex rebuilds the backend's index from the catalog store. Inactive
// products are skipped; documents already in the index are replaced.
// Returns the number of products indexed.
func (s *Service) Reindex(ctx context.Context, lister ProductLister) (int, error) {
	indexer, ok := s.backend.(backend.Indexer)
	if !ok {
		return 0, apperrors.InvalidInput("search backend does not maintain a secondary index")
	}

	indexed := 0
	for offset := 0; ; offset += reindexBatchSize {
		details, err := lister.ListProducts(ctx, offset, reindexBatchSize)
		if err != nil {
			return indexed, fmt.Errorf("reindex: list products: %w", err)
		}
		if len(details) == 0 {
			break
		}

		docs := make([]backend.Document, 0, len(details))
		for _, d := range details {
			if !d.IsActive {
				continue
			}
			docs = append(docs, backend.Document{Product: d.Product, Specs: d.Specifications})
		}
		if len(docs) > 0 {
			if err := indexer.BulkIndex(ctx, docs); err != nil {
				return indexed, fmt.Errorf("reindex: bulk index: %w", err)
			}
			indexed += len(docs)
		}

		if len(details) < reindexBatchSize {
			break
		}
	}

	logger.WithContext(ctx, s.logger).Info("reindex complete", slog.Int("indexed", indexed))
	return indexed, nil
}
