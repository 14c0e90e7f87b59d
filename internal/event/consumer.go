package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/luanvuhlu/compmarket/internal/catalog"
	"github.com/luanvuhlu/compmarket/internal/search/backend"
	apperrors "github.com/luanvuhlu/compmarket/pkg/errors"
	pkgkafka "github.com/luanvuhlu/compmarket/pkg/kafka"
)

// Consumer applies product change events to a secondary search index.
// It re-fetches each changed product from the catalog rather than
// trusting the event payload, so the index always converges on the
// database state even when events arrive out of order.
type Consumer struct {
	repo    catalog.Repository
	indexer backend.Indexer
	logger  *slog.Logger
}

// NewConsumer creates an index-sync consumer.
func NewConsumer(repo catalog.Repository, indexer backend.Indexer, logger *slog.Logger) *Consumer {
	return &Consumer{repo: repo, indexer: indexer, logger: logger}
}

// Topics returns the Kafka topics this consumer subscribes to.
func (c *Consumer) Topics() []string {
	return []string{TopicProductCreated, TopicProductUpdated, TopicProductDeleted}
}

// Handle processes one product event.
func (c *Consumer) Handle(ctx context.Context, event *pkgkafka.Event) error {
	switch event.EventType {
	case TopicProductCreated, TopicProductUpdated:
		return c.reindex(ctx, event)
	case TopicProductDeleted:
		return c.remove(ctx, event)
	default:
		c.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}
}

func (c *Consumer) reindex(ctx context.Context, event *pkgkafka.Event) error {
	var data ProductEventData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal product event data: %w", err)
	}

	detail, err := c.repo.GetProduct(ctx, data.ID)
	if err != nil {
		// A product that vanished between event and fetch just gets
		// dropped from the index.
		if errors.Is(err, apperrors.ErrNotFound) {
			return c.indexer.Delete(ctx, data.ID)
		}
		return fmt.Errorf("fetch product %s: %w", data.ID, err)
	}

	if !detail.IsActive {
		if err := c.indexer.Delete(ctx, detail.ID); err != nil {
			return fmt.Errorf("deindex inactive product %s: %w", detail.ID, err)
		}
		c.logger.InfoContext(ctx, "removed inactive product from index",
			slog.String("product_id", detail.ID))
		return nil
	}

	doc := backend.Document{Product: detail.Product, Specs: detail.Specifications}
	if err := c.indexer.Index(ctx, doc); err != nil {
		return fmt.Errorf("index product %s: %w", detail.ID, err)
	}

	c.logger.InfoContext(ctx, "indexed product from event",
		slog.String("product_id", detail.ID),
		slog.String("event_type", event.EventType),
	)
	return nil
}

func (c *Consumer) remove(ctx context.Context, event *pkgkafka.Event) error {
	var data ProductDeletedData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal product.deleted data: %w", err)
	}

	if err := c.indexer.Delete(ctx, data.ID); err != nil {
		return fmt.Errorf("remove product %s from index: %w", data.ID, err)
	}

	c.logger.InfoContext(ctx, "removed product from index",
		slog.String("product_id", data.ID))
	return nil
}
