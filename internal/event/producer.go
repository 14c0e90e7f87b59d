// Package event connects the catalog to the search index: the producer
// publishes product change events, the consumer applies them to a
// secondary index backend.
package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/luanvuhlu/compmarket/internal/domain"
	pkgkafka "github.com/luanvuhlu/compmarket/pkg/kafka"
)

// Kafka topics for product domain events.
var (
	TopicProductCreated = pkgkafka.Topic("product", "created")
	TopicProductUpdated = pkgkafka.Topic("product", "updated")
	TopicProductDeleted = pkgkafka.Topic("product", "deleted")
)

const (
	aggregateTypeProduct = "product"
	sourceCatalog        = "catalog-service"
)

// ProductEventData is the payload of product.created and product.updated
// events. Consumers re-fetch the full product; the payload identifies it
// and carries a few fields for logging and routing.
type ProductEventData struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	SKU      string `json:"sku"`
	IsActive bool   `json:"is_active"`
}

// ProductDeletedData is the payload of a product.deleted event.
type ProductDeletedData struct {
	ID string `json:"id"`
}

// Producer publishes product domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates an event producer for the catalog.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: logger}
}

// PublishProductCreated publishes a product.created event.
func (p *Producer) PublishProductCreated(ctx context.Context, product *domain.Product) error {
	return p.publishChange(ctx, TopicProductCreated, product)
}

// PublishProductUpdated publishes a product.updated event.
func (p *Producer) PublishProductUpdated(ctx context.Context, product *domain.Product) error {
	return p.publishChange(ctx, TopicProductUpdated, product)
}

func (p *Producer) publishChange(ctx context.Context, topic string, product *domain.Product) error {
	data := ProductEventData{
		ID:       product.ID,
		Name:     product.Name,
		SKU:      product.SKU,
		IsActive: product.IsActive,
	}

	event, err := pkgkafka.NewEvent(topic, product.ID, aggregateTypeProduct, sourceCatalog, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published product event",
		slog.String("topic", topic),
		slog.String("product_id", product.ID),
	)
	return nil
}

// PublishProductDeleted publishes a product.deleted event.
func (p *Producer) PublishProductDeleted(ctx context.Context, id string) error {
	event, err := pkgkafka.NewEvent(TopicProductDeleted, id, aggregateTypeProduct, sourceCatalog, ProductDeletedData{ID: id})
	if err != nil {
		return fmt.Errorf("create product.deleted event: %w", err)
	}
	if err := p.kafka.Publish(ctx, TopicProductDeleted, event); err != nil {
		return fmt.Errorf("publish product.deleted event: %w", err)
	}

	p.logger.DebugContext(ctx, "published product event",
		slog.String("topic", TopicProductDeleted),
		slog.String("product_id", id),
	)
	return nil
}
