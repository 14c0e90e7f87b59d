package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/luanvuhlu/compmarket/internal/domain"
)

const (
	definitionsKey   = "catalog:attribute_definitions"
	productKeyPrefix = "catalog:product:"
)

// CachedRepository decorates a Repository with Redis caching for the two
// read paths search hits on every request: attribute definitions and
// single-product lookups. Cache failures degrade to the underlying
// repository; they are logged, never returned.
type CachedRepository struct {
	Repository

	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedRepository wraps repo with a Redis cache.
func NewCachedRepository(repo Repository, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedRepository {
	return &CachedRepository{
		Repository: repo,
		client:     client,
		ttl:        ttl,
		logger:     logger,
	}
}

// Definitions serves the attribute definition map from Redis when
// possible.
func (c *CachedRepository) Definitions(ctx context.Context) (map[string]domain.AttributeDefinition, error) {
	data, err := c.client.Get(ctx, definitionsKey).Bytes()
	if err == nil {
		var defs map[string]domain.AttributeDefinition
		if err := json.Unmarshal(data, &defs); err == nil {
			return defs, nil
		}
		c.logger.Warn("corrupt cached attribute definitions, refetching")
	} else if err != redis.Nil {
		c.logger.Warn("redis get attribute definitions failed", "error", err)
	}

	defs, err := c.Repository.Definitions(ctx)
	if err != nil {
		return nil, err
	}
	c.store(ctx, definitionsKey, defs)
	return defs, nil
}

// GetProduct serves product detail lookups from Redis when possible.
func (c *CachedRepository) GetProduct(ctx context.Context, id string) (*domain.ProductDetail, error) {
	key := productKeyPrefix + id

	data, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var detail domain.ProductDetail
		if err := json.Unmarshal(data, &detail); err == nil {
			return &detail, nil
		}
		c.logger.Warn("corrupt cached product, refetching", "id", id)
	} else if err != redis.Nil {
		c.logger.Warn("redis get product failed", "id", id, "error", err)
	}

	detail, err := c.Repository.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, detail)
	return detail, nil
}

// UpdateProduct writes through and drops the cached product.
func (c *CachedRepository) UpdateProduct(ctx context.Context, p *domain.Product) error {
	if err := c.Repository.UpdateProduct(ctx, p); err != nil {
		return err
	}
	c.invalidate(ctx, productKeyPrefix+p.ID)
	return nil
}

// DeleteProduct writes through and drops the cached product.
func (c *CachedRepository) DeleteProduct(ctx context.Context, id string) error {
	if err := c.Repository.DeleteProduct(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx, productKeyPrefix+id)
	return nil
}

// ReplaceSpecifications writes through and drops the cached product.
func (c *CachedRepository) ReplaceSpecifications(ctx context.Context, productID string, specs []domain.ProductSpecification) error {
	if err := c.Repository.ReplaceSpecifications(ctx, productID, specs); err != nil {
		return err
	}
	c.invalidate(ctx, productKeyPrefix+productID)
	return nil
}

// CreateAttributeDefinition writes through and drops the cached
// definition map.
func (c *CachedRepository) CreateAttributeDefinition(ctx context.Context, def *domain.AttributeDefinition) error {
	if err := c.Repository.CreateAttributeDefinition(ctx, def); err != nil {
		return err
	}
	c.invalidate(ctx, definitionsKey)
	return nil
}

func (c *CachedRepository) store(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("marshal cache entry failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("redis set failed", "key", key, "error", err)
	}
}

func (c *CachedRepository) invalidate(ctx context.Context, key string) {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Warn(fmt.Sprintf("redis del %s failed", key), "error", err)
	}
}
