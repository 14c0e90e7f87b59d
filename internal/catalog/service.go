package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/luanvuhlu/compmarket/internal/domain"
	apperrors "github.com/luanvuhlu/compmarket/pkg/errors"
	"github.com/luanvuhlu/compmarket/pkg/logger"
	"github.com/luanvuhlu/compmarket/pkg/validator"
)

// Publisher emits product change events. Nil-safe from the service's
// point of view: without a publisher, writes simply do not emit events.
type Publisher interface {
	PublishProductCreated(ctx context.Context, product *domain.Product) error
	PublishProductUpdated(ctx context.Context, product *domain.Product) error
	PublishProductDeleted(ctx context.Context, id string) error
}

// Service implements catalog business logic: validation, identity,
// timestamps and event emission around the repository.
type Service struct {
	repo      Repository
	publisher Publisher
	logger    *slog.Logger
}

// NewService creates a catalog service. publisher may be nil.
func NewService(repo Repository, publisher Publisher, log *slog.Logger) *Service {
	return &Service{repo: repo, publisher: publisher, logger: log}
}

// CreateProductInput holds the parameters for creating a product.
type CreateProductInput struct {
	CategoryID    string   `json:"category_id" validate:"required,uuid4"`
	Name          string   `json:"name" validate:"required,min=2,max=255"`
	Description   string   `json:"description" validate:"max=5000"`
	SKU           string   `json:"sku" validate:"required,min=2,max=64"`
	Price         int64    `json:"price" validate:"required,gt=0"`
	DiscountPrice *int64   `json:"discount_price,omitempty" validate:"omitempty,gt=0"`
	StockQuantity int      `json:"stock_quantity" validate:"gte=0"`
	Brand         *string  `json:"brand,omitempty" validate:"omitempty,max=128"`
	Model         string   `json:"model,omitempty" validate:"max=128"`
	Images        []string `json:"images,omitempty" validate:"dive,url"`
}

// UpdateProductInput holds the parameters for updating a product. Nil
// fields keep their current value.
type UpdateProductInput struct {
	CategoryID    *string  `json:"category_id,omitempty" validate:"omitempty,uuid4"`
	Name          *string  `json:"name,omitempty" validate:"omitempty,min=2,max=255"`
	Description   *string  `json:"description,omitempty" validate:"omitempty,max=5000"`
	Price         *int64   `json:"price,omitempty" validate:"omitempty,gt=0"`
	DiscountPrice *int64   `json:"discount_price,omitempty" validate:"omitempty,gt=0"`
	StockQuantity *int     `json:"stock_quantity,omitempty" validate:"omitempty,gte=0"`
	Brand         *string  `json:"brand,omitempty" validate:"omitempty,max=128"`
	Model         *string  `json:"model,omitempty" validate:"omitempty,max=128"`
	Images        []string `json:"images,omitempty" validate:"dive,url"`
}

// SpecificationInput is one attribute value to assign to a product.
type SpecificationInput struct {
	AttributeName string `json:"attribute_name" validate:"required"`
	Value         string `json:"value" validate:"required"`
}

// AttributeDefinitionInput holds the parameters for defining an attribute.
type AttributeDefinitionInput struct {
	Name         string  `json:"name" validate:"required,min=2,max=64"`
	DisplayName  string  `json:"display_name" validate:"required,min=2,max=128"`
	DataType     string  `json:"data_type" validate:"required"`
	Unit         *string `json:"unit,omitempty" validate:"omitempty,max=16"`
	IsFilterable bool    `json:"is_filterable"`
	IsSearchable bool    `json:"is_searchable"`
	SortOrder    int     `json:"sort_order" validate:"gte=0"`
}

// CreateProduct validates the input and inserts a new active product.
func (s *Service) CreateProduct(ctx context.Context, input *CreateProductInput) (*domain.Product, error) {
	if err := validator.Validate(input); err != nil {
		return nil, err
	}
	if input.DiscountPrice != nil && *input.DiscountPrice >= input.Price {
		return nil, apperrors.InvalidInput("discount price must be below the list price")
	}

	now := time.Now().UTC()
	p := &domain.Product{
		ID:            uuid.New().String(),
		CategoryID:    input.CategoryID,
		Name:          strings.TrimSpace(input.Name),
		Description:   input.Description,
		SKU:           strings.TrimSpace(input.SKU),
		Price:         input.Price,
		DiscountPrice: input.DiscountPrice,
		StockQuantity: input.StockQuantity,
		Brand:         input.Brand,
		Model:         input.Model,
		IsActive:      true,
		Images:        input.Images,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return nil, err
	}

	s.publish(ctx, func(pub Publisher) error { return pub.PublishProductCreated(ctx, p) })
	return p, nil
}

// GetProduct returns a product with its specifications.
func (s *Service) GetProduct(ctx context.Context, id string) (*domain.ProductDetail, error) {
	return s.repo.GetProduct(ctx, id)
}

// UpdateProduct applies the given changes and returns the updated product.
func (s *Service) UpdateProduct(ctx context.Context, id string, input *UpdateProductInput) (*domain.Product, error) {
	if err := validator.Validate(input); err != nil {
		return nil, err
	}

	detail, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	p := detail.Product

	if input.CategoryID != nil {
		p.CategoryID = *input.CategoryID
	}
	if input.Name != nil {
		p.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		p.Description = *input.Description
	}
	if input.Price != nil {
		p.Price = *input.Price
	}
	if input.DiscountPrice != nil {
		p.DiscountPrice = input.DiscountPrice
	}
	if input.StockQuantity != nil {
		p.StockQuantity = *input.StockQuantity
	}
	if input.Brand != nil {
		p.Brand = input.Brand
	}
	if input.Model != nil {
		p.Model = *input.Model
	}
	if input.Images != nil {
		p.Images = input.Images
	}
	if p.DiscountPrice != nil && *p.DiscountPrice >= p.Price {
		return nil, apperrors.InvalidInput("discount price must be below the list price")
	}
	p.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateProduct(ctx, &p); err != nil {
		return nil, err
	}

	s.publish(ctx, func(pub Publisher) error { return pub.PublishProductUpdated(ctx, &p) })
	return &p, nil
}

// DeleteProduct soft-deletes a product and announces its removal.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, func(pub Publisher) error { return pub.PublishProductDeleted(ctx, id) })
	return nil
}

// SetSpecifications replaces a product's specification rows. Unlike the
// search side, the write side is strict: unknown attributes and values
// that do not coerce to the declared type are rejected.
func (s *Service) SetSpecifications(ctx context.Context, productID string, inputs []SpecificationInput) (*domain.ProductDetail, error) {
	detail, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	defs, err := s.repo.Definitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load attribute definitions: %w", err)
	}

	specs := make([]domain.ProductSpecification, 0, len(inputs))
	seen := make(map[string]bool)
	for _, input := range inputs {
		if err := validator.Validate(&input); err != nil {
			return nil, err
		}

		name := domain.NormalizeAttributeName(input.AttributeName)
		def, ok := defs[name]
		if !ok {
			return nil, apperrors.InvalidInput(fmt.Sprintf("unknown attribute %q", input.AttributeName))
		}
		if seen[name] {
			return nil, apperrors.InvalidInput(fmt.Sprintf("duplicate attribute %q", input.AttributeName))
		}
		seen[name] = true

		spec, err := coerceSpecification(def, input.Value)
		if err != nil {
			return nil, err
		}
		spec.ProductID = productID
		specs = append(specs, spec)
	}

	if err := s.repo.ReplaceSpecifications(ctx, productID, specs); err != nil {
		return nil, err
	}

	s.publish(ctx, func(pub Publisher) error { return pub.PublishProductUpdated(ctx, &detail.Product) })
	return s.repo.GetProduct(ctx, productID)
}

// ListCategories returns the active categories.
func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.repo.ListCategories(ctx)
}

// CreateAttributeDefinition validates and stores a new attribute
// definition. Names are stored normalized so lookups stay
// case-insensitive.
func (s *Service) CreateAttributeDefinition(ctx context.Context, input *AttributeDefinitionInput) (*domain.AttributeDefinition, error) {
	if err := validator.Validate(input); err != nil {
		return nil, err
	}
	if !domain.IsValidDataType(input.DataType) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid data type %q", input.DataType))
	}

	now := time.Now().UTC()
	def := &domain.AttributeDefinition{
		ID:           uuid.New().String(),
		Name:         domain.NormalizeAttributeName(input.Name),
		DisplayName:  strings.TrimSpace(input.DisplayName),
		DataType:     domain.AttributeDataType(input.DataType),
		Unit:         input.Unit,
		IsFilterable: input.IsFilterable,
		IsSearchable: input.IsSearchable,
		SortOrder:    input.SortOrder,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.CreateAttributeDefinition(ctx, def); err != nil {
		return nil, err
	}
	return def, nil
}

// ListAttributeDefinitions returns all attribute definitions.
func (s *Service) ListAttributeDefinitions(ctx context.Context) ([]domain.AttributeDefinition, error) {
	return s.repo.ListAttributeDefinitions(ctx)
}

// publish runs fn against the publisher if one is configured. Event
// emission is best effort: the write already committed, so a publish
// failure is logged and swallowed.
func (s *Service) publish(ctx context.Context, fn func(Publisher) error) {
	if s.publisher == nil {
		return
	}
	if err := fn(s.publisher); err != nil {
		logger.WithContext(ctx, s.logger).Error("publish product event failed", "error", err)
	}
}

// coerceSpecification turns a raw value string into a typed
// specification row for the given definition.
func coerceSpecification(def domain.AttributeDefinition, raw string) (domain.ProductSpecification, error) {
	spec := domain.ProductSpecification{
		ID:           uuid.New().String(),
		AttributeID:  def.ID,
		Attribute:    def.Name,
		DisplayName:  def.DisplayName,
		DataType:     def.DataType,
		Unit:         def.Unit,
		IsFilterable: def.IsFilterable,
	}

	raw = strings.TrimSpace(raw)
	switch def.DataType {
	case domain.DataTypeString, domain.DataTypeEnum:
		spec.ValueString = &raw
	case domain.DataTypeNumeric:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return spec, apperrors.InvalidInput(fmt.Sprintf("attribute %q expects a numeric value, got %q", def.Name, raw))
		}
		spec.ValueNumeric = &n
	case domain.DataTypeBoolean:
		b, err := strconv.ParseBool(strings.ToLower(raw))
		if err != nil {
			return spec, apperrors.InvalidInput(fmt.Sprintf("attribute %q expects a boolean value, got %q", def.Name, raw))
		}
		spec.ValueBoolean = &b
	default:
		return spec, apperrors.InvalidInput(fmt.Sprintf("attribute %q has unsupported data type %q", def.Name, def.DataType))
	}
	return spec, nil
}
