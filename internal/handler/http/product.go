package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/luanvuhlu/compmarket/internal/catalog"
	"github.com/luanvuhlu/compmarket/pkg/httputil"
	"github.com/luanvuhlu/compmarket/pkg/validator"
)

// ProductHandler handles HTTP requests for catalog management endpoints.
type ProductHandler struct {
	service *catalog.Service
	logger  *slog.Logger
}

// NewProductHandler creates a new catalog HTTP handler.
func NewProductHandler(svc *catalog.Service, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{service: svc, logger: logger}
}

// CreateProduct handles POST /api/v1/products
// @Summary Create a product
// @Tags products
// @Accept json
// @Produce json
// @Param request body catalog.CreateProductInput true "Product to create"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/products [post]
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var input catalog.CreateProductInput
	if !decodeBody(w, r, &input) {
		return
	}

	product, err := h.service.CreateProduct(r.Context(), &input)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: product})
}

// GetProduct handles GET /api/v1/products/{id}
// @Summary Get product by ID
// @Tags products
// @Produce json
// @Param id path string true "Product UUID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/products/{id} [get]
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	detail, err := h.service.GetProduct(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: detail})
}

// UpdateProduct handles PUT /api/v1/products/{id}
// @Summary Update a product
// @Description Partially updates a product; all fields are optional
// @Tags products
// @Accept json
// @Produce json
// @Param id path string true "Product UUID"
// @Param request body catalog.UpdateProductInput true "Fields to update"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/products/{id} [put]
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var input catalog.UpdateProductInput
	if !decodeBody(w, r, &input) {
		return
	}

	product, err := h.service.UpdateProduct(r.Context(), id.String(), &input)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: product})
}

// DeleteProduct handles DELETE /api/v1/products/{id}. Deletion is a soft
// delete: the product is deactivated and drops out of search.
// @Summary Delete a product
// @Tags products
// @Produce json
// @Param id path string true "Product UUID"
// @Success 204 "No Content"
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/products/{id} [delete]
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteProduct(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetSpecifications handles PUT /api/v1/products/{id}/specifications.
// The body replaces the product's full specification set. Unknown
// attribute names or values that do not parse for the attribute's data
// type are rejected.
// @Summary Replace product specifications
// @Tags products
// @Accept json
// @Produce json
// @Param id path string true "Product UUID"
// @Param request body []catalog.SpecificationInput true "Specifications"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/products/{id}/specifications [put]
func (h *ProductHandler) SetSpecifications(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var inputs []catalog.SpecificationInput
	if !decodeBody(w, r, &inputs) {
		return
	}

	detail, err := h.service.SetSpecifications(r.Context(), id.String(), inputs)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: detail})
}

// ListCategories handles GET /api/v1/categories
// @Summary List categories
// @Tags categories
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/categories [get]
func (h *ProductHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: categories})
}

// CreateAttributeDefinition handles POST /api/v1/attributes
// @Summary Define a specification attribute
// @Tags attributes
// @Accept json
// @Produce json
// @Param request body catalog.AttributeDefinitionInput true "Attribute definition"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/attributes [post]
func (h *ProductHandler) CreateAttributeDefinition(w http.ResponseWriter, r *http.Request) {
	var input catalog.AttributeDefinitionInput
	if !decodeBody(w, r, &input) {
		return
	}

	def, err := h.service.CreateAttributeDefinition(r.Context(), &input)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: def})
}

// ListAttributeDefinitions handles GET /api/v1/attributes
// @Summary List specification attributes
// @Tags attributes
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/attributes [get]
func (h *ProductHandler) ListAttributeDefinitions(w http.ResponseWriter, r *http.Request) {
	defs, err := h.service.ListAttributeDefinitions(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: defs})
}

// writeServiceError routes validation failures to the field-level error
// shape and everything else through the shared error writer.
func (h *ProductHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		httputil.WriteValidationError(w, err)
		return
	}
	httputil.WriteError(w, r, err, h.logger)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return false
	}
	return true
}
