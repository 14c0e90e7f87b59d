// Package http exposes the catalog and search APIs over REST.
package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/luanvuhlu/compmarket/internal/domain"
	"github.com/luanvuhlu/compmarket/internal/search"
	"github.com/luanvuhlu/compmarket/pkg/httputil"
	"github.com/luanvuhlu/compmarket/pkg/pagination"
)

// specParamPrefix marks query parameters that carry attribute filters:
// ?spec.ram_size=16&spec.cpu=i7
const specParamPrefix = "spec."

// SearchHandler handles HTTP requests for search endpoints.
type SearchHandler struct {
	service *search.Service
	lister  search.ProductLister
	logger  *slog.Logger
}

// NewSearchHandler creates a new search HTTP handler. lister feeds the
// reindex endpoint and may be nil when no index rebuild source exists.
func NewSearchHandler(svc *search.Service, lister search.ProductLister, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{service: svc, lister: lister, logger: logger}
}

// Search handles GET /api/v1/search. Filters arrive as query parameters;
// attribute filters use the spec. prefix.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parseSearchRequest(w, r)
	if !ok {
		return
	}

	resp, err := h.service.Search(r.Context(), req, pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: resp})
}

// SearchPost handles POST /api/v1/search with the full request as JSON,
// for clients whose filter sets outgrow a query string.
func (h *SearchHandler) SearchPost(w http.ResponseWriter, r *http.Request) {
	var req domain.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_BODY", Message: "request body must be valid JSON"},
		})
		return
	}
	if !validSort(req.SortBy, req.SortOrder) {
		writeInvalidSort(w)
		return
	}

	resp, err := h.service.Search(r.Context(), &req, pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: resp})
}

// Suggest handles GET /api/v1/search/suggest.
func (h *SearchHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("q")

	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 50 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "limit must be between 1 and 50"},
			})
			return
		}
		limit = n
	}

	suggestions, err := h.service.Autocomplete(r.Context(), prefix, limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: suggestions})
}

// Reindex handles POST /api/v1/search/reindex, rebuilding the search
// index from the catalog store. Only available when the configured
// backend maintains a secondary index.
func (h *SearchHandler) Reindex(w http.ResponseWriter, r *http.Request) {
	if h.lister == nil {
		httputil.WriteJSON(w, http.StatusConflict, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "NOT_SUPPORTED", Message: "no catalog source configured for reindexing"},
		})
		return
	}

	indexed, err := h.service.Reindex(r.Context(), h.lister)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]int{"indexed": indexed}})
}

// Similar handles GET /api/v1/products/{id}/similar.
func (h *SearchHandler) Similar(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 50 {
			limit = n
		}
	}

	products, err := h.service.MoreLikeThis(r.Context(), id.String(), limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: products})
}

func (h *SearchHandler) parseSearchRequest(w http.ResponseWriter, r *http.Request) (*domain.SearchRequest, bool) {
	q := r.URL.Query()

	req := &domain.SearchRequest{
		Query:       strings.TrimSpace(q.Get("q")),
		CategoryIDs: q["category_id"],
		Brands:      q["brand"],
		SortBy:      q.Get("sort"),
		SortOrder:   q.Get("order"),
	}
	if !validSort(req.SortBy, req.SortOrder) {
		writeInvalidSort(w)
		return nil, false
	}

	if v := q.Get("min_price"); v != "" {
		price, ok := parsePrice(w, "min_price", v)
		if !ok {
			return nil, false
		}
		req.MinPrice = &price
	}
	if v := q.Get("max_price"); v != "" {
		price, ok := parsePrice(w, "max_price", v)
		if !ok {
			return nil, false
		}
		req.MaxPrice = &price
	}
	if v := q.Get("in_stock"); v != "" {
		req.InStock = v == "true" || v == "1"
	}

	for key, values := range q {
		if !strings.HasPrefix(key, specParamPrefix) || len(values) == 0 {
			continue
		}
		attr := strings.TrimPrefix(key, specParamPrefix)
		if attr == "" {
			continue
		}
		if req.Specifications == nil {
			req.Specifications = make(map[string]string)
		}
		req.Specifications[attr] = values[0]
	}

	return req, true
}

func parsePrice(w http.ResponseWriter, name, raw string) (int64, bool) {
	price, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || price < 0 {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{
				Code:    "INVALID_PARAMETER",
				Message: name + " must be a non-negative integer in cents",
			},
		})
		return 0, false
	}
	return price, true
}

func validSort(sortBy, order string) bool {
	if sortBy != "" && !domain.ValidSortBy(sortBy) {
		return false
	}
	return order == "" || order == domain.SortAsc || order == domain.SortDesc
}

func writeInvalidSort(w http.ResponseWriter) {
	httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
		Error: &httputil.ErrorResponse{
			Code:    "INVALID_PARAMETER",
			Message: "sort must be one of: relevance, price, name, newest; order must be asc or desc",
		},
	})
}
