package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/shopfra/catalogsync/internal/index"
	"github.com/shopfra/catalogsync/internal/search"
	"github.com/shopfra/catalogsync/pkg/httputil"
)

// SearchHandler handles HTTP requests for the query path.
type SearchHandler struct {
	router *search.Router
	logger *slog.Logger
}

// NewSearchHandler creates a new search HTTP handler.
func NewSearchHandler(router *search.Router, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{
		router: router,
		logger: logger,
	}
}

// Search handles GET /api/v1/search
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := &index.Query{
		Text:   r.URL.Query().Get("q"),
		SortBy: r.URL.Query().Get("sort"),
	}

	if v := r.URL.Query().Get("category"); v != "" {
		query.Category = &v
	}
	if v := r.URL.Query().Get("size"); v != "" {
		query.Size = &v
	}
	if v := r.URL.Query().Get("color"); v != "" {
		query.Color = &v
	}
	if v := r.URL.Query().Get("min_price"); v != "" {
		price, err := strconv.ParseInt(v, 10, 64)
		if err != nil || price < 0 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "min_price must be a non-negative number"},
			})
			return
		}
		query.MinPrice = &price
	}
	if v := r.URL.Query().Get("max_price"); v != "" {
		price, err := strconv.ParseInt(v, 10, 64)
		if err != nil || price < 0 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "max_price must be a non-negative number"},
			})
			return
		}
		query.MaxPrice = &price
	}
	if query.MinPrice != nil && query.MaxPrice != nil && *query.MinPrice > *query.MaxPrice {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "min_price must not exceed max_price"},
		})
		return
	}
	if v := r.URL.Query().Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "page must be a valid positive integer"},
			})
			return
		}
		query.Page = page
	}
	if v := r.URL.Query().Get("per_page"); v != "" {
		perPage, err := strconv.Atoi(v)
		if err != nil || perPage < 1 || perPage > 100 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "per_page must be a valid integer between 1 and 100"},
			})
			return
		}
		query.PerPage = perPage
	}

	result, err := h.router.Search(r.Context(), query)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}
