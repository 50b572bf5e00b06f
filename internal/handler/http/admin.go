package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/shopfra/catalogsync/internal/index"
	catalogsync "github.com/shopfra/catalogsync/internal/sync"
	"github.com/shopfra/catalogsync/pkg/httputil"
)

// AdminHandler exposes operational endpoints for index maintenance.
type AdminHandler struct {
	reconciler  *catalogsync.Reconciler
	coordinator *catalogsync.Coordinator
	indexer     index.Indexer
	logger      *slog.Logger
}

// NewAdminHandler creates a new admin HTTP handler.
func NewAdminHandler(reconciler *catalogsync.Reconciler, coordinator *catalogsync.Coordinator, indexer index.Indexer, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		reconciler:  reconciler,
		coordinator: coordinator,
		indexer:     indexer,
		logger:      logger,
	}
}

// Reconcile handles POST /api/v1/admin/reconcile
// With ?wait=true the run executes synchronously and the summary is returned.
// Otherwise the run is started in the background and 202 is returned.
func (h *AdminHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("wait") == "true" {
		summary, err := h.reconciler.Run(r.Context())
		if err != nil {
			httputil.WriteError(w, r, err, h.logger)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: summary})
		return
	}

	// Detach from the request context so the run survives the response.
	ctx := context.WithoutCancel(r.Context())
	go func() {
		if _, err := h.reconciler.Run(ctx); err != nil {
			h.logger.ErrorContext(ctx, "background reconciliation failed",
				slog.String("error", err.Error()),
			)
		}
	}()

	httputil.WriteJSON(w, http.StatusAccepted, httputil.Response{Data: map[string]string{
		"status": "reconciliation started",
	}})
}

// DropIndex handles DELETE /api/v1/admin/index
// The index is recreated on the next propagation or reconciliation.
func (h *AdminHandler) DropIndex(w http.ResponseWriter, r *http.Request) {
	if err := h.indexer.DeleteIndex(r.Context()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	// The next propagation must recreate the index with its mapping.
	h.coordinator.Reset()

	h.logger.InfoContext(r.Context(), "search index dropped")
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{
		"status": "index dropped",
	}})
}
