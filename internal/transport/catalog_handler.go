package transport

import (
	"errors"
	"fmt"
	"net/http"

	"catalog-sync/internal/middleware"
	"catalog-sync/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CatalogHandler handles HTTP requests for catalog products
type CatalogHandler struct {
	catalogService service.CatalogService
	logger         *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalogService service.CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		logger:         logger,
	}
}

// RegisterRoutes registers the public product routes
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Delete("/{sku}", h.DeleteProduct)
	})
}

// ListProducts returns one page of live products matching the query
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	params, validationErrors := parseProductsQuery(r.URL.Query(), false)
	if len(validationErrors) > 0 {
		h.logger.Debug("Products query validation failed", zap.Any("errors", validationErrors))
		middleware.RespondWithValidationErrors(w, validationErrors)
		return
	}

	page := h.catalogService.Query(r.Context(), params.filter())
	middleware.RespondWithJSON(w, http.StatusOK, page)
}

// DeleteProduct soft-deletes the live product with the given SKU
func (h *CatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	sku := chi.URLParam(r, "sku")

	if err := h.catalogService.Delete(r.Context(), sku); err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, fmt.Sprintf("Product with SKU %q not found.", sku))
			return
		}

		h.logger.Error("Failed to delete product", zap.String("sku", sku), zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete product")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
