package transport

import (
	"net/http"
	"time"

	"catalog-sync/internal/domain"
	"catalog-sync/internal/middleware"
	"catalog-sync/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// MetricsQuery represents the metrics report query
type MetricsQuery struct {
	StartDate string `query:"startDate" validate:"required_with=EndDate,omitempty,datetime=2006-01-02"`
	EndDate   string `query:"endDate" validate:"required_with=StartDate,omitempty,datetime=2006-01-02"`
}

// ReportHandler serves the protected report routes
type ReportHandler struct {
	reportService  service.ReportService
	catalogService service.CatalogService
	logger         *zap.Logger
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reportService service.ReportService, catalogService service.CatalogService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		reportService:  reportService,
		catalogService: catalogService,
		logger:         logger,
	}
}

// RegisterRoutes registers the report routes behind authentication and the
// reporter role guard
func (h *ReportHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/reports", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(middleware.RequireReporter(h.logger))

		r.Get("/metrics", h.Metrics)
		r.Get("/inventory-health", h.InventoryHealth)
		r.Get("/products", h.Products)
	})
}

// Metrics returns the deleted and filtered-active shares of the catalog
func (h *ReportHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	q := newQueryReader(values)
	query := MetricsQuery{
		StartDate: values.Get("startDate"),
		EndDate:   values.Get("endDate"),
	}

	filter := domain.ReportFilter{MinPrice: q.number("minPrice")}
	if len(q.errs) > 0 {
		middleware.RespondWithValidationErrors(w, q.errs)
		return
	}
	if filter.MinPrice != nil && filter.MinPrice.IsNegative() {
		q.fail("minPrice", "Value must be greater than or equal to 0")
		middleware.RespondWithValidationErrors(w, q.errs)
		return
	}

	if err := middleware.ValidateRequest(&query); err != nil {
		h.logger.Debug("Metrics query validation failed", zap.Error(err))
		validationErrors := middleware.FormatValidationErrors(err)
		if (query.StartDate == "") != (query.EndDate == "") {
			middleware.RespondWithErrorDetails(w, http.StatusBadRequest,
				"Both startDate and endDate must be provided for date range filtering.",
				map[string]interface{}{"validation_errors": validationErrors},
			)
			return
		}
		middleware.RespondWithValidationErrors(w, validationErrors)
		return
	}

	if query.StartDate != "" {
		start, _ := time.Parse(dateLayout, query.StartDate)
		end, _ := time.Parse(dateLayout, query.EndDate)
		filter.StartDate = &start
		filter.EndDate = &end
	}

	metrics, err := h.reportService.Metrics(r.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to build metrics report", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to build metrics report")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, metrics)
}

// InventoryHealth returns per-category aggregates of live products
func (h *ReportHandler) InventoryHealth(w http.ResponseWriter, r *http.Request) {
	category := newQueryReader(r.URL.Query()).str("category")

	report, err := h.reportService.InventoryHealth(r.Context(), category)
	if err != nil {
		h.logger.Error("Failed to build inventory health report", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to build inventory health report")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, report)
}

// Products is the products listing with soft-deleted rows available on request
func (h *ReportHandler) Products(w http.ResponseWriter, r *http.Request) {
	params, validationErrors := parseProductsQuery(r.URL.Query(), true)
	if len(validationErrors) > 0 {
		middleware.RespondWithValidationErrors(w, validationErrors)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, h.catalogService.Query(r.Context(), params.filter()))
}
