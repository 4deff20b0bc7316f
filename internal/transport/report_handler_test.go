package transport

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"catalog-sync/internal/domain"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reportRequest(t *testing.T, target, role string) *http.Request {
	t.Helper()
	return withBearer(httptest.NewRequest(http.MethodGet, target, nil), signTestToken(t, "analyst", role))
}

func TestReportsRequireToken(t *testing.T) {
	api := newTestAPI()

	for _, path := range []string{"/api/reports/metrics", "/api/reports/inventory-health", "/api/reports/products"} {
		w := serve(api, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
	assert.Zero(t, api.reports.calls)
}

func TestReportsRejectUnknownRole(t *testing.T) {
	api := newTestAPI()

	w := serve(api, reportRequest(t, "/api/reports/metrics", "viewer"))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Zero(t, api.reports.calls)
}

func TestMetricsReport(t *testing.T) {
	api := newTestAPI()
	api.reports.metrics = &domain.Metrics{TotalRecords: 100, DeletedPercentage: 10, ActiveFilteredPercentage: 45.5}

	w := serve(api, reportRequest(t, "/api/reports/metrics?minPrice=20&startDate=2024-01-01&endDate=2024-01-31", domain.RoleReporter))

	require.Equal(t, http.StatusOK, w.Code)
	f := api.reports.lastFilter
	require.NotNil(t, f.MinPrice)
	assert.True(t, f.MinPrice.Equal(decimal.NewFromInt(20)))
	require.NotNil(t, f.StartDate)
	require.NotNil(t, f.EndDate)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *f.StartDate)
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), *f.EndDate)

	var body map[string]float64
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 100.0, body["totalRecords"])
	assert.Equal(t, 10.0, body["deletedPercentage"])
	assert.Equal(t, 45.5, body["activeFilteredPercentage"])
}

func TestMetricsReportWithoutFilters(t *testing.T) {
	api := newTestAPI()

	w := serve(api, reportRequest(t, "/api/reports/metrics", domain.RoleAdmin))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, api.reports.lastFilter.MinPrice)
	_, _, ok := api.reports.lastFilter.DateRange()
	assert.False(t, ok)
}

func TestMetricsReportRejectsBadQueries(t *testing.T) {
	cases := map[string]struct {
		query   string
		message string
	}{
		"start only":     {"startDate=2024-01-01", "Both startDate and endDate must be provided for date range filtering."},
		"end only":       {"endDate=2024-01-31", "Both startDate and endDate must be provided for date range filtering."},
		"bad format":     {"startDate=01/01/2024&endDate=2024-01-31", "validation failed"},
		"negative price": {"minPrice=-5", "validation failed"},
		"price not num":  {"minPrice=lots", "validation failed"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			api := newTestAPI()
			w := serve(api, reportRequest(t, "/api/reports/metrics?"+tc.query, domain.RoleReporter))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tc.message, decodeError(t, w).Error.Message)
			assert.Zero(t, api.reports.calls)
		})
	}
}

func TestMetricsReportStorageFailure(t *testing.T) {
	api := newTestAPI()
	api.reports.err = errors.New("connection reset")

	w := serve(api, reportRequest(t, "/api/reports/metrics", domain.RoleReporter))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "failed to build metrics report", decodeError(t, w).Error.Message)
}

func TestInventoryHealthReport(t *testing.T) {
	api := newTestAPI()
	api.reports.health = []domain.InventoryHealth{
		{Category: "Laptops", ActiveCount: 2, TotalStockValue: decimal.NewFromInt(3000), AverageStock: 3, AverageAgeDays: 12.5},
	}

	w := serve(api, reportRequest(t, "/api/reports/inventory-health?category=Laptops", domain.RoleReporter))

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, api.reports.lastCategory)
	assert.Equal(t, "Laptops", *api.reports.lastCategory)

	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "Laptops", rows[0]["category"])
	assert.Equal(t, "3000", rows[0]["totalStockValue"])
}

func TestInventoryHealthWithoutCategory(t *testing.T) {
	api := newTestAPI()

	w := serve(api, reportRequest(t, "/api/reports/inventory-health", domain.RoleReporter))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, api.reports.lastCategory)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestReportProductsHonoursIncludeDeleted(t *testing.T) {
	api := newTestAPI()

	w := serve(api, reportRequest(t, "/api/reports/products?includeDeleted=true&category=Phones", domain.RoleReporter))

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, api.catalog.lastFilter.IncludeDeleted)
	assert.Equal(t, "Phones", *api.catalog.lastFilter.Category)

	w = serve(api, reportRequest(t, "/api/reports/products?includeDeleted=maybe", domain.RoleReporter))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// Feature: catalog-sync, Property 21: A date range needs both bounds
func TestProperty_DateRangeRequiresBothBounds(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("exactly one bound is rejected", prop.ForAll(
		func(withStart, withEnd bool) bool {
			api := newTestAPI()
			target := "/api/reports/metrics?"
			if withStart {
				target += "startDate=2024-03-01&"
			}
			if withEnd {
				target += "endDate=2024-03-31"
			}

			w := serve(api, reportRequest(t, target, domain.RoleReporter))
			if withStart != withEnd {
				return w.Code == http.StatusBadRequest && api.reports.calls == 0
			}
			_, _, ranged := api.reports.lastFilter.DateRange()
			return w.Code == http.StatusOK && ranged == withStart
		},
		gen.Bool(),
		gen.Bool(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
