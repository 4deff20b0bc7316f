package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CatalogRecord is a product reconciled from the external content source.
// Rows are keyed by SKU and are soft-deleted, never removed.
type CatalogRecord struct {
	SKU              string          `json:"sku" db:"sku"`
	IdentityKey      string          `json:"identityKey" db:"identity_key"`
	Name             string          `json:"name" db:"name"`
	Brand            string          `json:"brand" db:"brand"`
	Model            string          `json:"model" db:"model"`
	Category         string          `json:"category" db:"category"`
	Color            *string         `json:"color" db:"color"`
	Price            decimal.Decimal `json:"price" db:"price"`
	Currency         string          `json:"currency" db:"currency"`
	StockQuantity    int             `json:"stockQuantity" db:"stock_quantity"`
	SourceCreatedAt  time.Time       `json:"sourceCreatedAt" db:"source_created_at"`
	SourceUpdatedAt  time.Time       `json:"sourceUpdatedAt" db:"source_updated_at"`
	SoftDeletedAt    *time.Time      `json:"softDeletedAt,omitempty" db:"soft_deleted_at"`
	ResidualMetadata map[string]any  `json:"residualMetadata" db:"residual_metadata"`
}

// IsDeleted reports whether the record has been soft-deleted.
func (r *CatalogRecord) IsDeleted() bool {
	return r.SoftDeletedAt != nil
}

// UpsertResult tells whether an upsert created a new row or replaced one.
type UpsertResult int

const (
	UpsertInserted UpsertResult = iota + 1
	UpsertUpdated
)

func (r UpsertResult) String() string {
	switch r {
	case UpsertInserted:
		return "inserted"
	case UpsertUpdated:
		return "updated"
	default:
		return "unknown"
	}
}

// QueryFilter narrows a catalog query. Nil fields are not applied; a zero
// Page or Limit falls back to the configured defaults.
type QueryFilter struct {
	Category       *string
	Brand          *string
	Model          *string
	Color          *string
	Currency       *string
	MinPrice       *decimal.Decimal
	MaxPrice       *decimal.Decimal
	Page           int
	Limit          int
	IncludeDeleted bool
}

// Page is one slice of a filtered catalog query.
type Page struct {
	Items      []*CatalogRecord `json:"data"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"totalPages"`
}

// ReportFilter constrains the active-record share of the metrics report.
type ReportFilter struct {
	MinPrice  *decimal.Decimal
	StartDate *time.Time
	EndDate   *time.Time
}

// DateRange returns the closed creation-date range when both bounds are set.
// A partial pair is treated as no range.
func (f ReportFilter) DateRange() (start, end time.Time, ok bool) {
	if f.StartDate == nil || f.EndDate == nil {
		return time.Time{}, time.Time{}, false
	}
	return *f.StartDate, *f.EndDate, true
}

// Metrics is the point-in-time ratio report over the whole store.
type Metrics struct {
	TotalRecords             int64   `json:"totalRecords"`
	DeletedPercentage        float64 `json:"deletedPercentage"`
	ActiveFilteredPercentage float64 `json:"activeFilteredPercentage"`
}

// InventoryHealth aggregates live records of one category.
type InventoryHealth struct {
	Category        string          `json:"category"`
	ActiveCount     int64           `json:"activeCount"`
	TotalStockValue decimal.Decimal `json:"totalStockValue"`
	AverageStock    int64           `json:"averageStock"`
	AverageAgeDays  float64         `json:"averageAgeDays"`
}
