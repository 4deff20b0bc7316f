package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"catalog-sync/internal/domain"
)

var (
	ErrRecordNotFound = errors.New("catalog record not found")
	ErrPageOutOfRange = errors.New("page offset out of range")
)

const catalogColumns = `sku, identity_key, name, brand, model, category, color, price, currency,
		stock_quantity, source_created_at, source_updated_at, soft_deleted_at, residual_metadata`

// CatalogRepository defines the interface for catalog record data access
type CatalogRepository interface {
	Upsert(ctx context.Context, record *domain.CatalogRecord) (domain.UpsertResult, error)
	SoftDelete(ctx context.Context, sku string) error
	FindBySKU(ctx context.Context, sku string, includeDeleted bool) (*domain.CatalogRecord, error)
	List(ctx context.Context, filter domain.QueryFilter, page, pageSize int) ([]*domain.CatalogRecord, int, error)
	CountAll(ctx context.Context) (int64, error)
	CountDeleted(ctx context.Context) (int64, error)
	CountActiveFiltered(ctx context.Context, filter domain.ReportFilter) (int64, error)
	InventoryHealth(ctx context.Context, category *string, asOf time.Time) ([]domain.InventoryHealth, error)
}

type catalogRepository struct {
	db *sql.DB
}

// NewCatalogRepository creates a new instance of CatalogRepository
func NewCatalogRepository(db *sql.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

// Upsert inserts the record or fully replaces the row with the same SKU in a
// single statement. identity_key and soft_deleted_at are never overwritten.
func (r *catalogRepository) Upsert(ctx context.Context, record *domain.CatalogRecord) (domain.UpsertResult, error) {
	metadata, err := json.Marshal(residualOrEmpty(record.ResidualMetadata))
	if err != nil {
		return 0, fmt.Errorf("failed to encode residual metadata: %w", err)
	}

	query := `
		INSERT INTO catalog_records (
			sku, identity_key, name, brand, model, category, color, price, currency,
			stock_quantity, source_created_at, source_updated_at, residual_metadata
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (sku) DO UPDATE SET
			name = EXCLUDED.name,
			brand = EXCLUDED.brand,
			model = EXCLUDED.model,
			category = EXCLUDED.category,
			color = EXCLUDED.color,
			price = EXCLUDED.price,
			currency = EXCLUDED.currency,
			stock_quantity = EXCLUDED.stock_quantity,
			source_created_at = EXCLUDED.source_created_at,
			source_updated_at = EXCLUDED.source_updated_at,
			residual_metadata = EXCLUDED.residual_metadata
		RETURNING (xmax = 0) AS inserted
	`

	// xmax is zero only for a freshly inserted tuple
	var inserted bool
	err = r.db.QueryRowContext(
		ctx,
		query,
		record.SKU,
		record.IdentityKey,
		record.Name,
		record.Brand,
		record.Model,
		record.Category,
		record.Color,
		record.Price,
		record.Currency,
		record.StockQuantity,
		record.SourceCreatedAt,
		record.SourceUpdatedAt,
		string(metadata),
	).Scan(&inserted)

	if err != nil {
		return 0, fmt.Errorf("failed to upsert catalog record: %w", err)
	}

	if inserted {
		return domain.UpsertInserted, nil
	}
	return domain.UpsertUpdated, nil
}

// SoftDelete marks a live record as deleted
func (r *catalogRepository) SoftDelete(ctx context.Context, sku string) error {
	query := `
		UPDATE catalog_records
		SET soft_deleted_at = NOW()
		WHERE sku = $1 AND soft_deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, sku)
	if err != nil {
		return fmt.Errorf("failed to delete catalog record: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	// Missing and already-deleted SKUs both land here
	if rowsAffected == 0 {
		return ErrRecordNotFound
	}

	return nil
}

// FindBySKU retrieves a record by SKU
func (r *catalogRepository) FindBySKU(ctx context.Context, sku string, includeDeleted bool) (*domain.CatalogRecord, error) {
	query := `SELECT ` + catalogColumns + ` FROM catalog_records WHERE sku = $1`
	if !includeDeleted {
		query += ` AND soft_deleted_at IS NULL`
	}

	record, err := scanRecord(r.db.QueryRowContext(ctx, query, sku))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to find catalog record by sku: %w", err)
	}

	return record, nil
}

// pageOffset returns (page-1)*pageSize, refusing values that would overflow
func pageOffset(page, pageSize int) (int, error) {
	if page < 1 || pageSize < 1 {
		return 0, fmt.Errorf("%w: page %d, size %d", ErrPageOutOfRange, page, pageSize)
	}
	if page-1 > math.MaxInt/pageSize {
		return 0, fmt.Errorf("%w: page %d, size %d", ErrPageOutOfRange, page, pageSize)
	}
	return (page - 1) * pageSize, nil
}

// List retrieves records matching the filter, one page at a time, along with
// the total count of the filtered set. Rows are ordered by SKU so repeated
// identical queries page identically.
func (r *catalogRepository) List(ctx context.Context, filter domain.QueryFilter, page, pageSize int) ([]*domain.CatalogRecord, int, error) {
	// Build the WHERE clause
	where := &whereBuilder{}
	if !filter.IncludeDeleted {
		where.raw("soft_deleted_at IS NULL")
	}
	where.eq("category", filter.Category)
	where.eq("brand", filter.Brand)
	where.eq("model", filter.Model)
	where.eq("color", filter.Color)
	where.eq("currency", filter.Currency)
	if filter.MinPrice != nil {
		where.add("price >= $%d", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		where.add("price <= $%d", *filter.MaxPrice)
	}

	// Calculate offset
	offset, err := pageOffset(page, pageSize)
	if err != nil {
		return nil, 0, err
	}

	// Count total records
	countQuery := "SELECT COUNT(*) FROM catalog_records" + where.sql()
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, where.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count catalog records: %w", err)
	}

	// Limit and offset follow the filter placeholders
	argIndex := len(where.args) + 1

	query := fmt.Sprintf(`
		SELECT %s
		FROM catalog_records%s
		ORDER BY sku ASC
		LIMIT $%d OFFSET $%d
	`, catalogColumns, where.sql(), argIndex, argIndex+1)

	args := append(where.args, pageSize, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list catalog records: %w", err)
	}
	defer rows.Close()

	records := []*domain.CatalogRecord{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan catalog record: %w", err)
		}
		records = append(records, record)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating catalog records: %w", err)
	}

	return records, total, nil
}

// CountAll counts every row, soft-deleted ones included
func (r *catalogRepository) CountAll(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM catalog_records`).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count catalog records: %w", err)
	}
	return total, nil
}

// CountDeleted counts soft-deleted rows
func (r *catalogRepository) CountDeleted(ctx context.Context) (int64, error) {
	var total int64
	query := `SELECT COUNT(*) FROM catalog_records WHERE soft_deleted_at IS NOT NULL`
	if err := r.db.QueryRowContext(ctx, query).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count deleted catalog records: %w", err)
	}
	return total, nil
}

// CountActiveFiltered counts live rows matching the optional minimum price and
// closed creation-date range.
func (r *catalogRepository) CountActiveFiltered(ctx context.Context, filter domain.ReportFilter) (int64, error) {
	where := &whereBuilder{}
	where.raw("soft_deleted_at IS NULL")
	if filter.MinPrice != nil {
		where.add("price >= $%d", *filter.MinPrice)
	}
	if start, end, ok := filter.DateRange(); ok {
		where.add("source_created_at >= $%d", start)
		where.add("source_created_at <= $%d", end)
	}

	var total int64
	query := "SELECT COUNT(*) FROM catalog_records" + where.sql()
	if err := r.db.QueryRowContext(ctx, query, where.args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count active catalog records: %w", err)
	}
	return total, nil
}

// InventoryHealth groups live rows by category. Age is measured against asOf
// per row and then averaged.
func (r *catalogRepository) InventoryHealth(ctx context.Context, category *string, asOf time.Time) ([]domain.InventoryHealth, error) {
	query := `
		SELECT
			category,
			COUNT(*) AS active_count,
			SUM(price * stock_quantity) AS total_stock_value,
			ROUND(AVG(stock_quantity))::bigint AS average_stock,
			(AVG(EXTRACT(EPOCH FROM ($1::timestamptz - source_created_at)) / 86400))::float8 AS average_age_days
		FROM catalog_records
		WHERE soft_deleted_at IS NULL`
	args := []interface{}{asOf}

	// Restrict to one category if requested
	if category != nil {
		query += ` AND category = $2`
		args = append(args, *category)
	}

	query += `
		GROUP BY category
		ORDER BY total_stock_value DESC, category ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to build inventory health report: %w", err)
	}
	defer rows.Close()

	report := []domain.InventoryHealth{}
	for rows.Next() {
		var row domain.InventoryHealth
		if err := rows.Scan(
			&row.Category,
			&row.ActiveCount,
			&row.TotalStockValue,
			&row.AverageStock,
			&row.AverageAgeDays,
		); err != nil {
			return nil, fmt.Errorf("failed to scan inventory health row: %w", err)
		}
		report = append(report, row)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating inventory health rows: %w", err)
	}

	return report, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*domain.CatalogRecord, error) {
	var (
		record    domain.CatalogRecord
		color     sql.NullString
		deletedAt sql.NullTime
		metadata  []byte
	)

	err := row.Scan(
		&record.SKU,
		&record.IdentityKey,
		&record.Name,
		&record.Brand,
		&record.Model,
		&record.Category,
		&color,
		&record.Price,
		&record.Currency,
		&record.StockQuantity,
		&record.SourceCreatedAt,
		&record.SourceUpdatedAt,
		&deletedAt,
		&metadata,
	)
	if err != nil {
		return nil, err
	}

	if color.Valid {
		record.Color = &color.String
	}
	if deletedAt.Valid {
		record.SoftDeletedAt = &deletedAt.Time
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &record.ResidualMetadata); err != nil {
			return nil, fmt.Errorf("failed to decode residual metadata: %w", err)
		}
	}

	return &record, nil
}

func residualOrEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

// whereBuilder accumulates AND-ed predicates with positional placeholders.
type whereBuilder struct {
	clauses []string
	args    []interface{}
}

func (w *whereBuilder) raw(clause string) {
	w.clauses = append(w.clauses, clause)
}

func (w *whereBuilder) add(format string, arg interface{}) {
	w.args = append(w.args, arg)
	w.clauses = append(w.clauses, fmt.Sprintf(format, len(w.args)))
}

func (w *whereBuilder) eq(column string, value *string) {
	if value == nil {
		return
	}
	w.add(column+" = $%d", *value)
}

func (w *whereBuilder) sql() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}
