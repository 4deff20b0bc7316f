package service

import (
	"context"
	"time"

	"catalog-sync/internal/domain"
)

type mockCatalogRepository struct {
	listRecords []*domain.CatalogRecord
	listTotal   int
	listErr     error
	lastFilter  domain.QueryFilter
	lastPage    int
	lastLimit   int

	deleteErr error
	deleted   []string

	countAll       int64
	countDeleted   int64
	countActive    int64
	countErr       error
	lastReport     domain.ReportFilter
	calls          int
	health         []domain.InventoryHealth
	lastHealthAsOf time.Time
	lastCategory   *string
}

func (m *mockCatalogRepository) Upsert(ctx context.Context, record *domain.CatalogRecord) (domain.UpsertResult, error) {
	return domain.UpsertInserted, nil
}

func (m *mockCatalogRepository) SoftDelete(ctx context.Context, sku string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, sku)
	return nil
}

func (m *mockCatalogRepository) FindBySKU(ctx context.Context, sku string, includeDeleted bool) (*domain.CatalogRecord, error) {
	return nil, nil
}

func (m *mockCatalogRepository) List(ctx context.Context, filter domain.QueryFilter, page, pageSize int) ([]*domain.CatalogRecord, int, error) {
	m.lastFilter = filter
	m.lastPage = page
	m.lastLimit = pageSize
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	return m.listRecords, m.listTotal, nil
}

func (m *mockCatalogRepository) CountAll(ctx context.Context) (int64, error) {
	m.calls++
	return m.countAll, m.countErr
}

func (m *mockCatalogRepository) CountDeleted(ctx context.Context) (int64, error) {
	m.calls++
	return m.countDeleted, nil
}

func (m *mockCatalogRepository) CountActiveFiltered(ctx context.Context, filter domain.ReportFilter) (int64, error) {
	m.calls++
	m.lastReport = filter
	return m.countActive, nil
}

func (m *mockCatalogRepository) InventoryHealth(ctx context.Context, category *string, asOf time.Time) ([]domain.InventoryHealth, error) {
	m.lastCategory = category
	m.lastHealthAsOf = asOf
	return m.health, nil
}
