package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"catalog-sync/internal/domain"
	"catalog-sync/internal/repository"
)

// memoryRepository is an in-memory CatalogRepository keyed by SKU.
type memoryRepository struct {
	mu      sync.Mutex
	records map[string]*domain.CatalogRecord
	writes  int
	failOn  map[string]error
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		records: map[string]*domain.CatalogRecord{},
		failOn:  map[string]error{},
	}
}

func (m *memoryRepository) Upsert(ctx context.Context, record *domain.CatalogRecord) (domain.UpsertResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failOn[record.SKU]; err != nil {
		return 0, err
	}
	m.writes++

	existing, ok := m.records[record.SKU]
	copied := *record
	if ok {
		copied.IdentityKey = existing.IdentityKey
		copied.SoftDeletedAt = existing.SoftDeletedAt
		m.records[record.SKU] = &copied
		return domain.UpsertUpdated, nil
	}
	m.records[record.SKU] = &copied
	return domain.UpsertInserted, nil
}

func (m *memoryRepository) SoftDelete(ctx context.Context, sku string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.records[sku]
	if !ok || record.SoftDeletedAt != nil {
		return repository.ErrRecordNotFound
	}
	now := time.Now()
	record.SoftDeletedAt = &now
	return nil
}

func (m *memoryRepository) FindBySKU(ctx context.Context, sku string, includeDeleted bool) (*domain.CatalogRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.records[sku]
	if !ok || (!includeDeleted && record.SoftDeletedAt != nil) {
		return nil, repository.ErrRecordNotFound
	}
	return record, nil
}

func (m *memoryRepository) List(ctx context.Context, filter domain.QueryFilter, page, pageSize int) ([]*domain.CatalogRecord, int, error) {
	return nil, 0, errors.New("not used by ingest")
}

func (m *memoryRepository) CountAll(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.records)), nil
}

func (m *memoryRepository) CountDeleted(ctx context.Context) (int64, error) {
	return 0, errors.New("not used by ingest")
}

func (m *memoryRepository) CountActiveFiltered(ctx context.Context, filter domain.ReportFilter) (int64, error) {
	return 0, errors.New("not used by ingest")
}

func (m *memoryRepository) InventoryHealth(ctx context.Context, category *string, asOf time.Time) ([]domain.InventoryHealth, error) {
	return nil, errors.New("not used by ingest")
}

type stubFetcher struct {
	items []json.RawMessage
	err   error
	panic any
}

func (f *stubFetcher) FetchItems(ctx context.Context) ([]json.RawMessage, error) {
	if f.panic != nil {
		panic(f.panic)
	}
	return f.items, f.err
}

func rawItemJSON(id, sku string) json.RawMessage {
	item := map[string]any{
		"metadata": map[string]any{"tags": []any{}},
		"sys": map[string]any{
			"id":        id,
			"type":      "Entry",
			"createdAt": "2024-01-10T12:00:00.000Z",
			"updatedAt": "2024-01-11T08:30:00.000Z",
			"locale":    "en-US",
		},
		"fields": map[string]any{
			"sku":      sku,
			"name":     "Product " + sku,
			"brand":    "Acme",
			"model":    "X1",
			"category": "Phones",
			"color":    "black",
			"price":    19.99,
			"currency": "USD",
			"stock":    7,
		},
	}
	if sku == "" {
		delete(item["fields"].(map[string]any), "sku")
	}
	raw, _ := json.Marshal(item)
	return raw
}
