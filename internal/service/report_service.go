package service

import (
	"context"
	"fmt"
	"time"

	"catalog-sync/internal/domain"
	"catalog-sync/internal/repository"

	"github.com/shopspring/decimal"
)

// ReportService defines the aggregate reporting logic
type ReportService interface {
	Metrics(ctx context.Context, filter domain.ReportFilter) (*domain.Metrics, error)
	InventoryHealth(ctx context.Context, category *string) ([]domain.InventoryHealth, error)
}

type reportService struct {
	repo repository.CatalogRepository
	now  func() time.Time
}

// NewReportService creates a new instance of ReportService
func NewReportService(repo repository.CatalogRepository) ReportService {
	return &reportService{
		repo: repo,
		now:  time.Now,
	}
}

// Metrics computes deleted and active-filtered shares of all records. An
// empty store short-circuits to zeros.
func (s *reportService) Metrics(ctx context.Context, filter domain.ReportFilter) (*domain.Metrics, error) {
	total, err := s.repo.CountAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count records: %w", err)
	}
	if total == 0 {
		return &domain.Metrics{}, nil
	}

	deleted, err := s.repo.CountDeleted(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count deleted records: %w", err)
	}

	activeFiltered, err := s.repo.CountActiveFiltered(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count active records: %w", err)
	}

	return &domain.Metrics{
		TotalRecords:             total,
		DeletedPercentage:        Percentage(deleted, total),
		ActiveFilteredPercentage: Percentage(activeFiltered, total),
	}, nil
}

// InventoryHealth groups live records by category as of now
func (s *reportService) InventoryHealth(ctx context.Context, category *string) ([]domain.InventoryHealth, error) {
	report, err := s.repo.InventoryHealth(ctx, category, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to build inventory health: %w", err)
	}
	return report, nil
}

// Percentage is 100*count/total rounded half away from zero to two places
func Percentage(count, total int64) float64 {
	if total == 0 {
		return 0
	}
	return decimal.NewFromInt(count).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(total)).
		Round(2).
		InexactFloat64()
}
