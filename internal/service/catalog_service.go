package service

import (
	"context"
	"errors"
	"fmt"

	"catalog-sync/internal/domain"
	"catalog-sync/internal/repository"

	"go.uber.org/zap"
)

var (
	ErrProductNotFound = errors.New("product not found")
)

// CatalogService defines the catalog query and deletion logic
type CatalogService interface {
	Query(ctx context.Context, filter domain.QueryFilter) *domain.Page
	Delete(ctx context.Context, sku string) error
}

type catalogService struct {
	repo            repository.CatalogRepository
	defaultPageSize int
	logger          *zap.Logger
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(repo repository.CatalogRepository, defaultPageSize int, logger *zap.Logger) CatalogService {
	if defaultPageSize < 1 {
		defaultPageSize = 5
	}
	return &catalogService{
		repo:            repo,
		defaultPageSize: defaultPageSize,
		logger:          logger,
	}
}

// Query returns one page of the filtered catalog. A storage failure yields
// an empty page rather than an error.
func (s *catalogService) Query(ctx context.Context, filter domain.QueryFilter) *domain.Page {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = s.defaultPageSize
	}

	records, total, err := s.repo.List(ctx, filter, page, limit)
	if err != nil {
		s.logger.Error("Catalog query failed, returning empty page",
			zap.Int("page", page),
			zap.Int("limit", limit),
			zap.Error(err),
		)
		return &domain.Page{
			Items: []*domain.CatalogRecord{},
			Page:  page,
			Limit: limit,
		}
	}

	return &domain.Page{
		Items:      records,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: TotalPages(total, limit),
	}
}

// Delete soft-deletes the live record with the given SKU
func (s *catalogService) Delete(ctx context.Context, sku string) error {
	if err := s.repo.SoftDelete(ctx, sku); err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}

	s.logger.Info("Product soft-deleted", zap.String("sku", sku))
	return nil
}

// TotalPages is ceil(total / limit)
func TotalPages(total, limit int) int {
	if limit < 1 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
