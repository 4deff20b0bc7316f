package ingest

import (
	"context"

	"catalog-sync/internal/domain"
	"catalog-sync/internal/repository"
)

// Reconciler writes normalized records into the catalog store
type Reconciler struct {
	repo repository.CatalogRepository
}

func NewReconciler(repo repository.CatalogRepository) *Reconciler {
	return &Reconciler{repo: repo}
}

// Reconcile upserts one record by SKU. Storage failures are returned as
// *ReconcileError so the caller can carry on with the next item.
func (r *Reconciler) Reconcile(ctx context.Context, record *domain.CatalogRecord) (domain.UpsertResult, error) {
	result, err := r.repo.Upsert(ctx, record)
	if err != nil {
		return 0, &ReconcileError{SKU: record.SKU, Err: err}
	}
	return result, nil
}
