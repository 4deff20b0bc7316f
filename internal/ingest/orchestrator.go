package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"catalog-sync/internal/domain"
	"catalog-sync/internal/metrics"
	"catalog-sync/internal/source"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// itemResult is the per-item outcome folded into a SyncOutcome.
type itemResult struct {
	index  int
	sku    string
	upsert domain.UpsertResult
	err    error
}

// Orchestrator runs sync cycles: fetch, normalize, reconcile.
type Orchestrator struct {
	fetcher    source.Fetcher
	normalizer *Normalizer
	reconciler *Reconciler
	metrics    *metrics.Registry
	logger     *zap.Logger
	now        func() time.Time
}

func NewOrchestrator(
	fetcher source.Fetcher,
	normalizer *Normalizer,
	reconciler *Reconciler,
	registry *metrics.Registry,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		fetcher:    fetcher,
		normalizer: normalizer,
		reconciler: reconciler,
		metrics:    registry,
		logger:     logger,
		now:        time.Now,
	}
}

// RunCycle performs one complete sync. It never panics and never returns an
// error: cycle-level faults are reported on the outcome.
func (o *Orchestrator) RunCycle(ctx context.Context) (outcome domain.SyncOutcome) {
	outcome = domain.SyncOutcome{
		CycleID:   uuid.New(),
		StartedAt: o.now(),
		Failures:  []domain.ItemFailure{},
	}
	log := o.logger.With(zap.String("cycle_id", outcome.CycleID.String()))
	log.Info("Running data sync task...")

	defer func() {
		if rec := recover(); rec != nil {
			o.fail(&outcome, domain.FaultUnexpected, fmt.Errorf("%w: panic: %v", ErrUnexpected, rec))
		}
		outcome.Duration = o.now().Sub(outcome.StartedAt)
		o.report(log, outcome)
		o.metrics.ObserveCycle(outcome)
	}()

	items, err := o.fetcher.FetchItems(ctx)
	if err != nil {
		kind, classified := classifyFetchError(err)
		o.fail(&outcome, kind, classified)
		return outcome
	}
	outcome.Fetched = len(items)

	for index, raw := range items {
		result := o.processItem(ctx, index, raw)
		if result.err != nil {
			outcome.Failed++
			outcome.Failures = append(outcome.Failures, domain.ItemFailure{
				Index:  result.index,
				SKU:    result.sku,
				Reason: result.err.Error(),
			})
			log.Warn("Skipping source item",
				zap.Int("index", result.index),
				zap.String("sku", result.sku),
				zap.Error(result.err),
			)
			continue
		}

		switch result.upsert {
		case domain.UpsertInserted:
			outcome.Inserted++
		case domain.UpsertUpdated:
			outcome.Updated++
		}
	}

	return outcome
}

func (o *Orchestrator) processItem(ctx context.Context, index int, raw json.RawMessage) itemResult {
	result := itemResult{index: index}

	record, err := o.normalizer.Normalize(raw)
	if err != nil {
		result.sku = skuHint(raw)
		result.err = err
		return result
	}
	result.sku = record.SKU

	result.upsert, result.err = o.reconciler.Reconcile(ctx, record)
	return result
}

func (o *Orchestrator) fail(outcome *domain.SyncOutcome, kind domain.FaultKind, err error) {
	outcome.Fault = kind
	outcome.Err = err
	outcome.FaultError = err.Error()
}

func (o *Orchestrator) report(log *zap.Logger, outcome domain.SyncOutcome) {
	fields := []zap.Field{
		zap.Int("fetched", outcome.Fetched),
		zap.Int("inserted", outcome.Inserted),
		zap.Int("updated", outcome.Updated),
		zap.Int("failed", outcome.Failed),
		zap.Duration("duration", outcome.Duration),
	}

	switch outcome.Fault {
	case domain.FaultSourceConfig:
		log.Error("Source rejected the request, check SPACE_ID / ENVIRONMENT_EXTERNAL",
			append(fields, zap.String("fault", outcome.FaultError))...)
	case domain.FaultSourceTransport:
		log.Warn("Source unreachable, retrying on the next scheduled run",
			append(fields, zap.String("fault", outcome.FaultError))...)
	case domain.FaultUnexpected:
		log.Error("Unexpected error during data sync",
			append(fields, zap.String("fault", outcome.FaultError))...)
	default:
		log.Info("Data sync completed", fields...)
	}
}

// skuHint pulls fields.sku out of an item that failed normalization so the
// failure can still be attributed.
func skuHint(raw json.RawMessage) string {
	var probe struct {
		Fields struct {
			SKU any `json:"sku"`
		} `json:"fields"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return ""
	}
	if sku, ok := probe.Fields.SKU.(string); ok {
		return sku
	}
	return ""
}
