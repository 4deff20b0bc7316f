package ingest

import (
	"errors"
	"fmt"
	"strings"

	"catalog-sync/internal/domain"
	"catalog-sync/internal/source"
)

var (
	ErrSourceConfig    = errors.New("source configuration fault")
	ErrSourceTransport = errors.New("source transport fault")
	ErrUnexpected      = errors.New("unexpected sync fault")
)

// MalformedItemError is returned for a source item that cannot be mapped to
// a catalog record.
type MalformedItemError struct {
	Missing []string
	Reason  string
}

func (e *MalformedItemError) Error() string {
	if len(e.Missing) > 0 {
		return "malformed item: missing " + strings.Join(e.Missing, ", ")
	}
	return "malformed item: " + e.Reason
}

// ReconcileError wraps a storage failure for one record.
type ReconcileError struct {
	SKU string
	Err error
}

func (e *ReconcileError) Error() string {
	return fmt.Sprintf("failed to reconcile sku %q: %v", e.SKU, e.Err)
}

func (e *ReconcileError) Unwrap() error {
	return e.Err
}

// classifyFetchError maps an adapter failure onto a cycle-level fault.
func classifyFetchError(err error) (domain.FaultKind, error) {
	var httpErr *source.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.Permanent() {
			return domain.FaultSourceConfig, fmt.Errorf("%w: %v", ErrSourceConfig, err)
		}
		return domain.FaultSourceTransport, fmt.Errorf("%w: %v", ErrSourceTransport, err)
	}

	var decodeErr *source.DecodeError
	if errors.As(err, &decodeErr) {
		return domain.FaultUnexpected, fmt.Errorf("%w: %v", ErrUnexpected, err)
	}

	return domain.FaultSourceTransport, fmt.Errorf("%w: %v", ErrSourceTransport, err)
}
