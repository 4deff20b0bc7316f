package domain

import (
	"time"

	"github.com/google/uuid"
)

// FaultKind classifies why a sync cycle ended early. The zero value means
// the cycle ran to completion.
type FaultKind string

const (
	FaultNone            FaultKind = ""
	FaultSourceConfig    FaultKind = "source_config"
	FaultSourceTransport FaultKind = "source_transport"
	FaultUnexpected      FaultKind = "unexpected"
)

// ItemFailure describes one source item that could not be reconciled.
type ItemFailure struct {
	Index  int    `json:"index"`
	SKU    string `json:"sku,omitempty"`
	Reason string `json:"reason"`
}

// SyncOutcome summarizes one sync cycle. It is never persisted.
type SyncOutcome struct {
	CycleID    uuid.UUID     `json:"cycleId"`
	StartedAt  time.Time     `json:"startedAt"`
	Duration   time.Duration `json:"duration"`
	Fetched    int           `json:"fetched"`
	Inserted   int           `json:"inserted"`
	Updated    int           `json:"updated"`
	Failed     int           `json:"failed"`
	Failures   []ItemFailure `json:"failures"`
	Fault      FaultKind     `json:"fault,omitempty"`
	FaultError string        `json:"faultError,omitempty"`
	Err        error         `json:"-"`
}

// Succeeded returns the number of items that were written.
func (o SyncOutcome) Succeeded() int {
	return o.Inserted + o.Updated
}
