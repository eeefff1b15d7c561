// Package verify sequences the database-state transitions of one
// verification run and renders the results.
package verify

import "time"

// Status is the verdict of one check.
type Status string

const (
	StatusPass Status = "PASS"
	StatusFail Status = "FAIL"
)

// Check names, in execution order.
const (
	CheckConnectivity = "Connection Verification"
	CheckInit         = "Database Initialization"
	CheckIngestion    = "Data Ingestion"
	CheckSearch       = "Hybrid Vector + Graph Search"
	CheckConsistency  = "Data Consistency Verification"
	CheckMirror       = "Shadow Vector Store Agreement"
)

// Outcome is the immutable record of one check. Latency covers the
// check's own start to completion, not cumulative run time.
type Outcome struct {
	Name      string    `json:"name"`
	Status    Status    `json:"status"`
	LatencyMS float64   `json:"latency_ms"`
	Detail    string    `json:"detail"`
	Timestamp time.Time `json:"timestamp"`
}

// Passed reports whether the check passed.
func (o Outcome) Passed() bool {
	return o.Status == StatusPass
}
