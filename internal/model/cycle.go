package model

import "time"

type CycleStatus string

const (
	CycleCompleted  CycleStatus = "completed"  // every identifier stored
	CycleIncomplete CycleStatus = "incomplete" // ran, but at least one identifier failed
	CycleAborted    CycleStatus = "aborted"    // manifest unavailable, nothing synced
	CycleSkipped    CycleStatus = "skipped"    // another instance held the lease
)

func (s CycleStatus) String() string {
	return string(s)
}

func (s CycleStatus) Valid() bool {
	switch s {
	case CycleCompleted, CycleIncomplete, CycleAborted, CycleSkipped:
		return true
	}
	return false
}

// FailureKind classifies a contained per-identifier failure.
type FailureKind string

const (
	FailureMalformed   FailureKind = "malformed"
	FailureFetchFailed FailureKind = "fetch_failed"
	FailureStoreFailed FailureKind = "store_failed"
)

func (k FailureKind) String() string { return string(k) }

// CycleReport summarizes one full sync cycle.
type CycleReport struct {
	CycleID    string      `db:"cycle_id" json:"cycle_id"`
	StartedAt  time.Time   `db:"started_at" json:"started_at"`
	FinishedAt time.Time   `db:"finished_at" json:"finished_at"`
	Status     CycleStatus `db:"status" json:"status"`
	Total      int         `db:"total" json:"total"`
	Stored     int         `db:"stored" json:"stored"`
	Failed     int         `db:"failed" json:"failed"`
	Error      string      `db:"error" json:"error,omitempty"`
}

// CycleFailure is one contained per-identifier failure inside a cycle.
type CycleFailure struct {
	CycleID    string      `db:"cycle_id" json:"cycle_id"`
	GDUNS      string      `db:"gduns" json:"gduns"`
	Kind       FailureKind `db:"kind" json:"kind"`
	Error      string      `db:"error" json:"error"`
	OccurredAt time.Time   `db:"occurred_at" json:"occurred_at"`
}
