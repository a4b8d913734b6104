package storage

import (
	"context"

	"github.com/Rioto3-org/delta-station/models"
)

// InsertResult is the outcome of an observation insert. A duplicate is an
// expected outcome, not an error: observed_at is the idempotency key of
// the whole pipeline and re-running on unchanged data must be a no-op.
type InsertResult int

const (
	Inserted InsertResult = iota
	Duplicate
)

func (r InsertResult) String() string {
	switch r {
	case Inserted:
		return "inserted"
	case Duplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}

// Store is the persistence gateway the pipeline depends on. Uniqueness of
// observed_at must be enforced by the implementation itself (a constraint,
// not application logic) so that overlapping runs cannot race two rows in.
type Store interface {
	// EnsureLocation looks up the location by name, inserting it on first
	// sight, and returns its stable identifier. Idempotent.
	EnsureLocation(ctx context.Context, loc *models.Location) (int64, error)

	// InsertObservation stores the observation with at-most-once semantics
	// keyed by observed_at. A uniqueness conflict reports Duplicate with a
	// nil error and must not mutate the existing row.
	InsertObservation(ctx context.Context, obs *models.Observation) (InsertResult, error)

	// Observations returns all stored observations ordered by observed_at.
	Observations(ctx context.Context) ([]*models.Observation, error)

	Close() error
}

// RawRecorder archives the extracted field values before normalization.
type RawRecorder interface {
	RecordRaw(raw *models.RawObservation) error
	Close() error
}
