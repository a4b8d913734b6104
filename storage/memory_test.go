package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rioto3-org/delta-station/models"
)

func fptr(v float64) *float64 { return &v }

func testObservation(observedAt time.Time) *models.Observation {
	return &models.Observation{
		LocationID:    1,
		ObservedAt:    observedAt,
		CapturedAt:    observedAt.Add(2 * time.Minute),
		Temperature:   fptr(4.7),
		ImageFilename: "20260216_1030_DR-74125-l.jpg",
		ImageURL:      "http://example.com/image/DR-74125-l.jpg",
	}
}

func TestMemoryStoreEnsureLocationIdempotent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	loc := &models.Location{Name: "作並宿", Address: "仙台市青葉区作並字神前西", SourceURL: "http://example.com"}

	first, err := s.EnsureLocation(ctx, loc)
	require.NoError(t, err)
	second, err := s.EnsureLocation(ctx, loc)
	require.NoError(t, err)

	assert.Equal(t, first, second, "re-registration is a no-op lookup")

	other, err := s.EnsureLocation(ctx, &models.Location{Name: "別の地点"})
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestMemoryStoreInsertObservation(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	observedAt := time.Date(2026, 2, 16, 10, 30, 0, 0, time.UTC)

	result, err := s.InsertObservation(ctx, testObservation(observedAt))
	require.NoError(t, err)
	assert.Equal(t, Inserted, result)

	stored, err := s.Observations(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.NotZero(t, stored[0].ID)
}

func TestMemoryStoreDuplicateObservedAt(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	observedAt := time.Date(2026, 2, 16, 10, 30, 0, 0, time.UTC)

	_, err := s.InsertObservation(ctx, testObservation(observedAt))
	require.NoError(t, err)

	// same observed_at, different measurement: must be skipped, not merged
	second := testObservation(observedAt)
	second.Temperature = fptr(-10.0)

	result, err := s.InsertObservation(ctx, second)
	require.NoError(t, err, "a duplicate is an expected outcome, never an error")
	assert.Equal(t, Duplicate, result)

	stored, err := s.Observations(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1, "exactly one row per observed_at")
	require.NotNil(t, stored[0].Temperature)
	assert.Equal(t, 4.7, *stored[0].Temperature, "existing row must not be mutated")
}

func TestMemoryStoreObservationsOrdered(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	times := []time.Time{
		time.Date(2026, 2, 16, 10, 45, 0, 0, time.UTC),
		time.Date(2026, 2, 16, 10, 15, 0, 0, time.UTC),
		time.Date(2026, 2, 16, 10, 30, 0, 0, time.UTC),
	}
	for _, ts := range times {
		_, err := s.InsertObservation(ctx, testObservation(ts))
		require.NoError(t, err)
	}

	stored, err := s.Observations(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 3)
	assert.True(t, stored[0].ObservedAt.Before(stored[1].ObservedAt))
	assert.True(t, stored[1].ObservedAt.Before(stored[2].ObservedAt))
}

func TestInsertResultString(t *testing.T) {
	assert.Equal(t, "inserted", Inserted.String())
	assert.Equal(t, "duplicate", Duplicate.String())
}
