package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Rioto3-org/delta-station/models"
)

// MemoryStore is a concurrency-safe in-memory Store. It backs dry runs
// (STORAGE_DRIVER=memory) and the pipeline tests. It enforces the same
// observed_at uniqueness the PostgreSQL schema does.
type MemoryStore struct {
	mu sync.RWMutex

	locations  map[string]*models.Location // key: location name
	nextLocID  int64
	byObserved map[time.Time]*models.Observation
	nextObsID  int64
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		locations:  make(map[string]*models.Location),
		nextLocID:  1,
		byObserved: make(map[time.Time]*models.Observation),
		nextObsID:  1,
	}
}

// EnsureLocation registers the location on first sight and returns its
// stable id on every call after that.
func (s *MemoryStore) EnsureLocation(_ context.Context, loc *models.Location) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.locations[loc.Name]; ok {
		return existing.ID, nil
	}

	stored := *loc
	stored.ID = s.nextLocID
	s.nextLocID++
	s.locations[loc.Name] = &stored
	return stored.ID, nil
}

// InsertObservation stores the observation keyed by observed_at. An
// existing row wins: the new record is discarded and Duplicate reported.
func (s *MemoryStore) InsertObservation(_ context.Context, obs *models.Observation) (InsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byObserved[obs.ObservedAt]; exists {
		return Duplicate, nil
	}

	stored := *obs
	stored.ID = s.nextObsID
	s.nextObsID++
	s.byObserved[stored.ObservedAt] = &stored
	return Inserted, nil
}

// Observations returns copies of all stored observations ordered by
// observed_at.
func (s *MemoryStore) Observations(_ context.Context) ([]*models.Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	observations := make([]*models.Observation, 0, len(s.byObserved))
	for _, o := range s.byObserved {
		c := *o
		observations = append(observations, &c)
	}
	sort.Slice(observations, func(i, j int) bool {
		return observations[i].ObservedAt.Before(observations[j].ObservedAt)
	})
	return observations, nil
}

func (s *MemoryStore) Close() error { return nil }
