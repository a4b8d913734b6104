package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Rioto3-org/delta-station/models"
	"github.com/Rioto3-org/delta-station/utils"
)

// uniqueViolation is the PostgreSQL error code for a unique constraint hit.
const uniqueViolation = "23505"

// PostgresStore persists locations and observations to PostgreSQL.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore opens a connection, waits for the database to become
// reachable and runs schema migrations.
func NewPostgresStore(ctx context.Context, dsn string, retry *utils.RetryConfig) (*PostgresStore, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if err := retry.Do(ctx, "postgres-ping", func() error {
		return db.PingContext(ctx)
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	s := &PostgresStore{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS locations (
			id         SERIAL PRIMARY KEY,
			name       TEXT UNIQUE NOT NULL,
			address    TEXT NOT NULL DEFAULT '',
			source_url TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS observations (
			id                  SERIAL PRIMARY KEY,
			location_id         INTEGER      NOT NULL REFERENCES locations(id),
			observed_at         TIMESTAMP    UNIQUE NOT NULL,
			captured_at         TIMESTAMP    NOT NULL,
			cumulative_rainfall NUMERIC(6,1),
			temperature         NUMERIC(5,1),
			wind_speed          NUMERIC(5,1),
			road_temperature    NUMERIC(5,1),
			road_condition      VARCHAR(100),
			image_filename      VARCHAR(255) NOT NULL,
			image_url           TEXT         NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_observations_location ON observations(location_id);
	`)
	return err
}

// EnsureLocation returns the id of the named location, inserting it first
// if this is the first run against this database. Safe under concurrent
// callers: a lost insert race falls back to the winning row.
func (s *PostgresStore) EnsureLocation(ctx context.Context, loc *models.Location) (int64, error) {
	var id int64

	err := s.db.GetContext(ctx, &id, `SELECT id FROM locations WHERE name = $1`, loc.Name)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("postgres: lookup location: %w", err)
	}

	err = s.db.GetContext(ctx, &id, `
		INSERT INTO locations (name, address, source_url)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO NOTHING
		RETURNING id
	`, loc.Name, loc.Address, loc.SourceURL)
	if errors.Is(err, sql.ErrNoRows) {
		// lost the race, another run inserted it
		if err := s.db.GetContext(ctx, &id, `SELECT id FROM locations WHERE name = $1`, loc.Name); err != nil {
			return 0, fmt.Errorf("postgres: re-lookup location: %w", err)
		}
		return id, nil
	}
	if err != nil {
		return 0, fmt.Errorf("postgres: insert location: %w", err)
	}
	return id, nil
}

// InsertObservation inserts the observation, reporting Duplicate when a
// row with the same observed_at already exists. The UNIQUE constraint on
// observed_at makes this safe under overlapping runs.
func (s *PostgresStore) InsertObservation(ctx context.Context, obs *models.Observation) (InsertResult, error) {
	res, err := s.db.NamedExecContext(ctx, `
		INSERT INTO observations (
			location_id, observed_at, captured_at,
			cumulative_rainfall, temperature, wind_speed,
			road_temperature, road_condition,
			image_filename, image_url
		) VALUES (
			:location_id, :observed_at, :captured_at,
			:cumulative_rainfall, :temperature, :wind_speed,
			:road_temperature, :road_condition,
			:image_filename, :image_url
		)
		ON CONFLICT (observed_at) DO NOTHING
	`, obs)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return Duplicate, nil
		}
		return Inserted, fmt.Errorf("postgres: insert observation: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return Inserted, fmt.Errorf("postgres: rows affected: %w", err)
	}
	if n == 0 {
		return Duplicate, nil
	}
	return Inserted, nil
}

// Observations returns every stored observation ordered by observed_at.
func (s *PostgresStore) Observations(ctx context.Context) ([]*models.Observation, error) {
	var observations []*models.Observation
	err := s.db.SelectContext(ctx, &observations, `
		SELECT id, location_id, observed_at, captured_at,
		       cumulative_rainfall, temperature, wind_speed,
		       road_temperature, road_condition,
		       image_filename, image_url
		FROM observations
		ORDER BY observed_at
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch observations: %w", err)
	}
	return observations, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
