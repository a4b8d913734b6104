package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Rioto3-org/delta-station/models"
)

// RawCSVWriter appends the raw extracted field values of each run to a CSV
// file, before any normalization. The file is an audit trail: when a
// stored value looks wrong, this is where the markup's literal text can be
// checked. It is safe for concurrent use.
type RawCSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewRawCSVWriter opens (or creates) the CSV file at the given path in
// append mode. The header row is written only when the file is new or
// empty. Intermediate directories are created automatically.
func NewRawCSVWriter(path string) (*RawCSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("csv: open file %q: %w", path, err)
	}

	w := csv.NewWriter(f)

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: stat file: %w", err)
	}
	if info.Size() == 0 {
		if err := w.Write([]string{
			"scraped_at", "location_name", "location_address",
			"observed_at", "captured_at",
			"cumulative_rainfall", "temperature", "wind_speed",
			"road_temperature", "road_condition", "image_url",
		}); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("csv: write header: %w", err)
		}
		w.Flush()
	}

	return &RawCSVWriter{file: f, writer: w}, nil
}

// RecordRaw appends one row with the raw observation's field values.
func (c *RawCSVWriter) RecordRaw(raw *models.RawObservation) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	row := []string{
		raw.ScrapedAt.Format(time.RFC3339),
		raw.LocationName,
		raw.LocationAddress,
		raw.ObservedAt,
		raw.CapturedAt,
		raw.CumulativeRainfall,
		raw.Temperature,
		raw.WindSpeed,
		raw.RoadTemperature,
		raw.RoadCondition,
		raw.ImageURL,
	}
	if err := c.writer.Write(row); err != nil {
		return fmt.Errorf("csv: write row: %w", err)
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *RawCSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}
