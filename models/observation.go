package models

import "time"

// TimeLayout is the minute-precision layout every timestamp in the system
// uses, both on the source page and in storage.
const TimeLayout = "2006-01-02 15:04"

// Location is the observation point master record. It is created once and
// looked up by name on every subsequent run.
type Location struct {
	ID        int64  `db:"id"`
	Name      string `db:"name"`
	Address   string `db:"address"`
	SourceURL string `db:"source_url"`
}

// RawObservation holds the field values exactly as extracted from the page,
// before any unit stripping or type conversion. An empty string means the
// field was absent from the markup. This is written to the raw CSV audit
// log before normalization.
type RawObservation struct {
	LocationName       string
	LocationAddress    string
	ObservedAt         string // "2026-02-16 10:30"
	CapturedAt         string // already year-qualified: "2026-02-16 10:32"
	CumulativeRainfall string // "0mm" etc.
	Temperature        string // "4.7℃" etc.
	WindSpeed          string // "1.9m/s" etc.
	RoadTemperature    string // "8.0℃" etc.
	RoadCondition      string // "----", "乾燥", ...
	ImageURL           string
	ScrapedAt          time.Time
}

// Observation is the validated, range-checked record ready for storage.
// Measurement fields are nil when the source reported no data. ObservedAt
// is globally unique across all stored observations and acts as the
// idempotency key for the whole pipeline.
type Observation struct {
	ID                 int64     `db:"id"`
	LocationID         int64     `db:"location_id" validate:"gte=1"`
	ObservedAt         time.Time `db:"observed_at"`
	CapturedAt         time.Time `db:"captured_at"`
	CumulativeRainfall *float64  `db:"cumulative_rainfall" validate:"omitempty,gte=0,lte=1000"`
	Temperature        *float64  `db:"temperature" validate:"omitempty,gte=-50,lte=50"`
	WindSpeed          *float64  `db:"wind_speed" validate:"omitempty,gte=0,lte=100"`
	RoadTemperature    *float64  `db:"road_temperature" validate:"omitempty,gte=-50,lte=80"`
	RoadCondition      *string   `db:"road_condition" validate:"omitempty,max=100"`
	ImageFilename      string    `db:"image_filename" validate:"required,max=255"`
	ImageURL           string    `db:"image_url" validate:"required"`
}

// Summary holds the computed statistics over the stored observations.
type Summary struct {
	TotalObservations int
	FirstObservedAt   time.Time
	LastObservedAt    time.Time

	MinTemperature float64
	AvgTemperature float64
	MaxTemperature float64
	MaxWindSpeed   float64

	RoadConditions map[string]int
	MissingFields  map[string]int
}
