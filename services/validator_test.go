package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rioto3-org/delta-station/models"
	"github.com/Rioto3-org/delta-station/utils"
)

func validRaw() *models.RawObservation {
	return &models.RawObservation{
		LocationName:       "作並宿",
		LocationAddress:    "仙台市青葉区作並字神前西",
		ObservedAt:         "2026-02-16 10:30",
		CapturedAt:         "2026-02-16 10:32",
		CumulativeRainfall: "0mm",
		Temperature:        "4.7℃",
		WindSpeed:          "1.9m/s",
		RoadTemperature:    "8.0℃",
		RoadCondition:      "----",
		ImageURL:           "http://www2.thr.mlit.go.jp/sendai/html/image/DR-74125-l.jpg",
	}
}

func TestValidateBuildsCanonicalObservation(t *testing.T) {
	v := NewValidator(utils.NewLogger())

	obs, err := v.Validate(validRaw(), 1)
	require.NoError(t, err)

	assert.Equal(t, int64(1), obs.LocationID)
	assert.Equal(t, time.Date(2026, 2, 16, 10, 30, 0, 0, time.UTC), obs.ObservedAt)
	assert.Equal(t, time.Date(2026, 2, 16, 10, 32, 0, 0, time.UTC), obs.CapturedAt)

	require.NotNil(t, obs.CumulativeRainfall)
	assert.Equal(t, 0.0, *obs.CumulativeRainfall)
	require.NotNil(t, obs.Temperature)
	assert.Equal(t, 4.7, *obs.Temperature)
	require.NotNil(t, obs.WindSpeed)
	assert.Equal(t, 1.9, *obs.WindSpeed)
	require.NotNil(t, obs.RoadTemperature)
	assert.Equal(t, 8.0, *obs.RoadTemperature)

	assert.Nil(t, obs.RoadCondition, "'----' means no data")
	assert.Equal(t, "20260216_1030_DR-74125-l.jpg", obs.ImageFilename)
	assert.Equal(t, "http://www2.thr.mlit.go.jp/sendai/html/image/DR-74125-l.jpg", obs.ImageURL)
}

func TestValidateKeepsArbitraryRoadCondition(t *testing.T) {
	v := NewValidator(utils.NewLogger())

	raw := validRaw()
	raw.RoadCondition = "積雪あり"

	obs, err := v.Validate(raw, 1)
	require.NoError(t, err)
	require.NotNil(t, obs.RoadCondition)
	assert.Equal(t, "積雪あり", *obs.RoadCondition)
}

func TestValidateMissingMeasurementsAreNil(t *testing.T) {
	v := NewValidator(utils.NewLogger())

	raw := validRaw()
	raw.CumulativeRainfall = ""
	raw.Temperature = ""
	raw.WindSpeed = ""
	raw.RoadTemperature = ""
	raw.RoadCondition = ""

	obs, err := v.Validate(raw, 1)
	require.NoError(t, err)
	assert.Nil(t, obs.CumulativeRainfall)
	assert.Nil(t, obs.Temperature)
	assert.Nil(t, obs.WindSpeed)
	assert.Nil(t, obs.RoadTemperature)
	assert.Nil(t, obs.RoadCondition)
}

func TestValidateRejectsBadTimestamps(t *testing.T) {
	v := NewValidator(utils.NewLogger())

	tests := []struct {
		name   string
		mutate func(*models.RawObservation)
		field  string
	}{
		{"malformed observed_at", func(r *models.RawObservation) { r.ObservedAt = "2026-2-16 10:30" }, "observed_at"},
		{"observed_at with seconds", func(r *models.RawObservation) { r.ObservedAt = "2026-02-16 10:30:00" }, "observed_at"},
		{"impossible captured_at", func(r *models.RawObservation) { r.CapturedAt = "2026-02-16 25:61" }, "captured_at"},
		{"empty captured_at", func(r *models.RawObservation) { r.CapturedAt = "" }, "captured_at"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := validRaw()
			tt.mutate(raw)

			_, err := v.Validate(raw, 1)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestValidateRejectsOutOfRangeValues(t *testing.T) {
	v := NewValidator(utils.NewLogger())

	tests := []struct {
		name   string
		mutate func(*models.RawObservation)
		field  string
	}{
		{"temperature too hot", func(r *models.RawObservation) { r.Temperature = "999.0℃" }, "temperature"},
		{"temperature too cold", func(r *models.RawObservation) { r.Temperature = "-80.0℃" }, "temperature"},
		{"negative rainfall", func(r *models.RawObservation) { r.CumulativeRainfall = "-5mm" }, "cumulative_rainfall"},
		{"rainfall above 1000", func(r *models.RawObservation) { r.CumulativeRainfall = "1500mm" }, "cumulative_rainfall"},
		{"wind above 100", func(r *models.RawObservation) { r.WindSpeed = "140m/s" }, "wind_speed"},
		{"road temperature above 80", func(r *models.RawObservation) { r.RoadTemperature = "90.5℃" }, "road_temperature"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := validRaw()
			tt.mutate(raw)

			_, err := v.Validate(raw, 1)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestValidateRejectsBadImageURL(t *testing.T) {
	v := NewValidator(utils.NewLogger())

	for _, badURL := range []string{"", "ftp://example.com/a.jpg", "http://example.com/a.gif", "image/DR-74125-l.jpg"} {
		raw := validRaw()
		raw.ImageURL = badURL

		_, err := v.Validate(raw, 1)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, "imageURL=%q", badURL)
		assert.Equal(t, "image_url", verr.Field)
	}
}

func TestValidateLargeCapturedGapIsAdvisoryOnly(t *testing.T) {
	v := NewValidator(utils.NewLogger())

	raw := validRaw()
	raw.CapturedAt = "2026-02-16 12:45" // over two hours after observation

	obs, err := v.Validate(raw, 1)
	require.NoError(t, err, "a stale photograph must not reject the record")
	assert.Equal(t, time.Date(2026, 2, 16, 12, 45, 0, 0, time.UTC), obs.CapturedAt)
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Field: "temperature", Value: "999", Reason: "violates lte=50 constraint"}
	assert.True(t, errors.As(error(err), new(*ValidationError)))
	assert.Contains(t, err.Error(), "temperature")
	assert.Contains(t, err.Error(), "999")
}
