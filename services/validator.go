package services

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Rioto3-org/delta-station/models"
	"github.com/Rioto3-org/delta-station/utils"
)

// imageURLRegexp accepts only absolute http(s) URLs to a jpg/jpeg/png asset.
var imageURLRegexp = regexp.MustCompile(`^https?://.+\.(jpg|jpeg|png)$`)

// capturedGapTolerance is how far the photograph timestamp may drift from
// the measurement timestamp before the run logs an anomaly. Larger gaps
// are logged but still accepted — the station is known to lag.
const capturedGapTolerance = 30 * time.Minute

// ValidationError reports the first field that failed a format or range
// check. The run is aborted on the first violation.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s=%q: %s", e.Field, e.Value, e.Reason)
}

// Validator converts a RawObservation into a canonical Observation, or
// rejects it. Normalization (unit stripping, sentinel mapping) happens
// here too, so no partially-valid record is ever observable outside this
// type.
type Validator struct {
	logger   *utils.Logger
	validate *validator.Validate
}

// NewValidator creates a Validator with the given logger.
func NewValidator(logger *utils.Logger) *Validator {
	v := validator.New()

	// report violations under the storage column name, not the Go field name
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("db"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	return &Validator{logger: logger, validate: v}
}

// Validate builds the canonical observation for the given location. It
// fails fast: the first field violating its declared constraint is
// surfaced and the rest are not inspected.
func (v *Validator) Validate(raw *models.RawObservation, locationID int64) (*models.Observation, error) {
	observedAt, err := time.Parse(models.TimeLayout, raw.ObservedAt)
	if err != nil {
		return nil, &ValidationError{
			Field:  "observed_at",
			Value:  raw.ObservedAt,
			Reason: "must be a valid YYYY-MM-DD HH:MM timestamp",
		}
	}

	capturedAt, err := time.Parse(models.TimeLayout, raw.CapturedAt)
	if err != nil {
		return nil, &ValidationError{
			Field:  "captured_at",
			Value:  raw.CapturedAt,
			Reason: "must be a valid YYYY-MM-DD HH:MM timestamp",
		}
	}

	if !imageURLRegexp.MatchString(raw.ImageURL) {
		return nil, &ValidationError{
			Field:  "image_url",
			Value:  raw.ImageURL,
			Reason: "must be an absolute http(s) URL to a jpg/jpeg/png image",
		}
	}

	obs := &models.Observation{
		LocationID:         locationID,
		ObservedAt:         observedAt,
		CapturedAt:         capturedAt,
		CumulativeRainfall: NormalizeNumber(raw.CumulativeRainfall),
		Temperature:        NormalizeNumber(raw.Temperature),
		WindSpeed:          NormalizeNumber(raw.WindSpeed),
		RoadTemperature:    NormalizeNumber(raw.RoadTemperature),
		RoadCondition:      NormalizeRoadCondition(raw.RoadCondition),
		ImageFilename:      DeriveImageFilename(observedAt, raw.ImageURL),
		ImageURL:           raw.ImageURL,
	}

	if err := v.validate.Struct(obs); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return nil, &ValidationError{
				Field:  fe.Field(),
				Value:  fmt.Sprintf("%v", fe.Value()),
				Reason: fmt.Sprintf("violates %s=%s constraint", fe.Tag(), fe.Param()),
			}
		}
		return nil, err
	}

	// Advisory only: a stale photograph is accepted, the measurement
	// record is the valuable part.
	gap := capturedAt.Sub(observedAt)
	if gap < 0 {
		gap = -gap
	}
	if gap > capturedGapTolerance {
		v.logger.Warn("[validator] captured_at %s is %v away from observed_at %s",
			raw.CapturedAt, gap, raw.ObservedAt)
	}

	return obs, nil
}
