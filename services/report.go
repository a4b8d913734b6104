package services

import (
	"sort"

	"github.com/Rioto3-org/delta-station/models"
	"github.com/Rioto3-org/delta-station/utils"
)

// ReportService computes summary statistics over the stored observations.
// It is a read-only consumer of the store, the same role the dashboard
// plays.
type ReportService struct {
	logger *utils.Logger
}

func NewReportService(logger *utils.Logger) *ReportService {
	return &ReportService{logger: logger}
}

// BuildSummary aggregates the given observations. Nil measurement fields
// are counted as missing rather than skewing the averages.
func (s *ReportService) BuildSummary(observations []*models.Observation) *models.Summary {
	summary := &models.Summary{
		RoadConditions: make(map[string]int),
		MissingFields:  make(map[string]int),
	}

	if len(observations) == 0 {
		return summary
	}

	summary.TotalObservations = len(observations)
	summary.FirstObservedAt = observations[0].ObservedAt
	summary.LastObservedAt = observations[0].ObservedAt

	var tempSum float64
	var tempCount int

	for _, o := range observations {
		if o.ObservedAt.Before(summary.FirstObservedAt) {
			summary.FirstObservedAt = o.ObservedAt
		}
		if o.ObservedAt.After(summary.LastObservedAt) {
			summary.LastObservedAt = o.ObservedAt
		}

		if o.Temperature != nil {
			t := *o.Temperature
			if tempCount == 0 || t < summary.MinTemperature {
				summary.MinTemperature = t
			}
			if tempCount == 0 || t > summary.MaxTemperature {
				summary.MaxTemperature = t
			}
			tempSum += t
			tempCount++
		} else {
			summary.MissingFields["temperature"]++
		}

		if o.WindSpeed != nil {
			if *o.WindSpeed > summary.MaxWindSpeed {
				summary.MaxWindSpeed = *o.WindSpeed
			}
		} else {
			summary.MissingFields["wind_speed"]++
		}

		if o.CumulativeRainfall == nil {
			summary.MissingFields["cumulative_rainfall"]++
		}
		if o.RoadTemperature == nil {
			summary.MissingFields["road_temperature"]++
		}

		if o.RoadCondition != nil {
			summary.RoadConditions[*o.RoadCondition]++
		} else {
			summary.MissingFields["road_condition"]++
		}
	}

	if tempCount > 0 {
		summary.AvgTemperature = tempSum / float64(tempCount)
	}

	return summary
}

// Print renders the summary to the logger.
func (s *ReportService) Print(summary *models.Summary) {
	s.logger.Info("=== Observation summary ===")
	s.logger.Info("Total observations: %d", summary.TotalObservations)

	if summary.TotalObservations == 0 {
		return
	}

	s.logger.Info("Range: %s — %s",
		summary.FirstObservedAt.Format(models.TimeLayout),
		summary.LastObservedAt.Format(models.TimeLayout))
	s.logger.Info("Temperature: min %.1f℃ / avg %.1f℃ / max %.1f℃",
		summary.MinTemperature, summary.AvgTemperature, summary.MaxTemperature)
	s.logger.Info("Max wind speed: %.1fm/s", summary.MaxWindSpeed)

	conditions := make([]string, 0, len(summary.RoadConditions))
	for c := range summary.RoadConditions {
		conditions = append(conditions, c)
	}
	sort.Strings(conditions)
	for _, c := range conditions {
		s.logger.Info("Road condition %q: %d", c, summary.RoadConditions[c])
	}

	fields := make([]string, 0, len(summary.MissingFields))
	for f := range summary.MissingFields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		s.logger.Info("Missing %s: %d record(s)", f, summary.MissingFields[f])
	}
}
