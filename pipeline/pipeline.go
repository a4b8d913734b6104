// Package pipeline runs one harvest of the observation point: fetch the
// report page, extract and validate the fields, store the observation
// exactly once per observed_at, and download the photograph for genuinely
// new records.
package pipeline

import (
	"context"
	"strings"

	"github.com/Rioto3-org/delta-station/models"
	"github.com/Rioto3-org/delta-station/scraper/mlit"
	"github.com/Rioto3-org/delta-station/services"
	"github.com/Rioto3-org/delta-station/storage"
	"github.com/Rioto3-org/delta-station/utils"
)

// PageFetcher retrieves the report page markup as UTF-8.
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) (string, error)
}

// ImageFetcher downloads the report photograph, idempotent by filename
// existence. The boolean reports whether bytes were actually written.
type ImageFetcher interface {
	DownloadImage(ctx context.Context, url, filename string) (bool, error)
}

// Outcome is the successful result of a run.
type Outcome int

const (
	OutcomeInserted Outcome = iota
	OutcomeDuplicate
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInserted:
		return "inserted"
	case OutcomeDuplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}

// Params collects the collaborators of a Pipeline. Audit may be nil.
type Params struct {
	StationURL string
	Fetcher    PageFetcher
	Images     ImageFetcher
	Extractor  *mlit.Extractor
	Validator  *services.Validator
	Store      storage.Store
	Audit      storage.RawRecorder
	Logger     *utils.Logger
}

// Pipeline executes one synchronous, run-to-completion harvest. It holds
// no state between runs; overlapping invocations are safe because the
// store's observed_at uniqueness turns the losing insert into a
// duplicate-skip.
type Pipeline struct {
	stationURL string
	fetcher    PageFetcher
	images     ImageFetcher
	extractor  *mlit.Extractor
	validator  *services.Validator
	store      storage.Store
	audit      storage.RawRecorder
	logger     *utils.Logger
}

// New creates a Pipeline from its collaborators.
func New(p Params) *Pipeline {
	return &Pipeline{
		stationURL: p.StationURL,
		fetcher:    p.Fetcher,
		images:     p.Images,
		extractor:  p.Extractor,
		validator:  p.Validator,
		store:      p.Store,
		audit:      p.Audit,
		logger:     p.Logger,
	}
}

// Run performs a single harvest. Any fetch, extraction, validation or
// storage failure aborts the run with no partial observation persisted;
// an image download failure does not — the measurement record is worth
// more than the photograph.
func (p *Pipeline) Run(ctx context.Context) (Outcome, error) {
	html, err := p.fetcher.FetchPage(ctx, p.stationURL)
	if err != nil {
		return 0, err
	}

	raw, err := p.extractor.Extract(html, p.stationURL)
	if err != nil {
		return 0, err
	}
	p.logger.Info("[pipeline] Extracted report — observed at %s", raw.ObservedAt)

	if p.audit != nil {
		if err := p.audit.RecordRaw(raw); err != nil {
			p.logger.Warn("[pipeline] Raw audit append failed: %v", err)
		}
	}

	location := &models.Location{
		Name:      strings.TrimSpace(raw.LocationName),
		Address:   strings.TrimSpace(raw.LocationAddress),
		SourceURL: p.stationURL,
	}
	locationID, err := p.store.EnsureLocation(ctx, location)
	if err != nil {
		return 0, err
	}

	obs, err := p.validator.Validate(raw, locationID)
	if err != nil {
		return 0, err
	}

	result, err := p.store.InsertObservation(ctx, obs)
	if err != nil {
		return 0, err
	}

	if result == storage.Duplicate {
		p.logger.Info("[pipeline] Observation %s already stored — nothing to do",
			obs.ObservedAt.Format(models.TimeLayout))
		return OutcomeDuplicate, nil
	}

	p.logger.Info("[pipeline] New observation stored: %s", obs.ObservedAt.Format(models.TimeLayout))

	// Only a genuinely new observation earns a download; re-runs on
	// unchanged data stay cheap.
	written, err := p.images.DownloadImage(ctx, obs.ImageURL, obs.ImageFilename)
	switch {
	case err != nil:
		p.logger.Warn("[pipeline] Image download failed (observation kept): %v", err)
	case written:
		p.logger.Info("[pipeline] Image saved: %s", obs.ImageFilename)
	default:
		p.logger.Info("[pipeline] Image already present: %s", obs.ImageFilename)
	}

	return OutcomeInserted, nil
}
