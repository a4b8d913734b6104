package mlit

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonboulle/clockwork"

	"github.com/Rioto3-org/delta-station/models"
)

var (
	// observedAtRegexp matches "観測日時：2026-02-16 10:30" (full-width or
	// ASCII colon after the label).
	observedAtRegexp = regexp.MustCompile(`観測日時[：:]\s*(\d{4}-\d{2}-\d{2})\s+(\d{2}:\d{2})`)
	// capturedAtRegexp matches "撮影日時：02/16 10:32" — the page omits the
	// year on the capture timestamp.
	capturedAtRegexp = regexp.MustCompile(`撮影日時[：:]\s*(\d{2}/\d{2})\s+(\d{2}:\d{2})`)
	// imageSrcRegexp matches the station's camera image filename.
	imageSrcRegexp = regexp.MustCompile(`DR-\d+-l\.jpg`)
)

// Label vocabulary of the two-column measurement table.
const (
	labelLocationName    = "観測地点"
	labelRainfall        = "累加雨量"
	labelTemperature     = "気温"
	labelWindSpeed       = "風速"
	labelRoadTemperature = "路面温度"
	labelRoadCondition   = "路面状況"
)

// unknownAddress is recorded when the address container is missing from
// the page. Address is the only field extraction tolerates missing.
const unknownAddress = "不明"

// ExtractionError reports a mandatory field absent from the page markup.
type ExtractionError struct {
	Field string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed: %s not found in page", e.Field)
}

// Extractor parses report page markup into a RawObservation. No semantic
// conversion happens here; values are carried as the strings found in the
// markup.
type Extractor struct {
	clock clockwork.Clock
}

// NewExtractor creates an Extractor. The clock supplies the current year
// when the capture timestamp has to be qualified without an observation
// timestamp to borrow the year from.
func NewExtractor(clock clockwork.Clock) *Extractor {
	return &Extractor{clock: clock}
}

// Extract pulls the labeled fields out of the page. The extraction rules
// run independently; mandatory fields are checked at the end, so the
// error always names the first missing field in document order:
// observed_at, captured_at, location_name, image_url.
func (e *Extractor) Extract(html, sourceURL string) (*models.RawObservation, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("mlit: parse page: %w", err)
	}

	raw := &models.RawObservation{ScrapedAt: e.clock.Now()}
	text := doc.Text()

	if m := observedAtRegexp.FindStringSubmatch(text); m != nil {
		raw.ObservedAt = m[1] + " " + m[2]
	}

	if m := capturedAtRegexp.FindStringSubmatch(text); m != nil {
		year := fmt.Sprintf("%04d", e.clock.Now().Year())
		if len(raw.ObservedAt) >= 4 {
			year = raw.ObservedAt[:4]
		}
		raw.CapturedAt = year + "-" + strings.ReplaceAll(m[1], "/", "-") + " " + m[2]
	}

	raw.LocationAddress = unknownAddress
	if div := doc.Find("div.style3").First(); div.Length() > 0 {
		if addr := strings.TrimSpace(div.Text()); addr != "" {
			raw.LocationAddress = addr
		}
	}

	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		cols := row.Find("td")
		if cols.Length() != 2 {
			return
		}
		label := strings.TrimSpace(cols.Eq(0).Text())
		value := strings.TrimSpace(cols.Eq(1).Text())

		switch label {
		case labelLocationName:
			raw.LocationName = value
		case labelRainfall:
			raw.CumulativeRainfall = value
		case labelTemperature:
			raw.Temperature = value
		case labelWindSpeed:
			raw.WindSpeed = value
		case labelRoadTemperature:
			raw.RoadTemperature = value
		case labelRoadCondition:
			raw.RoadCondition = value
		}
	})

	doc.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		src, ok := img.Attr("src")
		if !ok || !imageSrcRegexp.MatchString(src) {
			return true
		}
		raw.ImageURL = resolveURL(sourceURL, src)
		return false
	})

	switch {
	case raw.ObservedAt == "":
		return nil, &ExtractionError{Field: "observed_at"}
	case raw.CapturedAt == "":
		return nil, &ExtractionError{Field: "captured_at"}
	case raw.LocationName == "":
		return nil, &ExtractionError{Field: "location_name"}
	case raw.ImageURL == "":
		return nil, &ExtractionError{Field: "image_url"}
	}

	return raw, nil
}

// resolveURL resolves ref against base, falling back to ref itself when
// either does not parse.
func resolveURL(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
