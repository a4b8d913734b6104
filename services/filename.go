package services

import (
	"net/url"
	"path"
	"strings"
	"time"
)

// DeriveImageFilename computes the storage filename for an observation's
// photograph: "{YYYYMMDD}_{HHMM}_{original-basename}.{ext}". It is a pure
// function — the same inputs always produce the same name, and the name is
// unique as long as observedAt is unique, which the storage layer
// guarantees. That determinism is what makes re-downloading the same image
// a cheap existence check.
func DeriveImageFilename(observedAt time.Time, imageURL string) string {
	base := "image.jpg"
	if u, err := url.Parse(imageURL); err == nil && u.Path != "" {
		base = path.Base(u.Path)
	}

	ext := "jpg"
	stem := base
	if i := strings.LastIndex(base, "."); i > 0 {
		stem = base[:i]
		ext = base[i+1:]
	}

	// dots inside the stem would read as extra extensions
	stem = strings.ReplaceAll(stem, ".", "_")

	return observedAt.Format("20060102_1504") + "_" + stem + "." + ext
}
