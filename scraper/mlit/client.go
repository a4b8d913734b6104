// Package mlit scrapes the MLIT roadside observation pages
// (www2.thr.mlit.go.jp). One page describes one observation point: a block
// of labeled timestamps, a two-column measurement table and a camera
// photograph.
package mlit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/Rioto3-org/delta-station/utils"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// FetchError reports a failed network operation: transport error, timeout
// or non-success status. It is fatal for the current run; the next
// scheduled run is the retry.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Client fetches the report page and its photographs.
type Client struct {
	httpClient *http.Client
	imageDir   string
	logger     *utils.Logger
}

// NewClient creates a Client with the given request timeout. Downloaded
// images are stored under imageDir.
func NewClient(timeout time.Duration, imageDir string, logger *utils.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		imageDir:   imageDir,
		logger:     logger,
	}
}

// FetchPage retrieves the report page and returns its markup as UTF-8.
// The station serves legacy-encoded (Shift_JIS) pages, so the body is
// decoded based on the declared charset and content sniffing.
func (c *Client) FetchPage(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", &FetchError{URL: pageURL, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &FetchError{URL: pageURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &FetchError{URL: pageURL, Status: resp.StatusCode, Err: errors.New("non-success status")}
	}

	reader, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", &FetchError{URL: pageURL, Err: fmt.Errorf("charset detection: %w", err)}
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return "", &FetchError{URL: pageURL, Err: err}
	}

	c.logger.Info("[mlit] Fetched %s (%d bytes)", pageURL, len(body))
	return string(body), nil
}

// DownloadImage fetches the photograph at imageURL and stores it under the
// derived filename. It is idempotent by filename existence: if the file is
// already present nothing is fetched. Returns whether bytes were written.
func (c *Client) DownloadImage(ctx context.Context, imageURL, filename string) (bool, error) {
	target := filepath.Join(c.imageDir, filename)
	if _, err := os.Stat(target); err == nil {
		return false, nil
	}

	if err := os.MkdirAll(c.imageDir, 0755); err != nil {
		return false, fmt.Errorf("mlit: create image dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return false, &FetchError{URL: imageURL, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, &FetchError{URL: imageURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, &FetchError{URL: imageURL, Status: resp.StatusCode, Err: errors.New("non-success status")}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, &FetchError{URL: imageURL, Err: err}
	}

	if err := os.WriteFile(target, data, 0644); err != nil {
		return false, fmt.Errorf("mlit: write image %q: %w", target, err)
	}

	return true, nil
}
