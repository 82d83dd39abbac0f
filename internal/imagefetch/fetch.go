// Package imagefetch resolves an image reference (URL or inline base64)
// to raw bytes, with bounded retries and exponential backoff on
// transient network failures.
package imagefetch

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/forgesyte/forgesyte/internal/apperrors"
	"github.com/forgesyte/forgesyte/internal/logger"
)

const (
	defaultMaxRetries     = 3
	defaultTimeoutSeconds = 10
	backoffFloor          = 2 * time.Second
	backoffCeiling         = 10 * time.Second
)

// Fetcher retrieves image bytes from a URL, retrying transient network
// failures with exponential backoff.
type Fetcher struct {
	Client     *http.Client
	MaxRetries int
}

// NewFetcher constructs a Fetcher with the given retry count (default 3)
// and fetch timeout (default 10s).
func NewFetcher(maxRetries, timeoutSeconds int) *Fetcher {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	if timeoutSeconds <= 0 {
		timeoutSeconds = defaultTimeoutSeconds
	}
	return &Fetcher{
		Client:     &http.Client{Timeout: time.Duration(timeoutSeconds) * time.Second},
		MaxRetries: maxRetries,
	}
}

// FetchURL retrieves the bytes at url. A 4xx/5xx response surfaces
// immediately as an ExternalServiceError; only transient network failures
// (timeout, connection reset) are retried, with backoff starting at the
// floor and capped at the ceiling.
func (f *Fetcher) FetchURL(url string) ([]byte, error) {
	log := logger.HTTP()
	var lastErr error

	for attempt := 0; attempt < f.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := backoff(attempt)
			log.Warn().Str("url", url).Int("attempt", attempt).Dur("wait", wait).Msg("retrying image fetch")
			time.Sleep(wait)
		}

		resp, err := f.Client.Get(url)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return nil, apperrors.ExternalService("image fetch",
				fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, url))
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}
		return body, nil
	}

	return nil, apperrors.ExternalService("image fetch", fmt.Errorf("exhausted retries: %w", lastErr))
}

func backoff(attempt int) time.Duration {
	d := backoffFloor * time.Duration(1<<uint(attempt-1))
	if d > backoffCeiling {
		d = backoffCeiling
	}
	return d
}

// DecodeBase64 decodes a base64 (optionally data-URL-prefixed) string to
// raw bytes.
func DecodeBase64(data string) ([]byte, error) {
	if idx := strings.Index(data, ","); idx != -1 && strings.HasPrefix(data, "data:") {
		data = data[idx+1:]
	}
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 image data: %w", err)
	}
	return decoded, nil
}

// Resolve implements the source precedence from §4.4.4: uploaded file,
// URL, base64 in a designated args field, base64 in the raw request
// body. The first non-empty source wins.
func (f *Fetcher) Resolve(uploaded []byte, url string, base64Field string, rawBody []byte) ([]byte, error) {
	if len(uploaded) > 0 {
		return uploaded, nil
	}
	if url != "" {
		return f.FetchURL(url)
	}
	if base64Field != "" {
		return DecodeBase64(base64Field)
	}
	if len(rawBody) > 0 {
		return DecodeBase64(string(rawBody))
	}
	return nil, apperrors.Validation("image", "no image source supplied")
}
