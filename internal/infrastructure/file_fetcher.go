package infrastructure

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"campaigndash/pkg/logger"

	"golang.org/x/time/rate"
)

// downloads campaign export files so they can be decoded like local uploads
type FileFetcher struct {
	client      *http.Client
	maxBytes    int64
	logger      *logger.Logger
	rateLimiter *rate.Limiter
}

// creates a new fetcher
func NewFileFetcher(timeout time.Duration, maxBytes int64, logger *logger.Logger) *FileFetcher {
	return &FileFetcher{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		maxBytes:    maxBytes,
		logger:      logger,
		rateLimiter: rate.NewLimiter(rate.Limit(5), 1),
	}
}

// Fetch downloads rawURL and returns the file name taken from its path together with the body.
func (f *FileFetcher) Fetch(ctx context.Context, rawURL string) (string, []byte, error) {
	start := time.Now()

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", nil, fmt.Errorf("invalid url: %w", err)
	}

	// Apply rate limiting
	if err := f.rateLimiter.Wait(ctx); err != nil {
		return "", nil, fmt.Errorf("rate limit exceeded: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("failed to fetch file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("remote returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return "", nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return "", nil, fmt.Errorf("file exceeds %d bytes", f.maxBytes)
	}

	name := path.Base(parsed.Path)
	if name == "." || name == "/" {
		name = "download.csv"
	}

	f.logger.WithContext(ctx).WithFields(map[string]any{
		"url":      rawURL,
		"duration": time.Since(start),
		"bytes":    len(body),
	}).Info("Fetched remote file")

	return name, body, nil
}
