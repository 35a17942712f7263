// Package catalog provides the sources the product feed can be read from.
package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"storefront/config"
	"storefront/internal/domain"
)

// FileSource reads the feed from a local JSON file.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Fetch(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", s.path, err)
	}
	return f, nil
}

// HTTPSource fetches the feed over HTTP(S).
type HTTPSource struct {
	url    string
	client *http.Client
}

func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSource) Fetch(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch catalog: unexpected status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// NewSource picks an HTTP source for http(s) URLs and a file source otherwise.
func NewSource(cfg *config.Config) domain.CatalogSource {
	u := cfg.CatalogURL
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return NewHTTPSource(u, cfg.CatalogTimeout)
	}
	return NewFileSource(strings.TrimPrefix(u, "file://"))
}
