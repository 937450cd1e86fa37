package templates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// maxTemplateSize bounds the body read for one template file.
const maxTemplateSize = 8 << 20

// HTTPSource fetches templates served as <base>/<symbol>/<name>.
type HTTPSource struct {
	base   *url.URL
	client *http.Client
}

// NewHTTPSource returns a Source reading from baseURL. A nil client uses a
// client with a 10 second timeout.
func NewHTTPSource(baseURL string, client *http.Client) (*HTTPSource, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid template base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid template base URL %q: scheme must be http or https", baseURL)
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPSource{base: u, client: client}, nil
}

// Manifest fetches <base>/manifest.json.
func (s *HTTPSource) Manifest(ctx context.Context) (Manifest, error) {
	data, err := s.get(ctx, ManifestFile)
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ManifestFile, err)
	}
	return m, nil
}

// Open fetches <base>/<symbol>/<name>.
func (s *HTTPSource) Open(ctx context.Context, symbol, name string) ([]byte, error) {
	if !validName(symbol) || !validName(name) {
		return nil, fmt.Errorf("%w: invalid path %q/%q", ErrNotExist, symbol, name)
	}
	return s.get(ctx, symbol, name)
}

func (s *HTTPSource) get(ctx context.Context, elem ...string) ([]byte, error) {
	u := s.base.JoinPath(elem...)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", u, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotExist, u)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("failed to fetch %s: status %d", u, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxTemplateSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", u, err)
	}
	return data, nil
}
