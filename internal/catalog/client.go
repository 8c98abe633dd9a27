package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client fetches install-base records from the catalog API.
type Client interface {
	FetchInstallBase(ctx context.Context, canonicalID string) ([]byte, error)
}

type HTTPClient struct {
	baseURL string
	client  *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

var _ Client = (*HTTPClient)(nil)

// FetchInstallBase GETs <base-url>/<canonicalID> and returns the body as-is.
// The payload is opaque at this layer; no schema validation happens here.
func (c *HTTPClient) FetchInstallBase(ctx context.Context, canonicalID string) ([]byte, error) {
	url := c.baseURL + "/" + canonicalID
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", canonicalID, err)
	}

	defer res.Body.Close()

	if res.StatusCode/100 != 2 {
		return nil, fmt.Errorf("fetch %s: status=%d", canonicalID, res.StatusCode)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: read body: %w", canonicalID, err)
	}

	return body, nil
}
