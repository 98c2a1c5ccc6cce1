// Package ingest fetches country records from the REST source, writes one
// CSV per grouping into the blob store and merges them into the tagged
// dataset the viewer loads.
package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ohler55/ojg/oj"

	"countryview/internal/config"
	"countryview/pkg/domain"
)

// maxBody caps a single response; the largest region is well under 2 MiB.
const maxBody = 32 << 20

// Client talks to a restcountries-compatible API.
type Client struct {
	baseURL    string
	normalizer Normalizer
	http       *http.Client
}

// NewClient builds a client from the source configuration. A nil hc gets a
// fresh http.Client with cfg.Timeout.
func NewClient(cfg config.Source, hc *http.Client) *Client {
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		normalizer: NewNormalizer(cfg.Language),
		http:       hc,
	}
}

// RegionURL returns the endpoint for one grouping.
func (c *Client) RegionURL(g domain.Grouping) string {
	return c.baseURL + "/region/" + url.PathEscape(string(g))
}

// FetchGrouping downloads and normalizes every record of grouping g.
func (c *Client) FetchGrouping(ctx context.Context, g domain.Grouping) ([]domain.Country, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.RegionURL(g), nil)
	if err != nil {
		return nil, &domain.TransportError{Grouping: g, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &domain.TransportError{Grouping: g, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &domain.TransportError{Grouping: g, StatusCode: resp.StatusCode}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, &domain.TransportError{Grouping: g, Err: err}
	}
	return c.decode(body)
}

func (c *Client) decode(body []byte) ([]domain.Country, error) {
	doc, err := oj.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	records, ok := doc.([]any)
	if !ok {
		return nil, fmt.Errorf("decode response: expected array, got %T", doc)
	}
	out := make([]domain.Country, 0, len(records))
	for _, r := range records {
		out = append(out, c.normalizer.Normalize(r))
	}
	return out, nil
}
