// Package feed talks to the odds data sources: a paginated HTTP JSON feed
// and a watchable local fixture file for offline use.
package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/propdeck/pkg/model"
)

// DefaultTimeout bounds one page request.
const DefaultTimeout = 10 * time.Second

// StatusError is a non-2xx response from the feed.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("feed returned %s", e.Status)
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// Client fetches record pages from one feed endpoint using offset/limit
// query parameters.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient builds a client for endpoint.
func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the configured endpoint.
func (c *Client) Endpoint() string { return c.endpoint }

// FetchPage requests limit records starting at offset.
func (c *Client) FetchPage(ctx context.Context, offset, limit int) ([]model.Record, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("bad endpoint %q: %w", c.endpoint, err)
	}
	q := u.Query()
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}
	return DecodeRecords(resp.Body)
}

// DecodeRecords reads a JSON array of flat objects into records. Known
// columns land in the typed fields; everything else is stringified into
// Extra.
func DecodeRecords(r io.Reader) ([]model.Record, error) {
	var raw []map[string]any
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding feed payload: %w", err)
	}
	records := make([]model.Record, 0, len(raw))
	for _, obj := range raw {
		var rec model.Record
		for k, v := range obj {
			rec.SetField(k, stringify(v))
		}
		records = append(records, rec)
	}
	return records, nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}
