package cache

import (
	"context"
	"time"

	"github.com/vanderheijden86/propdeck/pkg/debug"
	"github.com/vanderheijden86/propdeck/pkg/metrics"
	"github.com/vanderheijden86/propdeck/pkg/model"
)

// Pagination and retry defaults.
const (
	DefaultPageSize      = 1000
	DefaultPageRetries   = 3
	DefaultRetryBaseWait = 500 * time.Millisecond
)

// PageFetcher fetches one page of records at the given offset.
type PageFetcher func(ctx context.Context, offset, limit int) ([]model.Record, error)

// FetchResult is the outcome of a full-set fetch. Complete is false when the
// per-page retry budget was exhausted mid-stream and the records are only a
// prefix of the data set; the count alone cannot distinguish that from a
// naturally short result.
type FetchResult struct {
	Records  []model.Record
	Complete bool
}

// FetchOption configures FetchAll.
type FetchOption func(*fetchConfig)

type fetchConfig struct {
	pageSize  int
	retries   int
	baseWait  time.Duration
	onRecords func(total int)
}

// WithPageSize overrides the page size.
func WithPageSize(n int) FetchOption {
	return func(c *fetchConfig) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithPageRetries overrides the per-page retry bound.
func WithPageRetries(n int) FetchOption {
	return func(c *fetchConfig) {
		if n > 0 {
			c.retries = n
		}
	}
}

// WithRetryBaseWait overrides the backoff unit; attempt n waits n*base.
func WithRetryBaseWait(d time.Duration) FetchOption {
	return func(c *fetchConfig) { c.baseWait = d }
}

// WithProgress reports the running record count after each page. Reporting
// is fire-and-forget; a panicking callback must not affect the fetch.
func WithProgress(fn func(total int)) FetchOption {
	return func(c *fetchConfig) { c.onRecords = fn }
}

// FetchAll pulls the full record set page by page, advancing an offset
// cursor until a page comes back shorter than the page size or empty. A
// failed page is retried up to the bound with linearly increasing backoff;
// once the budget is exhausted, whatever has accumulated is returned with
// Complete=false rather than failing the whole operation.
func FetchAll(ctx context.Context, fetch PageFetcher, opts ...FetchOption) FetchResult {
	defer metrics.Timer(metrics.FetchAll)()
	cfg := fetchConfig{
		pageSize: DefaultPageSize,
		retries:  DefaultPageRetries,
		baseWait: DefaultRetryBaseWait,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	var records []model.Record
	offset := 0
	for {
		page, err := fetchPageWithRetry(ctx, fetch, offset, cfg)
		if err != nil {
			debug.Log("fetch: giving up at offset %d with %d records: %v", offset, len(records), err)
			return FetchResult{Records: records, Complete: false}
		}
		records = append(records, page...)
		reportProgress(cfg.onRecords, len(records))
		if len(page) < cfg.pageSize {
			return FetchResult{Records: records, Complete: true}
		}
		offset += cfg.pageSize
	}
}

// fetchPageWithRetry retries the same page up to the bound, waiting
// attempt*baseWait between tries.
func fetchPageWithRetry(ctx context.Context, fetch PageFetcher, offset int, cfg fetchConfig) ([]model.Record, error) {
	var lastErr error
	for attempt := 1; attempt <= cfg.retries; attempt++ {
		done := metrics.Timer(metrics.FetchPage)
		page, err := fetch(ctx, offset, cfg.pageSize)
		done()
		if err == nil {
			return page, nil
		}
		lastErr = err
		debug.Log("fetch: page offset %d attempt %d/%d failed: %v", offset, attempt, cfg.retries, err)
		if attempt == cfg.retries {
			break
		}
		select {
		case <-time.After(time.Duration(attempt) * cfg.baseWait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

func reportProgress(fn func(int), total int) {
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			debug.Log("progress callback panic: %v", r)
		}
	}()
	fn(total)
}
