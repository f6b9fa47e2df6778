package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

const (
	DefaultPageSize = 250
	DefaultMaxItems = 250000
	DefaultMaxPages = 1000
)

type FetcherOptions struct {
	PageSize int
	MaxItems int
	MaxPages int
}

// Fetcher pages through list endpoints until the collection is exhausted or a safety cap is hit.
type Fetcher struct {
	client   Doer
	pageSize int
	maxItems int
	maxPages int
	logger   *zap.SugaredLogger
}

func NewFetcher(client Doer, opts FetcherOptions, logger *zap.SugaredLogger) *Fetcher {
	f := &Fetcher{
		client:   client,
		pageSize: opts.PageSize,
		maxItems: opts.MaxItems,
		maxPages: opts.MaxPages,
		logger:   logger.With(zap.String("component", "fetcher")),
	}
	if f.pageSize <= 0 {
		f.pageSize = DefaultPageSize
	}
	if f.maxItems <= 0 {
		f.maxItems = DefaultMaxItems
	}
	if f.maxPages <= 0 {
		f.maxPages = DefaultMaxPages
	}
	return f
}

func (f *Fetcher) Client() Doer {
	return f.client
}

// FetchAll returns every item under responseKey of endpoint, following Link header cursors.
// Reaching the item or page cap is logged and the items collected so far are returned.
func (f *Fetcher) FetchAll(ctx context.Context, endpoint string, responseKey string) ([]json.RawMessage, error) {
	var (
		items  []json.RawMessage
		cursor string
	)
	for page := 1; ; page++ {
		if page > f.maxPages {
			f.logger.Warnw("page cap reached, result truncated", "endpoint", endpoint, "pages", f.maxPages, "items", len(items))
			return items, nil
		}
		pageItems, next, err := f.fetchPage(ctx, endpoint, responseKey, cursor)
		if err != nil {
			return nil, err
		}
		if len(pageItems) == 0 {
			return items, nil
		}
		items = append(items, pageItems...)
		if len(items) >= f.maxItems {
			f.logger.Warnw("item cap reached, result truncated", "endpoint", endpoint, "items", f.maxItems)
			return items[:f.maxItems], nil
		}
		if next == "" {
			return items, nil
		}
		cursor = next
	}
}

// FindFirst returns the first item of one page of endpoint, typically a handle or path lookup.
func (f *Fetcher) FindFirst(ctx context.Context, endpoint string, responseKey string) (json.RawMessage, bool, error) {
	u, err := pageURL(endpoint, 1, "")
	if err != nil {
		return nil, false, fmt.Errorf("invalid endpoint %s: %w", endpoint, err)
	}
	items, err := f.decodeList(ctx, u, responseKey, nil)
	if err != nil {
		return nil, false, err
	}
	if len(items) == 0 {
		return nil, false, nil
	}
	return items[0], true, nil
}

func (f *Fetcher) fetchPage(ctx context.Context, endpoint, responseKey, cursor string) ([]json.RawMessage, string, error) {
	u, err := pageURL(endpoint, f.pageSize, cursor)
	if err != nil {
		return nil, "", fmt.Errorf("invalid endpoint %s: %w", endpoint, err)
	}
	var next string
	items, err := f.decodeList(ctx, u, responseKey, &next)
	if err != nil {
		return nil, "", err
	}
	return items, next, nil
}

func (f *Fetcher) decodeList(ctx context.Context, u, responseKey string, next *string) ([]json.RawMessage, error) {
	resp, err := f.client.Execute(ctx, http.MethodGet, u)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", u, err)
	}
	if err := CheckStatus(http.MethodGet, u, resp); err != nil {
		return nil, err
	}
	var envelope map[string]json.RawMessage
	if err := resp.Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", u, err)
	}
	var items []json.RawMessage
	if raw, ok := envelope[responseKey]; ok && string(raw) != "null" {
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("failed to decode %s of %s: %w", responseKey, u, err)
		}
	}
	if next != nil {
		*next = NextPageInfo(resp.Header)
	}
	return items, nil
}
