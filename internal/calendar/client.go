// Package calendar supplies raw events from the school's subscribed calendar
// feeds. The rest of the system treats it as a black box: give it a source
// and a time range, get back events; no ordering is guaranteed and an empty
// feed is a normal result.
package calendar

import (
	"context"
	"time"

	"lessoncal/internal/model"
)

// Client fetches, parses and expands calendar feeds into RawEvents.
type Client struct {
	fetcher *Fetcher
	loc     *time.Location
}

// NewClient creates a Client whose fetch cache lives under cacheDir and whose
// events are normalized into loc.
func NewClient(cacheDir string, loc *time.Location) *Client {
	if loc == nil {
		loc = time.Local
	}
	return &Client{fetcher: NewFetcher(cacheDir), loc: loc}
}

// ListEvents returns the events of one source within [start, end].
// Re-fetching is idempotent; cancellation of ctx aborts the fetch.
func (c *Client) ListEvents(ctx context.Context, src Source, start, end time.Time) ([]model.RawEvent, error) {
	res, err := c.fetcher.FetchOne(ctx, src)
	if err != nil {
		return nil, err
	}
	parsed, err := parseFeed(src, res.Body)
	if err != nil {
		return nil, err
	}
	return expandEvents(parsed, c.loc, start, end), nil
}

// ListAll collects events from every source for the given range. One failing
// source contributes nothing but does not abort the rest; its error is
// returned alongside the partial result.
func (c *Client) ListAll(ctx context.Context, sources []Source, start, end time.Time) ([]model.RawEvent, []error) {
	all := make([]model.RawEvent, 0)
	errs := make([]error, 0)
	for _, src := range sources {
		events, err := c.ListEvents(ctx, src, start, end)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		all = append(all, events...)
	}
	return all, errs
}
