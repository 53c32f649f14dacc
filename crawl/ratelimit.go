package crawl

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Default politeness intervals against the source site.
const (
	DefaultLineInterval   = 1 * time.Second
	DefaultDetailInterval = 500 * time.Millisecond
)

// Throttle paces requests against the source site using token buckets:
// one bucket for line listing pages and a faster one for station detail
// pages. A nil Throttle never blocks.
type Throttle struct {
	line   *rate.Limiter
	detail *rate.Limiter
}

// NewThrottle creates a Throttle with the given minimum intervals between
// line page fetches and station detail fetches. A non-positive interval
// disables the corresponding limit.
func NewThrottle(lineInterval, detailInterval time.Duration) *Throttle {
	t := &Throttle{}
	if lineInterval > 0 {
		t.line = rate.NewLimiter(rate.Every(lineInterval), 1)
	}
	if detailInterval > 0 {
		t.detail = rate.NewLimiter(rate.Every(detailInterval), 1)
	}
	return t
}

// WaitLine blocks until a line page fetch is allowed.
// Returns an error if the context is canceled before the wait completes.
func (t *Throttle) WaitLine(ctx context.Context) error {
	if t == nil || t.line == nil {
		return nil
	}
	return t.line.Wait(ctx)
}

// WaitDetail blocks until a station detail fetch is allowed.
func (t *Throttle) WaitDetail(ctx context.Context) error {
	if t == nil || t.detail == nil {
		return nil
	}
	return t.detail.Wait(ctx)
}
