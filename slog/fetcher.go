// Package slog provides logging decorators for jptransit interfaces using
// the standard structured logger.
package slog

import (
	"context"
	"log/slog"
	"time"

	jptransit "github.com/anhlt/jp-transit-search"
)

// Ensure LoggingFetcher implements jptransit.Fetcher.
var _ jptransit.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher with structured logging of every fetch.
type LoggingFetcher struct {
	next   jptransit.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next jptransit.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch delegates to the wrapped fetcher and logs the URL, size, and
// duration, or the error on failure.
func (f *LoggingFetcher) Fetch(ctx context.Context, url string) (string, error) {
	begin := time.Now()
	html, err := f.next.Fetch(ctx, url)
	if err != nil {
		f.logger.Error("fetch",
			slog.String("url", url),
			slog.Duration("duration", time.Since(begin)),
			slog.Any("err", err),
		)
		return "", err
	}
	f.logger.Debug("fetch",
		slog.String("url", url),
		slog.Int("bytes", len(html)),
		slog.Duration("duration", time.Since(begin)),
	)
	return html, nil
}

// Close delegates to the wrapped fetcher.
func (f *LoggingFetcher) Close() error {
	return f.next.Close()
}
