// Package slog provides log/slog decorators for clarifyr services.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/clarifyr"
)

// Ensure LoggingFetcher implements clarifyr.Fetcher.
var _ clarifyr.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher with logging. Failed fetches are logged
// at warn level with their error code.
type LoggingFetcher struct {
	next   clarifyr.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next clarifyr.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch logs the URL being fetched and delegates to the wrapped fetcher.
func (f *LoggingFetcher) Fetch(ctx context.Context, url string) (html string, err error) {
	defer func(begin time.Time) {
		attrs := []any{
			"request_id", clarifyr.RequestIDFromContext(ctx),
			"url", url,
			"bytes", len(html),
			"duration", time.Since(begin),
		}
		if err != nil {
			f.logger.WarnContext(ctx, "fetch failed", append(attrs, "code", clarifyr.ErrorCode(err), "err", err)...)
			return
		}
		f.logger.InfoContext(ctx, "fetch", attrs...)
	}(time.Now())
	return f.next.Fetch(ctx, url)
}

// Close delegates to the wrapped fetcher.
func (f *LoggingFetcher) Close() error {
	return f.next.Close()
}
