package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/clarifyr"
)

// Ensure LoggingExplainService implements clarifyr.ExplainService.
var _ clarifyr.ExplainService = (*LoggingExplainService)(nil)

// LoggingExplainService wraps an ExplainService and logs every outcome.
// Client errors are logged at warn level, everything else that fails at
// error level.
type LoggingExplainService struct {
	next   clarifyr.ExplainService
	logger *slog.Logger
}

// NewLoggingExplainService creates a new LoggingExplainService.
func NewLoggingExplainService(next clarifyr.ExplainService, logger *slog.Logger) *LoggingExplainService {
	return &LoggingExplainService{next: next, logger: logger}
}

// Explain delegates to the wrapped service and logs the result.
func (s *LoggingExplainService) Explain(ctx context.Context, identity clarifyr.Identity, req *clarifyr.ExplainRequest) (result *clarifyr.ExplanationResult, err error) {
	defer func(begin time.Time) {
		level := slog.LevelInfo
		attrs := []any{
			"request_id", clarifyr.RequestIDFromContext(ctx),
			"user", identity.Label(),
			"duration", time.Since(begin),
		}
		if req != nil {
			attrs = append(attrs, "source", req.Source())
		}
		if err != nil {
			code := clarifyr.ErrorCode(err)
			level = slog.LevelError
			if code == clarifyr.EINVALID || code == clarifyr.EFETCH {
				level = slog.LevelWarn
			}
			attrs = append(attrs, "code", code, "err", err)
		}
		s.logger.Log(ctx, level, "explain request", attrs...)
	}(time.Now())
	return s.next.Explain(ctx, identity, req)
}
