package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/clarifyr"
)

// Ensure LoggingExplainer implements clarifyr.Explainer.
var _ clarifyr.Explainer = (*LoggingExplainer)(nil)

// LoggingExplainer wraps an Explainer with logging. When a TokenCounter is
// supplied the prompt size is also reported in tokens.
type LoggingExplainer struct {
	next    clarifyr.Explainer
	counter clarifyr.TokenCounter
	logger  *slog.Logger
}

// NewLoggingExplainer creates a new LoggingExplainer. counter may be nil.
func NewLoggingExplainer(next clarifyr.Explainer, counter clarifyr.TokenCounter, logger *slog.Logger) *LoggingExplainer {
	return &LoggingExplainer{next: next, counter: counter, logger: logger}
}

// Explain delegates to the wrapped explainer and logs the call.
func (e *LoggingExplainer) Explain(ctx context.Context, prompt string) (explanation string, err error) {
	attrs := []any{
		"request_id", clarifyr.RequestIDFromContext(ctx),
		"prompt_bytes", len(prompt),
	}
	if e.counter != nil {
		if tokens, cerr := e.counter.CountTokens(ctx, prompt); cerr == nil {
			attrs = append(attrs, "prompt_tokens", tokens)
		}
	}

	defer func(begin time.Time) {
		e.logger.InfoContext(ctx, "explain", append(attrs,
			"response_bytes", len(explanation),
			"duration", time.Since(begin),
			"err", err,
		)...)
	}(time.Now())
	return e.next.Explain(ctx, prompt)
}
