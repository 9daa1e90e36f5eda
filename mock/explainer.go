package mock

import (
	"context"

	"github.com/fwojciec/clarifyr"
)

var _ clarifyr.Explainer = (*Explainer)(nil)

// Explainer is a mock implementation of clarifyr.Explainer.
type Explainer struct {
	ExplainFn func(ctx context.Context, prompt string) (string, error)
}

func (e *Explainer) Explain(ctx context.Context, prompt string) (string, error) {
	return e.ExplainFn(ctx, prompt)
}

var _ clarifyr.TokenCounter = (*TokenCounter)(nil)

// TokenCounter is a mock implementation of clarifyr.TokenCounter.
type TokenCounter struct {
	CountTokensFn func(ctx context.Context, text string) (int, error)
}

func (tc *TokenCounter) CountTokens(ctx context.Context, text string) (int, error) {
	return tc.CountTokensFn(ctx, text)
}
