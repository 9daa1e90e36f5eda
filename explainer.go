package clarifyr

import "context"

// Explainer submits a prompt to a generative text model.
type Explainer interface {
	// Explain makes exactly one model call and returns the raw text of the
	// response without post-processing. Failures, including an empty
	// response, are reported as EMODEL errors.
	Explain(ctx context.Context, prompt string) (string, error)
}

// TokenCounter counts tokens in text for a specific model.
type TokenCounter interface {
	CountTokens(ctx context.Context, text string) (int, error)
}
