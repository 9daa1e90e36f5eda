package gemini

import (
	"context"

	"github.com/fwojciec/clarifyr"
	"google.golang.org/genai"
	"google.golang.org/genai/tokenizer"
)

// TokenizerFallbackModel is used when the local tokenizer does not know the
// configured model. Counts are then approximate.
const TokenizerFallbackModel = "gemini-2.5-flash"

var _ clarifyr.TokenCounter = (*TokenCounter)(nil)

// TokenCounter reports how many tokens a prompt costs. It runs the Gemini
// tokenizer locally and never calls the API.
type TokenCounter struct {
	tok   *tokenizer.LocalTokenizer
	model string
}

// NewTokenCounter returns a TokenCounter for model, or for
// TokenizerFallbackModel if the tokenizer has no vocabulary for model.
func NewTokenCounter(model string) (*TokenCounter, error) {
	tok, err := tokenizer.NewLocalTokenizer(model)
	if err != nil && model != TokenizerFallbackModel {
		model = TokenizerFallbackModel
		tok, err = tokenizer.NewLocalTokenizer(model)
	}
	if err != nil {
		return nil, clarifyr.WrapError(err, clarifyr.EINTERNAL, "no local tokenizer for %s", model)
	}
	return &TokenCounter{tok: tok, model: model}, nil
}

// Model returns the model whose vocabulary is used for counting.
func (tc *TokenCounter) Model() string {
	return tc.model
}

// CountTokens returns the number of tokens prompt occupies as a single
// user turn.
func (tc *TokenCounter) CountTokens(ctx context.Context, prompt string) (int, error) {
	if prompt == "" {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	result, err := tc.tok.CountTokens([]*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}, nil)
	if err != nil {
		return 0, clarifyr.WrapError(err, clarifyr.EINTERNAL, "counting tokens")
	}
	return int(result.TotalTokens), nil
}
