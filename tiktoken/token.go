// Package tiktoken implements clarifyr.TokenCounter for OpenAI models with
// the tiktoken BPE encodings.
package tiktoken

import (
	"context"

	"github.com/fwojciec/clarifyr"
	"github.com/pkoukk/tiktoken-go"
)

// FallbackEncoding is used for models tiktoken has no mapping for.
const FallbackEncoding = "o200k_base"

var _ clarifyr.TokenCounter = (*TokenCounter)(nil)

// TokenCounter counts prompt tokens locally. The encoding tables are
// downloaded and cached by tiktoken-go on first use.
type TokenCounter struct {
	enc *tiktoken.Tiktoken
}

// NewTokenCounter returns a TokenCounter using the encoding for model.
func NewTokenCounter(model string) (*TokenCounter, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(FallbackEncoding)
		if err != nil {
			return nil, clarifyr.WrapError(err, clarifyr.EINTERNAL, "no tiktoken encoding for %s", model)
		}
	}
	return &TokenCounter{enc: enc}, nil
}

// CountTokens returns the number of tokens in prompt.
func (tc *TokenCounter) CountTokens(ctx context.Context, prompt string) (int, error) {
	if prompt == "" {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return len(tc.enc.Encode(prompt, nil, nil)), nil
}
