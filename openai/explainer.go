// Package openai implements clarifyr.Explainer using the OpenAI Responses API.
package openai

import (
	"context"
	"errors"
	"strings"

	"github.com/fwojciec/clarifyr"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
)

// DefaultModel is the OpenAI model used when none is configured.
const DefaultModel = openai.ChatModelGPT5Mini

// Ensure Explainer implements clarifyr.Explainer at compile time.
var _ clarifyr.Explainer = (*Explainer)(nil)

// Explainer implements clarifyr.Explainer using OpenAI.
type Explainer struct {
	client openai.Client
	model  string
}

// NewExplainer creates a new Explainer. An empty model selects DefaultModel.
// The client never retries; extra options are applied after the defaults.
func NewExplainer(apiKey, model string, opts ...option.RequestOption) *Explainer {
	if model == "" {
		model = DefaultModel
	}
	opts = append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}, opts...)
	return &Explainer{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

// Explain sends the prompt to OpenAI once and returns the output text.
func (e *Explainer) Explain(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", clarifyr.Errorf(clarifyr.EINVALID, "prompt required")
	}

	resp, err := e.client.Responses.New(ctx, responses.ResponseNewParams{
		Model: e.model,
		Input: responses.ResponseNewParamsInputUnion{
			OfString: openai.String(prompt),
		},
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", clarifyr.WrapError(err, clarifyr.EMODEL, "openai request timed out")
		}
		return "", clarifyr.WrapError(err, clarifyr.EMODEL, "openai request failed")
	}

	if resp.Status == "incomplete" || resp.Status == "failed" {
		return "", clarifyr.Errorf(clarifyr.EMODEL, "openai response %s", resp.Status)
	}

	text := resp.OutputText()
	if strings.TrimSpace(text) == "" {
		return "", clarifyr.Errorf(clarifyr.EMODEL, "openai returned no text (status = %s)", resp.Status)
	}

	return text, nil
}
