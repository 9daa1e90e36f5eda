// Package gemini implements clarifyr.Explainer and clarifyr.TokenCounter
// using Google Gemini.
package gemini

import (
	"context"
	"errors"
	"strings"

	"github.com/fwojciec/clarifyr"
	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// Ensure Explainer implements clarifyr.Explainer at compile time.
var _ clarifyr.Explainer = (*Explainer)(nil)

// Explainer implements clarifyr.Explainer using Google Gemini.
type Explainer struct {
	client *genai.Client
	model  string
}

// NewExplainer creates a new Explainer. An empty model selects DefaultModel.
func NewExplainer(client *genai.Client, model string) *Explainer {
	if model == "" {
		model = DefaultModel
	}
	return &Explainer{client: client, model: model}
}

// Explain sends the prompt to Gemini once and returns the response text.
func (e *Explainer) Explain(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", clarifyr.Errorf(clarifyr.EINVALID, "prompt required")
	}

	result, err := e.client.Models.GenerateContent(ctx, e.model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		BuildConfig(),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", clarifyr.WrapError(err, clarifyr.EMODEL, "gemini request timed out")
		}
		return "", clarifyr.WrapError(err, clarifyr.EMODEL, "gemini request failed")
	}
	if result == nil {
		return "", clarifyr.Errorf(clarifyr.EMODEL, "gemini returned nil result")
	}

	text := result.Text()
	if strings.TrimSpace(text) == "" {
		return "", clarifyr.Errorf(clarifyr.EMODEL, "gemini returned no text")
	}

	return text, nil
}

// BuildConfig returns the GenerateContentConfig for Gemini API calls.
// The persona and output structure live in the prompt itself.
func BuildConfig() *genai.GenerateContentConfig {
	temp := float32(0.4)
	return &genai.GenerateContentConfig{
		Temperature: &temp,
	}
}
