package clarifyr

import (
	"context"
	"strings"
)

// Source records where explained content came from.
type Source string

// Source constants for ExplanationResult.
const (
	SourceURL  Source = "url"
	SourceText Source = "text"
)

// ExplainRequest is the payload of a single explain call.
// When URL is set it takes precedence over Text.
type ExplainRequest struct {
	URL  string `json:"url,omitempty"`
	Text string `json:"text,omitempty"`
}

// Source returns the mode the request will be served in.
func (r *ExplainRequest) Source() Source {
	if strings.TrimSpace(r.URL) != "" {
		return SourceURL
	}
	return SourceText
}

// Validate returns an error if the request carries neither a URL nor text.
func (r *ExplainRequest) Validate() error {
	if strings.TrimSpace(r.URL) == "" && strings.TrimSpace(r.Text) == "" {
		return Errorf(EINVALID, "url or text required")
	}
	return nil
}

// ExplanationResult is the outcome of one successful explain call.
type ExplanationResult struct {
	Success          bool   `json:"success"`
	ExplainedForUser string `json:"explainedForUser"`
	Source           Source `json:"source"`
	Explanation      string `json:"explanation"`
}

// ExplainService produces explanations for authenticated callers.
type ExplainService interface {
	// Explain acquires the request's content, prompts the model once and
	// returns its explanation. Returns EINVALID when there is no content,
	// EFETCH when the URL cannot be retrieved and EMODEL when the model
	// call fails.
	Explain(ctx context.Context, identity Identity, req *ExplainRequest) (*ExplanationResult, error)
}
