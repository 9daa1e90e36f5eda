// Package explain provides the explain pipeline orchestration.
// It coordinates fetching, sanitizing, truncation, prompt construction
// and the model call for a single request.
package explain

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/clarifyr"
)

// DefaultModelTimeout bounds a single model call.
const DefaultModelTimeout = 60 * time.Second

// Ensure Pipeline implements clarifyr.ExplainService at compile time.
var _ clarifyr.ExplainService = (*Pipeline)(nil)

// Pipeline turns an ExplainRequest into an ExplanationResult.
// A Pipeline holds no per-request state and is safe for concurrent use.
type Pipeline struct {
	Fetcher   clarifyr.Fetcher
	Sanitizer clarifyr.Sanitizer
	Explainer clarifyr.Explainer

	// MaxContentLength bounds the content embedded in the prompt.
	// Defaults to clarifyr.DefaultMaxContentLength.
	MaxContentLength int

	// ModelTimeout bounds the model call. Defaults to DefaultModelTimeout.
	ModelTimeout time.Duration

	// Logger receives pipeline diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

// Explain runs the pipeline for one request.
func (p *Pipeline) Explain(ctx context.Context, identity clarifyr.Identity, req *clarifyr.ExplainRequest) (*clarifyr.ExplanationResult, error) {
	if req == nil {
		return nil, clarifyr.Errorf(clarifyr.EINVALID, "request required")
	}

	source := req.Source()

	content, err := p.content(ctx, req, source)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(content) == "" {
		return nil, clarifyr.Errorf(clarifyr.EINVALID, "no content to explain")
	}

	p.logger().Debug("content ready",
		"source", source,
		"chars", len([]rune(content)),
		"hash", strconv.FormatUint(xxhash.Sum64String(content), 16),
	)

	prompt := clarifyr.BuildPrompt(content)

	explanation, err := p.explain(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return &clarifyr.ExplanationResult{
		Success:          true,
		ExplainedForUser: identity.Label(),
		Source:           source,
		Explanation:      explanation,
	}, nil
}

// content acquires and normalizes the request's content. Both modes go
// through Truncate so the bound holds regardless of where content came from.
func (p *Pipeline) content(ctx context.Context, req *clarifyr.ExplainRequest, source clarifyr.Source) (string, error) {
	if source == clarifyr.SourceText {
		return clarifyr.Truncate(req.Text, p.maxContentLength()), nil
	}

	rawURL := strings.TrimSpace(req.URL)
	html, err := p.Fetcher.Fetch(ctx, rawURL)
	if err != nil {
		if clarifyr.ErrorCode(err) != clarifyr.EFETCH {
			err = clarifyr.WrapError(err, clarifyr.EFETCH, "failed to fetch %s", rawURL)
		}
		return "", err
	}

	text := p.Sanitizer.Sanitize(html)
	return clarifyr.Truncate(text, p.maxContentLength()), nil
}

// explain makes the single model call under the model timeout.
func (p *Pipeline) explain(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.modelTimeout())
	defer cancel()

	explanation, err := p.Explainer.Explain(ctx, prompt)
	if err != nil {
		if clarifyr.ErrorCode(err) != clarifyr.EMODEL {
			err = clarifyr.WrapError(err, clarifyr.EMODEL, "model call failed")
		}
		return "", err
	}
	return explanation, nil
}

func (p *Pipeline) maxContentLength() int {
	if p.MaxContentLength <= 0 {
		return clarifyr.DefaultMaxContentLength
	}
	return p.MaxContentLength
}

func (p *Pipeline) modelTimeout() time.Duration {
	if p.ModelTimeout <= 0 {
		return DefaultModelTimeout
	}
	return p.ModelTimeout
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}
