package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/fwojciec/clarifyr"
	"github.com/fwojciec/clarifyr/explain"
	"github.com/fwojciec/clarifyr/gemini"
	"github.com/fwojciec/clarifyr/goquery"
	clarifyrhttp "github.com/fwojciec/clarifyr/http"
	clarifyropenai "github.com/fwojciec/clarifyr/openai"
	"github.com/fwojciec/clarifyr/rate"
	"github.com/fwojciec/clarifyr/readability"
	"github.com/fwojciec/clarifyr/rod"
	clarifyrslog "github.com/fwojciec/clarifyr/slog"
	"github.com/fwojciec/clarifyr/supabase"
	"github.com/fwojciec/clarifyr/tiktoken"
	"github.com/fwojciec/clarifyr/trafilatura"
	"google.golang.org/genai"
)

// wireExplainService builds the explain pipeline from cfg. Clients are
// created once here and shared by every request.
func (m *Main) wireExplainService(ctx context.Context, cfg *Config, logger *slog.Logger, stderr io.Writer) (clarifyr.ExplainService, error) {
	explainer, err := newExplainer(ctx, cfg, logger, stderr)
	if err != nil {
		return nil, err
	}

	fetcher := NewFetcher(cfg)
	m.closers = append(m.closers, fetcher)

	pipeline := &explain.Pipeline{
		Fetcher:          clarifyrslog.NewLoggingFetcher(fetcher, logger),
		Sanitizer:        clarifyrslog.NewLoggingSanitizer(NewSanitizer(cfg), logger),
		Explainer:        explainer,
		MaxContentLength: cfg.MaxContentLength,
		ModelTimeout:     cfg.ModelTimeout,
		Logger:           logger,
	}
	return clarifyrslog.NewLoggingExplainService(pipeline, logger), nil
}

// NewFetcher returns the fetcher backend selected by cfg, throttled per
// host unless CLARIFYR_FETCH_RPS is 0.
func NewFetcher(cfg *Config) clarifyr.Fetcher {
	fetcher := newFetcherBackend(cfg)
	if cfg.FetchRPS > 0 {
		return rate.NewFetcher(fetcher, cfg.FetchRPS)
	}
	return fetcher
}

func newFetcherBackend(cfg *Config) clarifyr.Fetcher {
	if cfg.Fetcher == FetcherRod {
		return rod.NewFetcher(
			rod.WithFetchTimeout(cfg.FetchTimeout),
			rod.WithUserAgent(clarifyrhttp.DefaultUserAgent),
			rod.WithBlockPrivateHosts(!cfg.AllowPrivateHosts),
		)
	}
	return clarifyrhttp.NewFetcher(
		clarifyrhttp.WithTimeout(cfg.FetchTimeout),
		clarifyrhttp.WithMaxRedirects(cfg.MaxRedirects),
		clarifyrhttp.WithBlockPrivateHosts(!cfg.AllowPrivateHosts),
	)
}

// NewSanitizer returns the sanitizer chain selected by cfg. Every chain ends
// in the goquery denylist sanitizer.
func NewSanitizer(cfg *Config) clarifyr.Sanitizer {
	text := goquery.NewSanitizer()
	switch cfg.Extractor {
	case ExtractorReadability:
		return readability.NewSanitizer(text)
	case ExtractorTrafilatura:
		return trafilatura.NewSanitizer(text)
	default:
		return text
	}
}

func newExplainer(ctx context.Context, cfg *Config, logger *slog.Logger, stderr io.Writer) (clarifyr.Explainer, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			fmt.Fprintln(stderr, "Hint: get an API key at https://platform.openai.com/api-keys")
			return nil, fmt.Errorf("OPENAI_API_KEY not set")
		}
		model := cfg.Model
		if model == "" {
			model = clarifyropenai.DefaultModel
		}

		var counter clarifyr.TokenCounter
		if tc, err := tiktoken.NewTokenCounter(model); err != nil {
			logger.Warn("token counting disabled", "model", model, "err", err)
		} else {
			counter = tc
		}

		explainer := clarifyropenai.NewExplainer(cfg.OpenAIAPIKey, model)
		return clarifyrslog.NewLoggingExplainer(explainer, counter, logger), nil

	default:
		if cfg.GeminiAPIKey == "" {
			fmt.Fprintln(stderr, "Hint: get an API key at https://aistudio.google.com/apikey")
			return nil, fmt.Errorf("GEMINI_API_KEY not set")
		}
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.GeminiAPIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			fmt.Fprintln(stderr, "Hint: check your GEMINI_API_KEY is valid")
			return nil, fmt.Errorf("failed to connect to Gemini API: %w", err)
		}
		model := cfg.Model
		if model == "" {
			model = gemini.DefaultModel
		}

		// Token counts are diagnostic only; run without them if the
		// local tokenizer does not know the model.
		var counter clarifyr.TokenCounter
		if tc, err := gemini.NewTokenCounter(model); err != nil {
			logger.Warn("token counting disabled", "model", model, "err", err)
		} else {
			counter = tc
		}

		return clarifyrslog.NewLoggingExplainer(gemini.NewExplainer(client, model), counter, logger), nil
	}
}

func newIdentityService(cfg *Config) clarifyr.IdentityService {
	return supabase.NewIdentityService(cfg.SupabaseURL, cfg.SupabaseKey)
}
