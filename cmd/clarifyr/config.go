package main

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/fwojciec/clarifyr"
)

// Model providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Main-content extractors applied before text sanitization.
const (
	ExtractorBasic       = "basic"
	ExtractorReadability = "readability"
	ExtractorTrafilatura = "trafilatura"
)

// Fetcher backends.
const (
	FetcherHTTP = "http"
	FetcherRod  = "rod"
)

// DefaultAddr is the listen address when neither CLARIFYR_ADDR nor PORT is set.
const DefaultAddr = ":3000"

// Config is the environment configuration of the program.
type Config struct {
	Addr string `env:"CLARIFYR_ADDR"`
	Port string `env:"PORT"`

	Provider     string `env:"CLARIFYR_PROVIDER" envDefault:"gemini"`
	Model        string `env:"CLARIFYR_MODEL"`
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	OpenAIAPIKey string `env:"OPENAI_API_KEY"`

	MaxContentLength  int           `env:"CLARIFYR_MAX_CONTENT_LENGTH"  envDefault:"15000"`
	FetchTimeout      time.Duration `env:"CLARIFYR_FETCH_TIMEOUT"       envDefault:"10s"`
	ModelTimeout      time.Duration `env:"CLARIFYR_MODEL_TIMEOUT"       envDefault:"60s"`
	MaxRedirects      int           `env:"CLARIFYR_MAX_REDIRECTS"       envDefault:"5"`
	Extractor         string        `env:"CLARIFYR_EXTRACTOR"           envDefault:"basic"`
	Fetcher           string        `env:"CLARIFYR_FETCHER"             envDefault:"http"`
	AllowPrivateHosts bool          `env:"CLARIFYR_ALLOW_PRIVATE_HOSTS"`
	FetchRPS          float64       `env:"CLARIFYR_FETCH_RPS"           envDefault:"2"`

	SupabaseURL string `env:"SUPABASE_URL"`
	SupabaseKey string `env:"SUPABASE_SERVICE_ROLE_KEY"`
}

// LoadConfig parses the configuration from the given environment.
func LoadConfig(environ map[string]string) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return nil, clarifyr.WrapError(err, clarifyr.EINVALID, "invalid environment configuration")
	}
	return &cfg, nil
}

// Validate returns EINVALID for limits and choices the program cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.MaxContentLength <= 0:
		return clarifyr.Errorf(clarifyr.EINVALID, "CLARIFYR_MAX_CONTENT_LENGTH must be positive, got %d", c.MaxContentLength)
	case c.FetchTimeout <= 0:
		return clarifyr.Errorf(clarifyr.EINVALID, "CLARIFYR_FETCH_TIMEOUT must be positive, got %s", c.FetchTimeout)
	case c.ModelTimeout <= 0:
		return clarifyr.Errorf(clarifyr.EINVALID, "CLARIFYR_MODEL_TIMEOUT must be positive, got %s", c.ModelTimeout)
	case c.MaxRedirects < 0:
		return clarifyr.Errorf(clarifyr.EINVALID, "CLARIFYR_MAX_REDIRECTS must not be negative, got %d", c.MaxRedirects)
	case c.FetchRPS < 0:
		return clarifyr.Errorf(clarifyr.EINVALID, "CLARIFYR_FETCH_RPS must not be negative, got %g", c.FetchRPS)
	}

	if c.Provider != ProviderGemini && c.Provider != ProviderOpenAI {
		return clarifyr.Errorf(clarifyr.EINVALID, "unknown provider %q (want gemini or openai)", c.Provider)
	}
	switch c.Extractor {
	case ExtractorBasic, ExtractorReadability, ExtractorTrafilatura:
	default:
		return clarifyr.Errorf(clarifyr.EINVALID, "unknown extractor %q (want basic, readability or trafilatura)", c.Extractor)
	}
	if c.Fetcher != FetcherHTTP && c.Fetcher != FetcherRod {
		return clarifyr.Errorf(clarifyr.EINVALID, "unknown fetcher %q (want http or rod)", c.Fetcher)
	}
	return nil
}

// ListenAddr returns the address the server binds to.
func (c *Config) ListenAddr() string {
	if c.Addr != "" {
		return c.Addr
	}
	if c.Port != "" {
		return ":" + c.Port
	}
	return DefaultAddr
}
