package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/caarlos0/env/v11"
	"github.com/fwojciec/clarifyr"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Environment the configuration is read from. Set before calling Run().
	Env map[string]string

	// Services for end-to-end testing. When nil, Run wires real ones.
	ExplainService  clarifyr.ExplainService
	IdentityService clarifyr.IdentityService

	closers []io.Closer
}

// NewMain returns a new instance of Main reading the process environment.
func NewMain() *Main {
	return &Main{
		Env: env.ToMap(os.Environ()),
	}
}

// Close releases resources opened by Run.
func (m *Main) Close() error {
	var firstErr error
	for i := len(m.closers) - 1; i >= 0; i-- {
		if err := m.closers[i].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	m.closers = nil
	return firstErr
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("clarifyr"),
		kong.Description("Explain text or web pages in plain language."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'clarifyr --help' to see available commands")
	}

	switch args[0] {
	case "help", "--help", "-h":
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	cfg, err := LoadConfig(m.Env)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	deps.Config = cfg

	logger := NewLogger(stderr, cli.LogFormat, cli.Verbose)
	deps.Logger = logger

	defer m.Close()

	// Usage errors come before any client is wired.
	if kongCtx.Command() == "explain" {
		if _, err := cli.Explain.request(stderr); err != nil {
			return err
		}
	}

	if m.ExplainService == nil {
		svc, err := m.wireExplainService(ctx, cfg, logger, stderr)
		if err != nil {
			return err
		}
		m.ExplainService = svc
	}
	deps.Explainer = m.ExplainService

	if kongCtx.Command() == "serve" {
		if m.IdentityService == nil {
			if cfg.SupabaseURL == "" || cfg.SupabaseKey == "" {
				fmt.Fprintln(stderr, "Hint: serve verifies bearer tokens with Supabase; set SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY")
				return fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY must be set")
			}
			m.IdentityService = newIdentityService(cfg)
		}
		deps.Identities = m.IdentityService
	}

	return kongCtx.Run(deps)
}

// NewLogger returns a logger writing to w in the given format ("text" or "json").
func NewLogger(w io.Writer, format string, verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
