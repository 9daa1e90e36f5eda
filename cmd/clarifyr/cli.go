package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/fwojciec/clarifyr"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx        context.Context
	Stdout     io.Writer
	Stderr     io.Writer
	Config     *Config
	Logger     *slog.Logger
	Explainer  clarifyr.ExplainService
	Identities clarifyr.IdentityService
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	LogFormat string `name:"log-format" enum:"text,json" default:"text" help:"Log output format (text or json)"`
	Verbose   bool   `short:"v" help:"Enable debug logging"`

	Serve   ServeCmd   `cmd:"" help:"Run the HTTP API server"`
	Explain ExplainCmd `cmd:"" help:"Explain a URL or a piece of text"`
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	Addr string `short:"a" help:"Listen address (overrides CLARIFYR_ADDR and PORT)"`
}

// ExplainCmd is the "explain" subcommand.
type ExplainCmd struct {
	URL  string `short:"u" name:"url" help:"URL of the page to explain"`
	Text string `short:"t" help:"Text to explain"`
	User string `env:"USER" default:"local" help:"Name the explanation is attributed to"`
	JSON bool   `help:"Print the full result as JSON"`
}
