package main

import (
	"fmt"

	clarifyrhttp "github.com/fwojciec/clarifyr/http"
)

// Run executes the serve command. It blocks until the context is canceled.
func (c *ServeCmd) Run(deps *Dependencies) error {
	server := clarifyrhttp.NewServer()
	server.Addr = c.Addr
	if server.Addr == "" {
		server.Addr = deps.Config.ListenAddr()
	}
	server.ExplainService = deps.Explainer
	server.IdentityService = deps.Identities
	server.Logger = deps.Logger

	if err := server.Open(); err != nil {
		return fmt.Errorf("failed to listen on %s: %w", server.Addr, err)
	}

	fmt.Fprintf(deps.Stdout, "clarifyr listening on %s\n", server.URL())
	deps.Logger.Info("server started",
		"addr", server.URL(),
		"provider", deps.Config.Provider,
		"fetcher", deps.Config.Fetcher,
		"extractor", deps.Config.Extractor,
	)

	if err := server.Serve(deps.Ctx); err != nil {
		return err
	}

	deps.Logger.Info("server stopped")
	return nil
}
