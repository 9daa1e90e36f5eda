package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fwojciec/clarifyr"
)

// Run executes the explain command.
func (c *ExplainCmd) Run(deps *Dependencies) error {
	req, err := c.request(deps.Stderr)
	if err != nil {
		return err
	}

	result, err := deps.Explainer.Explain(deps.Ctx, clarifyr.Identity{ID: c.User}, req)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", clarifyr.ErrorDetails(err))
		return err
	}

	if c.JSON {
		enc := json.NewEncoder(deps.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Fprintln(deps.Stdout, result.Explanation)
	return nil
}

// request builds the explain request from the flags, reporting a usage
// error to stderr when neither --url nor --text is set.
func (c *ExplainCmd) request(stderr io.Writer) (*clarifyr.ExplainRequest, error) {
	req := &clarifyr.ExplainRequest{URL: c.URL, Text: c.Text}
	if err := req.Validate(); err != nil {
		fmt.Fprintln(stderr, "error: pass --url or --text")
		return nil, err
	}
	return req, nil
}
