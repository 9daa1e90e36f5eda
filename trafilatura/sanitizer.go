// Package trafilatura implements clarifyr.Sanitizer by isolating the main
// content of a page with go-trafilatura before flattening it to text.
package trafilatura

import (
	"bytes"
	"strings"

	"github.com/fwojciec/clarifyr"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

// Ensure Sanitizer implements clarifyr.Sanitizer at compile time.
var _ clarifyr.Sanitizer = (*Sanitizer)(nil)

// Sanitizer narrows a document to its main content and hands the result to
// a text sanitizer. When trafilatura finds nothing the whole document goes
// to the text sanitizer instead.
type Sanitizer struct {
	text clarifyr.Sanitizer
}

// NewSanitizer creates a new Sanitizer that flattens with text.
func NewSanitizer(text clarifyr.Sanitizer) *Sanitizer {
	return &Sanitizer{text: text}
}

// Sanitize returns the plain text of the main content in rawHTML.
func (s *Sanitizer) Sanitize(rawHTML string) string {
	if strings.TrimSpace(rawHTML) == "" {
		return ""
	}

	opts := trafilatura.Options{
		EnableFallback: true,
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), opts)
	if err == nil && result != nil && result.ContentNode != nil {
		if contentHTML, err := renderNode(result.ContentNode); err == nil {
			if text := s.text.Sanitize(contentHTML); text != "" {
				return text
			}
		}
	}

	return s.text.Sanitize(rawHTML)
}

// renderNode converts an html.Node to a string.
func renderNode(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}
