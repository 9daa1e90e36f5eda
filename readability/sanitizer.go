// Package readability implements clarifyr.Sanitizer by isolating the main
// article of a page with go-readability before flattening it to text.
package readability

import (
	"strings"

	"github.com/fwojciec/clarifyr"
	"github.com/go-shiori/go-readability"
)

// Ensure Sanitizer implements clarifyr.Sanitizer at compile time.
var _ clarifyr.Sanitizer = (*Sanitizer)(nil)

// Sanitizer narrows a document to its main article and hands the result to
// a text sanitizer. When readability cannot find an article the whole
// document goes to the text sanitizer instead.
type Sanitizer struct {
	text clarifyr.Sanitizer
}

// NewSanitizer creates a new Sanitizer that flattens with text.
func NewSanitizer(text clarifyr.Sanitizer) *Sanitizer {
	return &Sanitizer{text: text}
}

// Sanitize returns the plain text of the main article in rawHTML.
func (s *Sanitizer) Sanitize(rawHTML string) string {
	if strings.TrimSpace(rawHTML) == "" {
		return ""
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), nil)
	if err == nil && strings.TrimSpace(article.Content) != "" {
		if text := s.text.Sanitize(article.Content); text != "" {
			return text
		}
	}

	return s.text.Sanitize(rawHTML)
}
