package mock

import "github.com/fwojciec/clarifyr"

var _ clarifyr.Sanitizer = (*Sanitizer)(nil)

// Sanitizer is a mock implementation of clarifyr.Sanitizer.
type Sanitizer struct {
	SanitizeFn func(html string) string
}

func (s *Sanitizer) Sanitize(html string) string {
	return s.SanitizeFn(html)
}
