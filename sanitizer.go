package clarifyr

import "strings"

// Sanitizer flattens an HTML document into plain text, dropping scripts,
// styles, navigation chrome and ad or cookie banners.
type Sanitizer interface {
	// Sanitize returns the whitespace-collapsed text of the document body.
	// It is a pure function of its input. Empty or malformed documents
	// yield an empty string rather than an error.
	Sanitize(html string) string
}

// CollapseWhitespace replaces every run of whitespace with a single space
// and trims the result.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
