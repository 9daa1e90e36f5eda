package slog

import (
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/fwojciec/clarifyr"
)

// Ensure LoggingSanitizer implements clarifyr.Sanitizer.
var _ clarifyr.Sanitizer = (*LoggingSanitizer)(nil)

// LoggingSanitizer wraps a Sanitizer with debug logging.
type LoggingSanitizer struct {
	next   clarifyr.Sanitizer
	logger *slog.Logger
}

// NewLoggingSanitizer creates a new LoggingSanitizer.
func NewLoggingSanitizer(next clarifyr.Sanitizer, logger *slog.Logger) *LoggingSanitizer {
	return &LoggingSanitizer{next: next, logger: logger}
}

// Sanitize delegates to the wrapped sanitizer and logs input and output sizes.
func (s *LoggingSanitizer) Sanitize(html string) (text string) {
	defer func(begin time.Time) {
		s.logger.Debug("sanitize",
			"bytes", len(html),
			"chars", utf8.RuneCountInString(text),
			"duration", time.Since(begin),
		)
	}(time.Now())
	return s.next.Sanitize(html)
}
