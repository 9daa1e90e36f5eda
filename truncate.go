package clarifyr

// DefaultMaxContentLength is the default bound, in characters, on the
// content embedded in a prompt.
const DefaultMaxContentLength = 15000

// TruncationMarker is appended to content that exceeded the length bound.
const TruncationMarker = "...[TRUNCATED]"

// Truncate returns text unchanged when it has at most limit characters.
// Otherwise it returns the first limit characters followed by
// TruncationMarker. Characters are Unicode code points, so a cut never
// splits a UTF-8 sequence. A non-positive limit disables truncation.
func Truncate(text string, limit int) string {
	if limit <= 0 {
		return text
	}

	n := 0
	for i := range text {
		if n == limit {
			return text[:i] + TruncationMarker
		}
		n++
	}
	return text
}
