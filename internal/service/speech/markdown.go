package speech

import "regexp"

// Markdown markers the front end renders but the voice should not read out.
var markdownMarkers = regexp.MustCompile("(\\*\\*|__|\\*|_|`|#+\\s)")

// StripMarkdown removes emphasis and heading markers before synthesis.
func StripMarkdown(text string) string {
	return markdownMarkers.ReplaceAllString(text, "")
}
