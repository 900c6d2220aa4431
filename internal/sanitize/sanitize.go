package sanitize

import (
	"regexp"
	"strings"
)

var (
	// Boundary between two blocks of a leaked Python repr:
	// `"), TextBlock(text="` or `', type='text'), TextBlock(text='`.
	blockSep = regexp.MustCompile(`["'](?:,\s*type=["']text["'])?\),\s*TextBlock\(text=["']?`)
	// Opening of the repr, e.g. `[TextBlock(text="`.
	blockOpen = regexp.MustCompile(`\[?TextBlock\(text=["']?`)
	// Closing of the repr at the end of the text, with or without the type field.
	blockClose = regexp.MustCompile(`["'](?:,\s*type=["']text["'])?\)\]\s*$`)

	escapes = strings.NewReplacer(`\r\n`, "\n", `\n`, "\n")
)

// ExtractedText strips serialization artifacts the backend may leak around
// OCR output, turns escaped newline sequences into real newlines and trims
// surrounding whitespace. Text without artifacts only has its escapes
// normalized and is trimmed.
func ExtractedText(raw string) string {
	text := raw
	if strings.Contains(text, "TextBlock(") {
		text = blockSep.ReplaceAllString(text, "\n")
		text = blockOpen.ReplaceAllString(text, "")
		text = blockClose.ReplaceAllString(text, "")
	}
	text = escapes.Replace(text)
	return strings.TrimSpace(text)
}
