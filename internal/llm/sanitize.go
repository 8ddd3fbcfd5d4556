package llm

import (
	"regexp"
	"strings"
)

// Matches markdown fence markers, language-tagged or bare, with their
// trailing newline if present.
var codeFenceRe = regexp.MustCompile("```[a-zA-Z0-9]*\n?")

// StripCodeFences removes markdown code fence markers and surrounding
// whitespace from raw model output. Idempotent: applying it to already
// stripped text is a no-op.
func StripCodeFences(raw string) string {
	return strings.TrimSpace(codeFenceRe.ReplaceAllString(raw, ""))
}
