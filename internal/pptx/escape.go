package pptx

import "strings"

// The replacers work in a single pass, so an ampersand produced by one
// replacement is never escaped again.
var (
	markupEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
	markupUnescaper = strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&apos;", "'",
	)
)

// EscapeMarkup escapes the five predefined markup entities.
func EscapeMarkup(text string) string {
	return markupEscaper.Replace(text)
}

// UnescapeMarkup decodes the five predefined markup entities.
func UnescapeMarkup(text string) string {
	return markupUnescaper.Replace(text)
}
