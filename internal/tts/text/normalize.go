// Package text prepares presentation scripts for speech synthesis.
package text

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	urlPattern       = `https?://\S+`
	emailPattern     = `[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`
	directionPattern = `\[[^\]]*\]`
	markdownPattern  = `[*_#]+`
	dashPattern      = `\s*[—–‒]\s*`
	whitespace       = `\s+`

	placeholderFmt = "\x00%d\x00"
)

// spokenForms holds the spoken form of written abbreviations and symbols per language.
var spokenForms = map[string]map[string]string{
	"nl": {
		"bijv.":  "bijvoorbeeld",
		"d.w.z.": "dat wil zeggen",
		"m.b.t.": "met betrekking tot",
		"o.a.":   "onder andere",
		"i.p.v.": "in plaats van",
		"t.o.v.": "ten opzichte van",
		"incl.":  "inclusief",
		"excl.":  "exclusief",
		"enz.":   "enzovoort",
		"ca.":    "circa",
		"nr.":    "nummer",
		"%":      "procent",
	},
	"en": {
		"e.g.": "for example",
		"i.e.": "that is",
		"etc.": "et cetera",
		"Mr.":  "Mister",
		"Mrs.": "Misses",
		"Dr.":  "Doctor",
		"vs.":  "versus",
		"%":    "percent",
	},
}

// Normalizer rewrites script text into a form a speech engine reads aloud
// naturally. It is safe for concurrent use.
type Normalizer struct {
	url       *regexp.Regexp
	email     *regexp.Regexp
	direction *regexp.Regexp
	markdown  *regexp.Regexp
	dash      *regexp.Regexp
	space     *regexp.Regexp
	written   *regexp.Regexp
	spoken    map[string]string
	symbols   *strings.Replacer
}

// NewNormalizer returns a normalizer for language, a tag such as "nl-NL".
// Languages without a table of spoken forms only get the generic cleanup.
func NewNormalizer(language string) *Normalizer {
	primary, _, _ := strings.Cut(strings.ToLower(language), "-")
	spoken := spokenForms[primary]

	return &Normalizer{
		url:       regexp.MustCompile(urlPattern),
		email:     regexp.MustCompile(emailPattern),
		direction: regexp.MustCompile(directionPattern),
		markdown:  regexp.MustCompile(markdownPattern),
		dash:      regexp.MustCompile(dashPattern),
		space:     regexp.MustCompile(whitespace),
		written:   writtenFormPattern(spoken),
		spoken:    spoken,
		symbols: strings.NewReplacer(
			"…", "...",
			"“", `"`, "”", `"`, "‘", "'", "’", "'",
		),
	}
}

// writtenFormPattern matches any key of spoken that starts a word, or that
// directly follows a number in the case of symbols. Longer forms win.
func writtenFormPattern(spoken map[string]string) *regexp.Regexp {
	if len(spoken) == 0 {
		return nil
	}

	forms := slices.Collect(maps.Keys(spoken))
	slices.SortFunc(forms, func(a, b string) int {
		return len(b) - len(a)
	})

	quoted := make([]string, len(forms))
	for i, form := range forms {
		quoted[i] = regexp.QuoteMeta(form)
	}

	return regexp.MustCompile(`(^|[\s(\d])(` + strings.Join(quoted, "|") + `)`)
}

// expand replaces written forms by their spoken equivalents.
func (n *Normalizer) expand(text string) string {
	if n.written == nil {
		return text
	}

	return n.written.ReplaceAllStringFunc(text, func(match string) string {
		groups := n.written.FindStringSubmatch(match)
		lead := groups[1]

		if lead != "" && unicode.IsDigit(rune(lead[0])) {
			lead += " "
		}

		return lead + n.spoken[groups[2]]
	})
}

// Normalize removes stage directions and markup, spells out abbreviations and
// tidies punctuation. URLs and e-mail addresses pass through untouched.
func (n *Normalizer) Normalize(script string) string {
	if strings.TrimSpace(script) == "" {
		return ""
	}

	text, kept := n.protect(script)

	text = n.direction.ReplaceAllString(text, " ")
	text = n.markdown.ReplaceAllString(text, "")
	text = n.expand(text)
	text = n.dash.ReplaceAllString(text, ", ")
	text = n.symbols.Replace(text)
	text = collapsePunctuation(text)
	text = strings.TrimSpace(n.space.ReplaceAllString(text, " "))

	for placeholder, original := range kept {
		text = strings.ReplaceAll(text, placeholder, original)
	}

	return terminate(text)
}

// protect swaps URLs and e-mail addresses for placeholders the other steps leave alone.
func (n *Normalizer) protect(text string) (string, map[string]string) {
	kept := make(map[string]string)

	for _, pattern := range []*regexp.Regexp{n.url, n.email} {
		text = pattern.ReplaceAllStringFunc(text, func(match string) string {
			placeholder := fmt.Sprintf(placeholderFmt, len(kept))
			kept[placeholder] = match

			return placeholder
		})
	}

	return text, kept
}

// collapsePunctuation keeps the first of a run of identical punctuation marks,
// except for the periods of an ellipsis.
func collapsePunctuation(text string) string {
	var (
		b    strings.Builder
		last rune
	)

	for _, r := range text {
		if r == last && unicode.IsPunct(r) && r != '.' {
			continue
		}

		b.WriteRune(r)

		last = r
	}

	return b.String()
}

// terminate makes sure the text ends like a sentence so the engine lowers its pitch.
func terminate(text string) string {
	if text == "" {
		return ""
	}

	lastRune, _ := utf8.DecodeLastRuneInString(text)

	switch lastRune {
	case '.', '!', '?':
		return text
	case ',', ';', ':':
		return text[:len(text)-1] + "."
	default:
		return text + "."
	}
}
