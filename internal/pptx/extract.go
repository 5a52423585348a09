package pptx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
)

// Thresholds of the extraction cascade.
const (
	minContentLength  = 10
	minFallbackLength = 5
	maxDerivedTitle   = 50
	maxTitleLength    = 100
	ellipsis          = "..."
	fallbackTitleFmt  = "Slide %d"
)

var sentenceBoundary = regexp.MustCompile(`[.!?\n\r]`)

// SlideContent is the best-effort text of one slide.
type SlideContent struct {
	SlideNumber int    `json:"slideNumber"`
	Title       string `json:"title"`
	Content     string `json:"content"`
}

// slideText holds every text run of a slide, flat and grouped by paragraph and by shape.
type slideText struct {
	runs       []string
	paragraphs [][]string
	shapes     [][]string
	title      string
	hasTitle   bool
}

// ExtractSlide returns the title and body text of a slide. Slide markup comes in
// many shapes (placeholders, free shapes, tables), so several strategies are
// tried in turn; the result is always usable even when content is empty.
func ExtractSlide(markup []byte, slideNumber int) SlideContent {
	scan := scanSlideText(markup)

	var title, content string

	switch {
	case scan.hasTitle:
		title = scan.title
		content = joinExcept(scan.runs, title)
	case len(scan.runs) > 0:
		title = scan.runs[0]
		content = strings.Join(scan.runs[1:], " ")
	}

	if tooShort(content, minContentLength) {
		if joined := joinGroups(scan.paragraphs); joined != "" {
			content = joined
		}
	}

	if tooShort(content, minContentLength) {
		if joined := joinGroups(scan.shapes); joined != "" {
			content = joined
		}
	}

	if tooShort(content, minFallbackLength) {
		content = strings.Join(scan.runs, " ")
	}

	if title == "" {
		title = deriveTitle(content, slideNumber)
	}

	return SlideContent{
		SlideNumber: slideNumber,
		Title:       truncateRunes(title, maxTitleLength),
		Content:     content,
	}
}

// scanSlideText walks the markup once and collects text runs. Malformed markup
// ends the walk early; whatever was collected so far is kept.
func scanSlideText(markup []byte) slideText {
	var (
		scan         slideText
		text         strings.Builder
		inText       bool
		shapeDepth   int
		shapeIsTitle bool
		paraDepth    int
	)

	decoder := xml.NewDecoder(bytes.NewReader(markup))
	decoder.CharsetReader = charset.NewReaderLabel

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "sp":
				if shapeDepth == 0 {
					scan.shapes = append(scan.shapes, nil)
					shapeIsTitle = false
				}

				shapeDepth++
			case "ph":
				if shapeDepth > 0 && isTitlePlaceholder(t) {
					shapeIsTitle = true
				}
			case "p":
				if paraDepth == 0 {
					scan.paragraphs = append(scan.paragraphs, nil)
				}

				paraDepth++
			case "t":
				inText = true

				text.Reset()
			}

		case xml.CharData:
			if inText {
				text.Write(t)
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "sp":
				if shapeDepth > 0 {
					shapeDepth--
				}
			case "p":
				if paraDepth > 0 {
					paraDepth--
				}
			case "t":
				inText = false

				run := strings.TrimSpace(text.String())
				if run == "" {
					continue
				}

				scan.runs = append(scan.runs, run)

				if paraDepth > 0 {
					last := len(scan.paragraphs) - 1
					scan.paragraphs[last] = append(scan.paragraphs[last], run)
				}

				if shapeDepth > 0 {
					last := len(scan.shapes) - 1
					scan.shapes[last] = append(scan.shapes[last], run)

					if shapeIsTitle && !scan.hasTitle {
						scan.title = run
						scan.hasTitle = true
					}
				}
			}
		}
	}

	return scan
}

func isTitlePlaceholder(element xml.StartElement) bool {
	for _, attr := range element.Attr {
		if attr.Name.Local == "type" && (attr.Value == "title" || attr.Value == "ctrTitle") {
			return true
		}
	}

	return false
}

// joinExcept joins runs with spaces, leaving out every run equal to skip.
func joinExcept(runs []string, skip string) string {
	kept := make([]string, 0, len(runs))

	for _, run := range runs {
		if run != skip {
			kept = append(kept, run)
		}
	}

	return strings.Join(kept, " ")
}

// joinGroups joins the runs of each group with spaces and the non-empty groups with newlines.
func joinGroups(groups [][]string) string {
	lines := make([]string, 0, len(groups))

	for _, group := range groups {
		line := strings.Join(group, " ")
		if line != "" {
			lines = append(lines, line)
		}
	}

	return strings.Join(lines, "\n")
}

func tooShort(content string, minimum int) bool {
	return utf8.RuneCountInString(content) < minimum
}

// deriveTitle builds a title from the first sentence of content.
func deriveTitle(content string, slideNumber int) string {
	fallback := fmt.Sprintf(fallbackTitleFmt, slideNumber)
	if content == "" {
		return fallback
	}

	fragment := sentenceBoundary.Split(content, 2)[0]
	title := strings.TrimSpace(prefixRunes(fragment, maxDerivedTitle))

	if title == "" {
		return fallback
	}

	if utf8.RuneCountInString(title) < utf8.RuneCountInString(content) {
		title += ellipsis
	}

	return title
}

// prefixRunes returns at most the first limit runes of text.
func prefixRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}

	return string(runes[:limit])
}

// truncateRunes cuts text to limit runes and marks the cut with an ellipsis.
func truncateRunes(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}

	return prefixRunes(text, limit) + ellipsis
}
