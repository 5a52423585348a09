package script

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mrijcreo/scripttts/internal/core"
)

var (
	slideMarker = regexp.MustCompile(`SLIDE \d+ SCRIPT:`)
	fullMarker  = regexp.MustCompile(`VOLLEDIG SCRIPT:`)
)

// ParseScripts splits a model answer laid out as "SLIDE N SCRIPT:" sections
// followed by a "VOLLEDIG SCRIPT:" section. Sections are taken in order of
// appearance. When fewer than expected sections are found the remainder is
// filled with placeholderFmt, which receives the 1-based slide position.
// Without a full-script section the whole answer stands in for it.
func ParseScripts(answer string, expected int, placeholderFmt string) *core.ScriptSet {
	body := answer
	fullScript := strings.TrimSpace(answer)

	full := fullMarker.FindStringIndex(answer)
	if full != nil {
		body = answer[:full[0]]
		fullScript = strings.TrimSpace(answer[full[1]:])
	}

	markers := slideMarker.FindAllStringIndex(body, -1)
	scripts := make([]string, 0, max(expected, len(markers)))

	for i, marker := range markers {
		end := len(body)
		if i+1 < len(markers) {
			end = markers[i+1][0]
		}

		scripts = append(scripts, strings.TrimSpace(body[marker[1]:end]))
	}

	for len(scripts) < expected {
		scripts = append(scripts, fmt.Sprintf(placeholderFmt, len(scripts)+1))
	}

	return &core.ScriptSet{Scripts: scripts, FullScript: fullScript}
}
