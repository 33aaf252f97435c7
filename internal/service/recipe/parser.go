// Package recipe turns a free-text dish request into a generated recipe, the
// ingredients the user is missing and where to buy them.
package recipe

import (
	"regexp"
	"strings"

	"fridgefriend/internal/service/prompt"
)

const instructionsMarker = "## Instructions"

var videoIDPattern = regexp.MustCompile(`^.*(youtu.be/|v/|u/\w/|embed/|watch\?v=|&v=)([^#&?]*).*`)

// ParseIngredients pulls bullet lines out of the part of raw that precedes
// the instructions heading. Output is lower-cased with the first '-' removed.
// Input that does not follow the template yields an empty or partial list.
func ParseIngredients(raw string) []string {
	head := raw
	if idx := strings.Index(raw, instructionsMarker); idx >= 0 {
		head = raw[:idx]
	} else if idx := strings.Index(raw, prompt.InstructionsHeading); idx >= 0 {
		head = raw[:idx]
	}

	out := make([]string, 0)
	for _, line := range strings.Split(head, "\n") {
		if strings.TrimSpace(line) == "" || !strings.Contains(line, "-") {
			continue
		}
		line = strings.Replace(line, "-", "", 1)
		out = append(out, strings.ToLower(strings.TrimSpace(line)))
	}
	return out
}

// ExtractVideoID returns the 11-character YouTube id in url. Strings that
// are not YouTube links come back unchanged.
func ExtractVideoID(url string) string {
	if url == "" {
		return ""
	}
	if !strings.Contains(url, "youtube.com") && !strings.Contains(url, "youtu.be") {
		return url
	}
	m := videoIDPattern.FindStringSubmatch(url)
	if m == nil || len(m[2]) != 11 {
		return ""
	}
	return m[2]
}
