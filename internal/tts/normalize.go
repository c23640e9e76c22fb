package tts

import (
	"regexp"
	"strings"
)

var (
	imagePattern      = regexp.MustCompile(`!\[([^\]]*)\]\((?:[^()\n]|\([^()\n]*\))*\)`)
	linkPattern       = regexp.MustCompile(`\[([^\]]*)\]\((?:[^()\n]|\([^()\n]*\))*\)`)
	headingPattern    = regexp.MustCompile(`(?m)^[ \t]*#{1,6}[ \t]*`)
	boldPattern       = regexp.MustCompile(`(\*\*|__)(.+?)(\*\*|__)`)
	italicStarPattern = regexp.MustCompile(`\*([^*\n]+)\*`)
	italicUndPattern  = regexp.MustCompile(`(^|[^\w])_([^_\n]+)_([^\w]|$)`)
	codePattern       = regexp.MustCompile("`+([^`]*)`+")
	newlinePattern    = regexp.MustCompile(`\s*\n+\s*`)
)

// Normalize turns markdown-ish section text into plain text for speech.
// Headings, emphasis markers, link targets and code backticks are removed;
// link and image text is kept; line breaks become single spaces.
func Normalize(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = imagePattern.ReplaceAllString(s, "$1")
	s = linkPattern.ReplaceAllString(s, "$1")
	s = codePattern.ReplaceAllString(s, "$1")
	s = headingPattern.ReplaceAllString(s, "")
	s = boldPattern.ReplaceAllString(s, "$2")
	s = italicStarPattern.ReplaceAllString(s, "$1")
	// Each match consumes the delimiter after the closing underscore, so
	// adjacent spans need another pass.
	for {
		next := italicUndPattern.ReplaceAllString(s, "$1$2$3")
		if next == s {
			break
		}
		s = next
	}
	// Stray markers left by unbalanced emphasis.
	s = strings.NewReplacer("**", "", "__", "").Replace(s)
	s = newlinePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
