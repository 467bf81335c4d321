package markdown

import (
	"regexp"
	"strings"
)

var (
	boldPattern      = regexp.MustCompile(`\*\*(.+?)\*\*`)
	linkPattern      = regexp.MustCompile(`\[(.+?)\]\((.+?)\)`)
	paragraphPattern = regexp.MustCompile(`\n{2,}`)
)

const lineBreak = "<br>"

// Inline converts bold, links and line breaks without wrapping the result in
// a paragraph. CRLF line endings count as a single line break.
func Inline(text string) string {
	if text == "" {
		return ""
	}
	text = normalizeNewlines(text)
	out := boldPattern.ReplaceAllString(text, "<strong>$1</strong>")
	out = linkPattern.ReplaceAllString(out, `<a href="$2" target="_blank" rel="noopener">$1</a>`)
	return strings.ReplaceAll(out, "\n", lineBreak)
}

// Block splits text into paragraphs on blank lines and wraps each in <p>,
// <h2> or <h3>. Paragraphs are joined with a single newline.
func Block(text string) string {
	if text == "" {
		return ""
	}
	text = normalizeNewlines(text)
	units := paragraphPattern.Split(text, -1)
	out := make([]string, 0, len(units))
	for _, unit := range units {
		unit = strings.TrimSpace(unit)
		switch {
		case unit == "":
			continue
		case strings.HasPrefix(unit, "### "):
			out = append(out, "<h3>"+Inline(unit[len("### "):])+"</h3>")
		case strings.HasPrefix(unit, "## "):
			out = append(out, "<h2>"+Inline(unit[len("## "):])+"</h2>")
		default:
			out = append(out, "<p>"+Inline(unit)+"</p>")
		}
	}
	return strings.Join(out, "\n")
}

func normalizeNewlines(text string) string {
	return strings.ReplaceAll(text, "\r\n", "\n")
}
