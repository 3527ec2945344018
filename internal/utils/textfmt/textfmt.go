// Package textfmt holds the display formatting rules shared by the placeholder builders.
package textfmt

import (
	"html"
	"strings"
	"time"
	"unicode"

	"github.com/araddon/dateparse"
	"github.com/microcosm-cc/bluemonday"
)

// LongDateLayout renders dates as "March 5, 2025".
const LongDateLayout = "January 2, 2006"

// Bullet is the marker prepended to generated list lines.
const Bullet = "• "

var stripPolicy = bluemonday.StrictPolicy()

// StripHTML removes markup, decodes entities and collapses whitespace runs to one space.
func StripHTML(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	text := html.UnescapeString(stripPolicy.Sanitize(raw))
	return strings.Join(strings.Fields(text), " ")
}

// FormatLongDate parses a loosely formatted date and renders it in LongDateLayout.
// Unparsable or empty input yields "".
func FormatLongDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	t, err := dateparse.ParseIn(raw, time.UTC)
	if err != nil {
		return ""
	}
	return t.Format(LongDateLayout)
}

// HasBullets reports whether any line already starts with a bullet or dash marker.
func HasBullets(text string) bool {
	for _, line := range splitLines(text) {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "•") || strings.HasPrefix(trimmed, "-") {
			return true
		}
	}
	return false
}

// Bulletize prefixes every non-blank line with a bullet unless the text is already bulleted.
// Applying it twice gives the same result as applying it once.
func Bulletize(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	if HasBullets(text) {
		return text
	}
	lines := splitLines(text)
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		out = append(out, Bullet+trimmed)
	}
	return strings.Join(out, "\n")
}

// BulletList renders items as bullet lines, skipping blank entries.
func BulletList(items []string) string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, Bullet+item)
	}
	return strings.Join(out, "\n")
}

// TitleCase turns identifiers such as "fooBar" or "prime_or_sub" into "Foo Bar" / "Prime Or Sub".
func TitleCase(key string) string {
	var words []string
	var current []rune
	flush := func() {
		if len(current) > 0 {
			words = append(words, string(current))
			current = current[:0]
		}
	}

	var prev rune
	for _, r := range key {
		switch {
		case r == '_' || r == '-' || unicode.IsSpace(r):
			flush()
		case unicode.IsUpper(r) && (unicode.IsLower(prev) || unicode.IsDigit(prev)):
			flush()
			current = append(current, r)
		default:
			current = append(current, r)
		}
		prev = r
	}
	flush()

	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// Token wraps a label in placeholder brackets.
func Token(label string) string {
	return "[" + label + "]"
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(text, "\n")
}
