package template

import "regexp"

// placeholderPattern matches "[Label]" tokens. Nested or unbalanced brackets never match.
var placeholderPattern = regexp.MustCompile(`\[[^\[\]\r\n]+\]`)

// DegradedSlideCount is recorded when the analyzer could not inspect a template.
const DegradedSlideCount = 2

var defaultPlaceholders = []string{
	"[Opportunity Name]",
	"[Company Name]",
	"[Date]",
	"[Technical Approach]",
	"[Management Approach]",
	"[Past Performance]",
	"[Cost/Schedule]",
	"[Technical POC]",
	"[Contract Value]",
	"[RFP Date]",
	"[Award Date]",
}

// DefaultPlaceholders returns the generic quad chart token set used for degraded records.
func DefaultPlaceholders() []string {
	return append([]string(nil), defaultPlaceholders...)
}

// FindTokens returns the placeholder tokens in text in order of appearance.
func FindTokens(text string) []string {
	return placeholderPattern.FindAllString(text, -1)
}

// ExtractPlaceholders walks every shape and table cell of every slide and collects
// distinct tokens in first-seen order.
func ExtractPlaceholders(analysis *Analysis) []string {
	if analysis == nil {
		return []string{}
	}

	seen := make(map[string]struct{})
	out := make([]string, 0)
	collect := func(text string) {
		for _, token := range FindTokens(text) {
			if _, ok := seen[token]; ok {
				continue
			}
			seen[token] = struct{}{}
			out = append(out, token)
		}
	}

	var walk func(shapes []Shape)
	walk = func(shapes []Shape) {
		for _, shape := range shapes {
			collect(shape.Text)
			for _, cell := range shape.Cells {
				collect(cell)
			}
			walk(shape.Shapes)
		}
	}

	for _, slide := range analysis.Slides {
		walk(slide.Shapes)
	}
	return out
}
