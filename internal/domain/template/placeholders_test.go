package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractPlaceholders(t *testing.T) {
	analysis := &Analysis{
		SlideCount: 2,
		Slides: []Slide{
			{Index: 0, Shapes: []Shape{
				{Text: "[A] and [B]"},
				{Cells: []string{"[A]", "no token"}},
			}},
			{Index: 1, Shapes: []Shape{
				{Name: "Group", Shapes: []Shape{{Text: "nested [C]"}}},
				{Text: "[[broken]] [ok]"},
			}},
		},
	}

	assert.Equal(t, []string{"[A]", "[B]", "[C]", "[broken]", "[ok]"}, ExtractPlaceholders(analysis))
}

func TestExtractPlaceholders_Nil(t *testing.T) {
	assert.Empty(t, ExtractPlaceholders(nil))
}

func TestFindTokens_IgnoresMultiLineBrackets(t *testing.T) {
	assert.Empty(t, FindTokens("[open\nclose]"))
	assert.Equal(t, []string{"[Cost/Schedule]"}, FindTokens("Budget: [Cost/Schedule]"))
}

func TestDefaultPlaceholdersIsCopy(t *testing.T) {
	first := DefaultPlaceholders()
	first[0] = "changed"
	assert.Equal(t, "[Opportunity Name]", DefaultPlaceholders()[0])
}
