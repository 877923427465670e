package archive

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHighlights_QuotesNotesAndLabels(t *testing.T) {
	content := `This article changed how I think about caching.

> The fastest request is the one you never make.

#performance

That line is worth memorizing.

> Cache invalidation remains one of the
> two hard problems.

> A third quote with no note.`

	set := ParseHighlights(content)

	assert.Equal(t, "This article changed how I think about caching.", set.ArticleNote)
	require.Len(t, set.Highlights, 3)

	first := set.Highlights[0]
	assert.Equal(t, "The fastest request is the one you never make.", first.Quote)
	assert.Equal(t, []string{"performance"}, first.Labels)
	assert.Equal(t, "That line is worth memorizing.", first.Note)

	second := set.Highlights[1]
	assert.Equal(t, "Cache invalidation remains one of the\ntwo hard problems.", second.Quote)
	assert.Empty(t, second.Labels)
	assert.Empty(t, second.Note)

	assert.Equal(t, "A third quote with no note.", set.Highlights[2].Quote)
}

func TestParseHighlights_MultiBlockNotes(t *testing.T) {
	content := `First paragraph of the article note.

Second paragraph of the article note.

> Quoted text.

Note part one.

Note part two.`

	set := ParseHighlights(content)

	assert.Equal(t, "First paragraph of the article note.\n\nSecond paragraph of the article note.", set.ArticleNote)
	require.Len(t, set.Highlights, 1)
	assert.Equal(t, "Note part one.\n\nNote part two.", set.Highlights[0].Note)
}

func TestParseHighlights_LabelBeforeAnyQuoteIgnored(t *testing.T) {
	set := ParseHighlights("#orphan-label\n\n> A quote.")

	require.Len(t, set.Highlights, 1)
	assert.Empty(t, set.Highlights[0].Labels)
}

func TestParseHighlights_Empty(t *testing.T) {
	set := ParseHighlights("")

	assert.Empty(t, set.ArticleNote)
	assert.Empty(t, set.Highlights)
}

func TestParseHighlightsFile_Missing(t *testing.T) {
	set, err := ParseHighlightsFile(filepath.Join(t.TempDir(), "nope.md"))

	require.NoError(t, err)
	assert.Empty(t, set.Highlights)
	assert.Empty(t, set.ArticleNote)
}
