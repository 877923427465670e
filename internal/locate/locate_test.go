package locate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articleHTML = `<html><body>
<h1>On Software</h1>
<p>There are two hard things in computer science.</p>
<p>Cache invalidation and naming things are the usual suspects,
though off-by-one errors deserve a mention too.</p>
<script>console.log("ignored")</script>
</body></html>`

func TestDocument_FindExact(t *testing.T) {
	doc, err := NewDocument(articleHTML)
	require.NoError(t, err)

	pos, ok := doc.Find("Cache invalidation and naming things")

	require.True(t, ok)
	assert.True(t, strings.HasSuffix(pos.Prefix, "computer science. "))
	assert.True(t, strings.HasPrefix(pos.Suffix, " are the usual"))
	assert.Greater(t, pos.Percent, 0.0)
	assert.Less(t, pos.Percent, 100.0)
}

func TestDocument_FindMarkdownQuote(t *testing.T) {
	doc, err := NewDocument(articleHTML)
	require.NoError(t, err)

	// Markdown emphasis is stripped before matching.
	_, ok := doc.Find("There are *two hard things* in computer science.")

	assert.True(t, ok)
}

func TestDocument_FindFuzzy(t *testing.T) {
	doc, err := NewDocument(articleHTML)
	require.NoError(t, err)

	// One word differs from the article text.
	pos, ok := doc.Find("There are two hard thing in computer")

	require.True(t, ok)
	assert.GreaterOrEqual(t, pos.Start, 0)
}

func TestDocument_FindMiss(t *testing.T) {
	doc, err := NewDocument(articleHTML)
	require.NoError(t, err)

	_, ok := doc.Find("completely unrelated sentence about gardening techniques")

	assert.False(t, ok)
}

func TestDocument_IgnoresScriptText(t *testing.T) {
	doc, err := NewDocument(articleHTML)
	require.NoError(t, err)

	_, ok := doc.Find("console.log")

	assert.False(t, ok)
}

func TestDocument_EmptyQuote(t *testing.T) {
	doc, err := NewDocument(articleHTML)
	require.NoError(t, err)

	_, ok := doc.Find("")

	assert.False(t, ok)
}
