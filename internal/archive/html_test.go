package archive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanHTML_WrapsFragment(t *testing.T) {
	out, err := CleanHTML("<p>Hello</p>")

	require.NoError(t, err)
	assert.Contains(t, out, "<body>")
	assert.Contains(t, out, "<p>Hello</p>")
}

func TestCleanHTML_RemovesComments(t *testing.T) {
	out, err := CleanHTML("<p>Before</p><!-- reader state --><p>After</p>")

	require.NoError(t, err)
	assert.NotContains(t, out, "reader state")
	assert.Contains(t, out, "<p>Before</p>")
	assert.Contains(t, out, "<p>After</p>")
}

func TestCleanHTML_StripsDataAttributes(t *testing.T) {
	out, err := CleanHTML(`<p data-omnivore-anchor-idx="12" class="lead" data-progress="0.4">Text</p>`)

	require.NoError(t, err)
	assert.NotContains(t, out, "data-omnivore-anchor-idx")
	assert.NotContains(t, out, "data-progress")
	assert.Contains(t, out, `class="lead"`)
	assert.Contains(t, out, "Text")
}
