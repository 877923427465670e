package importer

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/omnivore-import/internal/archive"
	"github.com/mrlokans/omnivore-import/internal/omnivore"
)

// mockAPI records every call in order and can be told to fail specific
// operations.
type mockAPI struct {
	calls       []string
	failSave    bool
	failCreate  bool
	failLabels  bool
	nextPageID  int
	highlightID int
}

func (m *mockAPI) record(format string, args ...any) {
	m.calls = append(m.calls, fmt.Sprintf(format, args...))
}

func (m *mockAPI) SavePage(_ context.Context, input omnivore.SavePageInput) (string, error) {
	m.record("savePage %s", input.URL)
	if m.failSave {
		return "", &omnivore.APIError{Operation: "savePage", ErrorCodes: []string{"UNKNOWN"}}
	}
	m.nextPageID++
	return fmt.Sprintf("page-%d", m.nextPageID), nil
}

func (m *mockAPI) SaveURL(_ context.Context, input omnivore.SaveURLInput) (string, error) {
	m.record("saveUrl %s", input.URL)
	if m.failSave {
		return "", &omnivore.APIError{Operation: "saveUrl", ErrorCodes: []string{"UNKNOWN"}}
	}
	m.nextPageID++
	return fmt.Sprintf("page-%d", m.nextPageID), nil
}

func (m *mockAPI) UpdatePage(_ context.Context, pageID string, _ omnivore.PageMetadata) error {
	m.record("updatePage %s", pageID)
	return nil
}

func (m *mockAPI) ArchivePage(_ context.Context, pageID string) error {
	m.record("archivePage %s", pageID)
	return nil
}

func (m *mockAPI) SetReadingProgress(_ context.Context, pageID string, percent int) error {
	m.record("readingProgress %s %d", pageID, percent)
	return nil
}

func (m *mockAPI) CreateHighlight(_ context.Context, pageID string, h omnivore.HighlightInput) (string, error) {
	m.record("createHighlight %s %s", pageID, h.Quote)
	if m.failCreate {
		return "", &omnivore.APIError{Operation: "createHighlight", ErrorCodes: []string{"BAD_DATA"}}
	}
	m.highlightID++
	return fmt.Sprintf("hl-%d", m.highlightID), nil
}

func (m *mockAPI) CreateNote(_ context.Context, pageID, _ string) (string, error) {
	m.record("createNote %s", pageID)
	return "note-1", nil
}

func (m *mockAPI) SetHighlightLabels(_ context.Context, highlightID string, labels []string) error {
	m.record("setLabels %s", highlightID)
	if m.failLabels {
		return &omnivore.APIError{Operation: "setLabelsForHighlight"}
	}
	return nil
}

// sliceSource feeds prepared entries to the driver.
type sliceSource struct {
	entries []archive.Entry
	idx     int
	stats   archive.Stats
}

func (s *sliceSource) Next() bool {
	if s.idx >= len(s.entries) {
		return false
	}
	s.idx++
	return true
}

func (s *sliceSource) Entry() archive.Entry { return s.entries[s.idx-1] }
func (s *sliceSource) Stats() archive.Stats { return s.stats }

func newTestImporter(api API) *Importer {
	imp := New(api)
	imp.Out = &bytes.Buffer{}
	imp.ErrOut = &bytes.Buffer{}
	return imp
}

func entryWithHighlights(url string, quotes ...string) archive.Entry {
	entry := archive.Entry{
		Article: archive.Article{
			Slug:  "slug",
			Title: "Title",
			URL:   url,
		},
	}
	for _, q := range quotes {
		entry.Highlights = append(entry.Highlights, archive.Highlight{Quote: q})
	}
	return entry
}

func TestImporter_ArticleThenHighlightsOrder(t *testing.T) {
	api := &mockAPI{}
	imp := newTestImporter(api)

	src := &sliceSource{entries: []archive.Entry{
		entryWithHighlights("https://example.com/a", "q1", "q2", "q3"),
	}}

	sum, err := imp.Run(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Succeeded)
	assert.Equal(t, 3, sum.HighlightsCreated)

	require.Len(t, api.calls, 5)
	assert.Equal(t, "saveUrl https://example.com/a", api.calls[0])
	assert.Equal(t, "updatePage page-1", api.calls[1])
	assert.Equal(t, "createHighlight page-1 q1", api.calls[2])
	assert.Equal(t, "createHighlight page-1 q2", api.calls[3])
	assert.Equal(t, "createHighlight page-1 q3", api.calls[4])
}

func TestImporter_ContentUsesSavePage(t *testing.T) {
	api := &mockAPI{}
	imp := newTestImporter(api)

	entry := entryWithHighlights("https://example.com/a")
	entry.Content = "<html><body><p>text</p></body></html>"

	_, err := imp.Run(context.Background(), &sliceSource{entries: []archive.Entry{entry}})
	require.NoError(t, err)

	assert.Equal(t, "savePage https://example.com/a", api.calls[0])
}

func TestImporter_CreateFailureSkipsHighlights(t *testing.T) {
	api := &mockAPI{failSave: true}
	imp := newTestImporter(api)

	src := &sliceSource{entries: []archive.Entry{
		entryWithHighlights("https://example.com/a", "q1", "q2"),
		entryWithHighlights("https://example.com/b", "q3"),
	}}

	sum, err := imp.Run(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, 2, sum.Failed)
	assert.Zero(t, sum.Succeeded)
	assert.Zero(t, sum.HighlightsCreated)

	// Only the two creation attempts, no highlight calls for either entry.
	assert.Equal(t, []string{
		"saveUrl https://example.com/a",
		"saveUrl https://example.com/b",
	}, api.calls)
}

func TestImporter_HighlightFailureDoesNotRevertEntry(t *testing.T) {
	api := &mockAPI{failCreate: true}
	imp := newTestImporter(api)

	src := &sliceSource{entries: []archive.Entry{
		entryWithHighlights("https://example.com/a", "q1", "q2"),
	}}

	sum, err := imp.Run(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Succeeded)
	assert.Zero(t, sum.Failed)
	assert.Equal(t, 2, sum.HighlightsFailed)
}

func TestImporter_SkippedEntriesCounted(t *testing.T) {
	api := &mockAPI{}
	imp := newTestImporter(api)

	src := &sliceSource{
		entries: []archive.Entry{entryWithHighlights("https://example.com/a", "q1", "q2", "q3")},
		stats:   archive.Stats{EntriesSkipped: 1},
	}

	sum, err := imp.Run(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Succeeded)
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, "1 succeeded, 0 failed, 1 skipped (parse error); highlights: 3 created, 0 failed", sum.Report())

	// Exactly one article creation and three highlight calls.
	creates, highlights := 0, 0
	for _, call := range api.calls {
		switch {
		case call == "saveUrl https://example.com/a":
			creates++
		case strings.HasPrefix(call, "createHighlight"):
			highlights++
		}
	}
	assert.Equal(t, 1, creates)
	assert.Equal(t, 3, highlights)
}

func TestImporter_ArticleNoteAndLabels(t *testing.T) {
	api := &mockAPI{}
	imp := newTestImporter(api)

	entry := entryWithHighlights("https://example.com/a", "q1")
	entry.ArticleNote = "overall thoughts"
	entry.Highlights[0].Labels = []string{"go"}

	_, err := imp.Run(context.Background(), &sliceSource{entries: []archive.Entry{entry}})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"saveUrl https://example.com/a",
		"updatePage page-1",
		"createNote page-1",
		"createHighlight page-1 q1",
		"setLabels hl-1",
	}, api.calls)
}

func TestImporter_ArchivedStateAndProgress(t *testing.T) {
	api := &mockAPI{}
	imp := newTestImporter(api)

	entry := entryWithHighlights("https://example.com/a")
	entry.Article.State = archive.StateArchived
	entry.Article.ReadingProgress = 80

	_, err := imp.Run(context.Background(), &sliceSource{entries: []archive.Entry{entry}})
	require.NoError(t, err)

	assert.Contains(t, api.calls, "archivePage page-1")
	assert.Contains(t, api.calls, "readingProgress page-1 80")
}

func TestImporter_LabelFailureLoggedNotFatal(t *testing.T) {
	api := &mockAPI{failLabels: true}
	imp := newTestImporter(api)

	entry := entryWithHighlights("https://example.com/a", "q1")
	entry.Highlights[0].Labels = []string{"go"}

	sum, err := imp.Run(context.Background(), &sliceSource{entries: []archive.Entry{entry}})
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Succeeded)
	assert.Equal(t, 1, sum.HighlightsCreated)
}

func TestTruncate_RuneBoundary(t *testing.T) {
	quote := strings.Repeat("ф", 60)

	out := truncate(quote, 50)

	assert.Equal(t, strings.Repeat("ф", 50)+"...", out)
	assert.True(t, utf8.ValidString(out))
	assert.Equal(t, "short", truncate("short", 50))
}

func TestImporter_WarnLogKeepsNonASCIIQuoteIntact(t *testing.T) {
	api := &mockAPI{failCreate: true}
	imp := newTestImporter(api)

	quote := strings.Repeat("日本語の引用", 12)
	src := &sliceSource{entries: []archive.Entry{
		entryWithHighlights("https://example.com/a", quote),
	}}

	_, err := imp.Run(context.Background(), src)
	require.NoError(t, err)

	logged := imp.ErrOut.(*bytes.Buffer).String()
	assert.True(t, utf8.ValidString(logged))
	assert.NotContains(t, logged, string(utf8.RuneError))
}

func TestImporter_ResultsInOrder(t *testing.T) {
	api := &mockAPI{}
	imp := newTestImporter(api)

	src := &sliceSource{entries: []archive.Entry{
		entryWithHighlights("https://example.com/a", "q1"),
		entryWithHighlights("https://example.com/b"),
	}}

	_, err := imp.Run(context.Background(), src)
	require.NoError(t, err)

	require.Len(t, imp.Results, 2)
	assert.Equal(t, "https://example.com/a", imp.Results[0].URL)
	assert.Equal(t, StatusHighlightsDone, imp.Results[0].Status)
	assert.Equal(t, "page-1", imp.Results[0].RemoteID)
	assert.Equal(t, "page-2", imp.Results[1].RemoteID)
}
