// Package locate finds highlight quotes inside article HTML so that
// highlights can be submitted with surrounding context and a position
// hint. Quotes in the export are markdown; article content is HTML, so
// both sides are reduced to plain text before matching.
package locate

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/yuin/goldmark"
)

const (
	// contextRunes caps the prefix/suffix context sent with a highlight.
	contextRunes = 64

	// matchThreshold is the diffmatchpatch tolerance for fuzzy matches.
	matchThreshold = 0.4
)

// Position describes where a quote sits in the document's visible text.
type Position struct {
	Start   int     // byte offset of the match in the document text
	End     int     // byte offset just past the match
	Prefix  string  // up to contextRunes of text before the match
	Suffix  string  // up to contextRunes of text after the match
	Percent float64 // match position as a percentage of the document, 0-100
}

// Document is the searchable plain-text form of one article's HTML.
type Document struct {
	text string
	dmp  *diffmatchpatch.DiffMatchPatch
}

// NewDocument extracts the visible text of the given HTML. Script and
// style contents are excluded and whitespace is collapsed, mirroring
// how the destination renders text when anchoring highlights.
func NewDocument(htmlContent string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse article HTML: %w", err)
	}
	doc.Find("script, style").Remove()

	dmp := diffmatchpatch.New()
	dmp.MatchThreshold = matchThreshold

	return &Document{
		text: normalizeSpace(doc.Text()),
		dmp:  dmp,
	}, nil
}

// Find locates a markdown quote in the document. The second return
// value is false when no acceptable match exists; the caller submits
// the highlight without position context in that case.
func (d *Document) Find(quoteMarkdown string) (Position, bool) {
	quote := normalizeSpace(markdownText(quoteMarkdown))
	if quote == "" || d.text == "" {
		return Position{}, false
	}

	start := strings.Index(d.text, quote)
	if start < 0 {
		start = d.fuzzyIndex(quote)
	}
	if start < 0 {
		return Position{}, false
	}

	end := start + len(quote)
	if end > len(d.text) {
		end = len(d.text)
	}

	return Position{
		Start:   start,
		End:     end,
		Prefix:  tailRunes(d.text[:start], contextRunes),
		Suffix:  headRunes(d.text[end:], contextRunes),
		Percent: float64(start) / float64(len(d.text)) * 100,
	}, true
}

// fuzzyIndex anchors the match on the leading slice of the quote, since
// diffmatchpatch patterns are limited to its bitap word size (in bytes).
func (d *Document) fuzzyIndex(quote string) int {
	anchor := quote
	if len(anchor) > d.dmp.MatchMaxBits {
		anchor = anchor[:d.dmp.MatchMaxBits]
		for len(anchor) > 0 && !utf8.ValidString(anchor) {
			anchor = anchor[:len(anchor)-1]
		}
	}
	if anchor == "" {
		return -1
	}
	d.dmp.MatchDistance = len(d.text)
	return d.dmp.MatchMain(d.text, anchor, 0)
}

// markdownText renders a markdown quote and strips the resulting tags,
// leaving the text as it would appear in the article body.
func markdownText(md string) string {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return md
	}
	doc, err := goquery.NewDocumentFromReader(&buf)
	if err != nil {
		return md
	}
	return doc.Text()
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func headRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

func tailRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[len(runes)-n:])
}
