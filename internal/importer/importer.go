// Package importer drives a single import pass: archive entries in,
// GraphQL mutations out, one entry at a time.
package importer

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mrlokans/omnivore-import/internal/archive"
	"github.com/mrlokans/omnivore-import/internal/locate"
	"github.com/mrlokans/omnivore-import/internal/omnivore"
)

// Status tracks an entry through the import state machine.
type Status string

const (
	StatusPending        Status = "pending"
	StatusArticleCreated Status = "article_created"
	StatusHighlightsDone Status = "highlights_done"
	StatusFailed         Status = "failed"
)

// API is the slice of the Omnivore client the driver needs.
type API interface {
	SavePage(ctx context.Context, input omnivore.SavePageInput) (string, error)
	SaveURL(ctx context.Context, input omnivore.SaveURLInput) (string, error)
	UpdatePage(ctx context.Context, pageID string, meta omnivore.PageMetadata) error
	ArchivePage(ctx context.Context, pageID string) error
	SetReadingProgress(ctx context.Context, pageID string, percent int) error
	CreateHighlight(ctx context.Context, pageID string, h omnivore.HighlightInput) (string, error)
	CreateNote(ctx context.Context, pageID, note string) (string, error)
	SetHighlightLabels(ctx context.Context, highlightID string, labels []string) error
}

// Source yields archive entries in traversal order. *archive.Scanner
// satisfies it; tests substitute their own.
type Source interface {
	Next() bool
	Entry() archive.Entry
	Stats() archive.Stats
}

// EntryResult is the outcome of importing one archive entry.
type EntryResult struct {
	Title             string
	URL               string
	RemoteID          string
	Status            Status
	HighlightsCreated int
	HighlightsFailed  int
	Err               error
}

// Summary aggregates a whole import pass for the final report.
type Summary struct {
	Succeeded         int
	Failed            int
	Skipped           int
	HighlightsCreated int
	HighlightsFailed  int
}

// Importer sequences archive entries into API calls. Entries are
// processed strictly one at a time: an article is created and all of
// its highlights attempted before the next entry starts.
type Importer struct {
	api     API
	Out     io.Writer
	ErrOut  io.Writer
	Verbose bool

	// Results collects per-entry outcomes in processing order, for
	// callers that want more than the summary (e.g. post-import verify).
	Results []EntryResult
}

// New creates an importer writing progress to stdout/stderr.
func New(api API) *Importer {
	return &Importer{
		api:    api,
		Out:    os.Stdout,
		ErrOut: os.Stderr,
	}
}

// Run imports every entry the source yields and returns the summary.
// Individual entry and highlight failures are reported and counted but
// never abort the pass.
func (imp *Importer) Run(ctx context.Context, src Source) (Summary, error) {
	var sum Summary

	for src.Next() {
		entry := src.Entry()
		fmt.Fprintf(imp.Out, "\nImporting: %s\n", entry.Article.Title)

		res := imp.importEntry(ctx, entry)
		imp.Results = append(imp.Results, res)
		sum.HighlightsCreated += res.HighlightsCreated
		sum.HighlightsFailed += res.HighlightsFailed

		switch res.Status {
		case StatusHighlightsDone:
			sum.Succeeded++
			fmt.Fprintf(imp.Out, "Imported with ID: %s (%d highlights)\n", res.RemoteID, res.HighlightsCreated)
		case StatusFailed:
			sum.Failed++
			fmt.Fprintf(imp.ErrOut, "Failed to import %q (%s): %v\n", res.Title, res.URL, res.Err)
		}

		if err := ctx.Err(); err != nil {
			return sum, err
		}
	}

	stats := src.Stats()
	sum.Skipped = stats.EntriesSkipped + stats.FilesSkipped

	return sum, nil
}

// importEntry walks one entry through the state machine. The article
// must be created and its remote id obtained before any highlight call;
// a creation failure short-circuits with zero highlight mutations.
func (imp *Importer) importEntry(ctx context.Context, entry archive.Entry) EntryResult {
	res := EntryResult{
		Title:  entry.Article.Title,
		URL:    entry.Article.URL,
		Status: StatusPending,
	}

	remoteID, err := imp.createArticle(ctx, entry)
	if err != nil {
		res.Status = StatusFailed
		res.Err = err
		return res
	}
	res.RemoteID = remoteID
	res.Status = StatusArticleCreated

	imp.applyMetadata(ctx, remoteID, entry.Article)

	if entry.ArticleNote != "" {
		if _, err := imp.api.CreateNote(ctx, remoteID, entry.ArticleNote); err != nil {
			imp.warnf(entry, "article note not saved: %v", err)
		}
	}

	imp.addHighlights(ctx, &res, entry)

	res.Status = StatusHighlightsDone
	return res
}

func (imp *Importer) createArticle(ctx context.Context, entry archive.Entry) (string, error) {
	if entry.Content != "" {
		return imp.api.SavePage(ctx, omnivore.SavePageInput{
			URL:     entry.Article.URL,
			Title:   entry.Article.Title,
			Content: entry.Content,
			Labels:  entry.Article.Labels,
		})
	}
	return imp.api.SaveURL(ctx, omnivore.SaveURLInput{
		URL:    entry.Article.URL,
		Labels: entry.Article.Labels,
	})
}

// applyMetadata pushes the optional article metadata. Failures here are
// logged and do not fail the entry: the article itself already exists.
func (imp *Importer) applyMetadata(ctx context.Context, remoteID string, article archive.Article) {
	meta := omnivore.PageMetadata{
		Title:        article.Title,
		Description:  article.Description,
		Byline:       article.Author,
		SavedAt:      article.SavedAt,
		PublishedAt:  article.PublishedAt,
		PreviewImage: article.Thumbnail,
	}
	if err := imp.api.UpdatePage(ctx, remoteID, meta); err != nil {
		imp.warnfArticle(article, "metadata not applied: %v", err)
	}

	if article.State == archive.StateArchived {
		if err := imp.api.ArchivePage(ctx, remoteID); err != nil {
			imp.warnfArticle(article, "archived state not applied: %v", err)
		}
	}

	if article.ReadingProgress > 0 {
		if err := imp.api.SetReadingProgress(ctx, remoteID, article.ReadingProgress); err != nil {
			imp.warnfArticle(article, "reading progress not applied: %v", err)
		}
	}
}

// addHighlights submits the entry's highlights in file order. A failed
// highlight is counted and logged; it never reverts the entry.
func (imp *Importer) addHighlights(ctx context.Context, res *EntryResult, entry archive.Entry) {
	var doc *locate.Document
	if entry.Content != "" && len(entry.Highlights) > 0 {
		d, err := locate.NewDocument(entry.Content)
		if err != nil {
			imp.warnf(entry, "quote location disabled: %v", err)
		} else {
			doc = d
		}
	}

	for _, h := range entry.Highlights {
		input := omnivore.HighlightInput{
			Quote:      h.Quote,
			Annotation: h.Note,
		}
		if doc != nil {
			if pos, ok := doc.Find(h.Quote); ok {
				input.Prefix = pos.Prefix
				input.Suffix = pos.Suffix
				input.PositionPercent = pos.Percent
				input.HasPosition = true
			}
		}

		highlightID, err := imp.api.CreateHighlight(ctx, res.RemoteID, input)
		if err != nil {
			res.HighlightsFailed++
			imp.warnf(entry, "highlight not saved (%s): %v", truncate(h.Quote, 50), err)
			continue
		}
		res.HighlightsCreated++
		if imp.Verbose {
			fmt.Fprintf(imp.Out, "  highlight saved: %s\n", truncate(h.Quote, 50))
		}

		if len(h.Labels) > 0 {
			if err := imp.api.SetHighlightLabels(ctx, highlightID, h.Labels); err != nil {
				imp.warnf(entry, "highlight labels not applied: %v", err)
			}
		}
	}
}

func (imp *Importer) warnf(entry archive.Entry, format string, args ...any) {
	imp.warnfArticle(entry.Article, format, args...)
}

func (imp *Importer) warnfArticle(article archive.Article, format string, args ...any) {
	fmt.Fprintf(imp.ErrOut, "[%s] %s\n", article.URL, fmt.Sprintf(format, args...))
}

// Report renders the end-of-pass summary the way the command prints it.
func (s Summary) Report() string {
	report := fmt.Sprintf("%d succeeded, %d failed, %d skipped (parse error)", s.Succeeded, s.Failed, s.Skipped)
	if s.HighlightsCreated > 0 || s.HighlightsFailed > 0 {
		report += fmt.Sprintf("; highlights: %d created, %d failed", s.HighlightsCreated, s.HighlightsFailed)
	}
	return report
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
