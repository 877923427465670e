package archive

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
)

// Stats reports what the scanner found while reading archive metadata.
type Stats struct {
	FilesParsed    int // metadata JSON files successfully decoded
	FilesSkipped   int // metadata JSON files that failed to decode
	EntriesSkipped int // article records rejected by validation
}

// Scanner walks an extracted Omnivore archive folder and yields one
// Entry per saved article. Metadata JSON files at the folder root are
// decoded eagerly when the scanner is created; content and highlight
// files are read lazily as Next advances. A scanner is single-use:
// create a new one to walk the archive again.
//
// Usage follows the bufio.Scanner idiom:
//
//	sc, err := archive.NewScanner(folder)
//	for sc.Next() {
//		entry := sc.Entry()
//		...
//	}
type Scanner struct {
	root     string
	articles []Article
	idx      int
	cur      Entry
	stats    Stats
}

// NewScanner creates a scanner over the archive folder. The folder must
// exist and contain the export's metadata JSON files at its root; each
// file holds either a single article object or a list of them. A file
// that fails to decode is skipped and counted, never fatal.
func NewScanner(root string) (*Scanner, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("archive folder not accessible: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("archive path is not a directory: %s", root)
	}

	files, err := filepath.Glob(filepath.Join(root, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list metadata files: %w", err)
	}
	sort.Strings(files)

	s := &Scanner{root: root}

	for _, file := range files {
		records, err := decodeMetadataFile(file)
		if err != nil {
			log.Printf("Skipping metadata file %s: %v", filepath.Base(file), err)
			s.stats.FilesSkipped++
			continue
		}
		s.stats.FilesParsed++

		for _, a := range records {
			if err := validateArticle(a); err != nil {
				log.Printf("Skipping article %q: %v", a.Title, err)
				s.stats.EntriesSkipped++
				continue
			}
			s.articles = append(s.articles, a)
		}
	}

	return s, nil
}

// Next advances to the next archive entry, reading its content and
// highlight files. It returns false when the archive is exhausted.
// An entry whose sibling files cannot be read is skipped and counted,
// and scanning continues with the next one.
func (s *Scanner) Next() bool {
	for s.idx < len(s.articles) {
		article := s.articles[s.idx]
		s.idx++

		entry, err := s.loadEntry(article)
		if err != nil {
			log.Printf("Skipping article %q: %v", article.Title, err)
			s.stats.EntriesSkipped++
			continue
		}

		s.cur = entry
		return true
	}
	return false
}

// Entry returns the entry read by the last successful call to Next.
func (s *Scanner) Entry() Entry {
	return s.cur
}

// Stats returns counters accumulated so far. Final values are available
// once Next has returned false.
func (s *Scanner) Stats() Stats {
	return s.stats
}

func (s *Scanner) loadEntry(article Article) (Entry, error) {
	entry := Entry{Article: article}

	contentPath := filepath.Join(s.root, "content", article.Slug+".html")
	raw, err := os.ReadFile(contentPath)
	switch {
	case err == nil:
		cleaned, cleanErr := CleanHTML(string(raw))
		if cleanErr != nil {
			return Entry{}, cleanErr
		}
		entry.Content = cleaned
	case !os.IsNotExist(err):
		return Entry{}, fmt.Errorf("failed to read content file: %w", err)
	}

	set, err := ParseHighlightsFile(filepath.Join(s.root, "highlights", article.Slug+".md"))
	if err != nil {
		return Entry{}, err
	}
	entry.ArticleNote = set.ArticleNote
	entry.Highlights = set.Highlights

	return entry, nil
}

func decodeMetadataFile(path string) ([]Article, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	// A metadata file holds either a list of articles or a single one.
	var list []Article
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}

	var single Article
	if err := json.Unmarshal(data, &single); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return []Article{single}, nil
}

func validateArticle(a Article) error {
	if a.URL == "" {
		return fmt.Errorf("metadata record has no url")
	}
	if a.Slug == "" {
		return fmt.Errorf("metadata record has no slug")
	}
	return nil
}
