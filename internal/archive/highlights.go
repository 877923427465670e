package archive

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var blockSeparator = regexp.MustCompile(`\n\n+`)

// ParseHighlightsFile reads and parses the highlights markdown file for
// one article. A missing file is not an error: articles without
// highlights simply have no file in the export.
func ParseHighlightsFile(path string) (HighlightSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return HighlightSet{}, nil
		}
		return HighlightSet{}, fmt.Errorf("failed to read highlights file %s: %w", path, err)
	}
	return ParseHighlights(string(data)), nil
}

// ParseHighlights parses the markdown highlight format the export uses.
// Blocks are separated by blank lines:
//   - lines starting with ">" form a quoted highlight
//   - lines starting with "#" attach labels to the preceding highlight
//   - plain blocks before the first highlight form the article-level note
//   - plain blocks after a highlight become that highlight's note
func ParseHighlights(content string) HighlightSet {
	var set HighlightSet

	content = strings.TrimSpace(content)
	if content == "" {
		return set
	}

	var current *Highlight

	for _, block := range blockSeparator.Split(content, -1) {
		lines := strings.Split(strings.TrimSpace(block), "\n")

		switch {
		case strings.HasPrefix(lines[0], ">"):
			if current != nil {
				set.Highlights = append(set.Highlights, *current)
			}
			quoted := make([]string, 0, len(lines))
			for _, line := range lines {
				quoted = append(quoted, strings.TrimSpace(strings.TrimLeft(line, "> ")))
			}
			current = &Highlight{Quote: strings.Join(quoted, "\n")}

		case strings.HasPrefix(lines[0], "#"):
			if current == nil {
				continue
			}
			for _, line := range lines {
				label := strings.TrimSpace(strings.TrimLeft(line, "#"))
				if label != "" {
					current.Labels = append(current.Labels, label)
				}
			}

		default:
			text := strings.TrimSpace(block)
			if current == nil {
				set.ArticleNote = appendBlock(set.ArticleNote, text)
			} else {
				current.Note = appendBlock(current.Note, text)
			}
		}
	}

	if current != nil {
		set.Highlights = append(set.Highlights, *current)
	}

	return set
}

func appendBlock(existing, block string) string {
	if existing == "" {
		return block
	}
	return existing + "\n\n" + block
}
