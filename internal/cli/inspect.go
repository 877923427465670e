package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/omnivore-import/internal/archive"
)

// InspectCommand parses an extracted archive and reports its contents
// without touching the network.
type InspectCommand struct {
	Folder  string
	Verbose bool
}

func NewInspectCommand() *InspectCommand {
	return &InspectCommand{}
}

func (cmd *InspectCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)

	fs.StringVar(&cmd.Folder, "folder", "", "Path to the folder containing the extracted archive (required)")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "List every article with its highlight count")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s inspect -folder <path> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Parse an extracted Omnivore archive and report what it contains.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Folder == "" {
		return fmt.Errorf("required flag -folder not provided")
	}

	return nil
}

func (cmd *InspectCommand) Run() error {
	sc, err := archive.NewScanner(cmd.Folder)
	if err != nil {
		return err
	}

	articles, withContent, highlights, notes := 0, 0, 0, 0
	for sc.Next() {
		entry := sc.Entry()
		articles++
		if entry.Content != "" {
			withContent++
		}
		highlights += len(entry.Highlights)
		if entry.ArticleNote != "" {
			notes++
		}

		if cmd.Verbose {
			fmt.Printf("%q\n  url: %s\n  highlights: %d\n", entry.Article.Title, entry.Article.URL, len(entry.Highlights))
		}
	}

	stats := sc.Stats()

	fmt.Println("=== Archive Contents ===")
	fmt.Printf("Metadata files: %d parsed, %d skipped\n", stats.FilesParsed, stats.FilesSkipped)
	fmt.Printf("Articles: %d (%d with content, %d skipped)\n", articles, withContent, stats.EntriesSkipped)
	fmt.Printf("Highlights: %d\n", highlights)
	fmt.Printf("Article notes: %d\n", notes)

	return nil
}
