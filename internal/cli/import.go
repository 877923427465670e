package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/omnivore-import/internal/archive"
	"github.com/mrlokans/omnivore-import/internal/config"
	"github.com/mrlokans/omnivore-import/internal/importer"
	"github.com/mrlokans/omnivore-import/internal/omnivore"
)

// ImportCommand uploads an extracted archive into an Omnivore instance
type ImportCommand struct {
	APIKey             string
	APIURL             string
	Folder             string
	IgnoreInvalidCerts bool
	Verbose            bool
	DryRun             bool
	Verify             bool

	cfg *config.Config
}

func NewImportCommand(cfg *config.Config) *ImportCommand {
	return &ImportCommand{cfg: cfg}
}

func (cmd *ImportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)

	fs.StringVar(&cmd.APIKey, "api-key", cmd.cfg.API.Key, "Omnivore API key for the destination instance, found at /settings/api (required)")
	fs.StringVar(&cmd.APIURL, "api-url", cmd.cfg.API.URL, "Omnivore GraphQL endpoint of the destination instance")
	fs.StringVar(&cmd.Folder, "folder", "", "Path to the folder containing the extracted archive (required)")
	fs.BoolVar(&cmd.IgnoreInvalidCerts, "ignore-invalid-certs", false, "Skip TLS certificate validation (self-hosted instances with self-signed certificates)")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "Parse the archive and show what would be imported without making API calls")
	fs.BoolVar(&cmd.Verify, "verify", false, "After importing, query the destination for articles with highlights")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import -api-key <key> -folder <path> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Import articles and highlights from an extracted Omnivore archive\n")
		fmt.Fprintf(os.Stderr, "into another Omnivore instance.\n\n")
		fmt.Fprintf(os.Stderr, "The archive folder is the unzipped export: metadata JSON files at the\n")
		fmt.Fprintf(os.Stderr, "root, article HTML under content/, highlight markdown under highlights/.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Import into the hosted instance:\n")
		fmt.Fprintf(os.Stderr, "  %s import -api-key <key> -folder ./archive\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  # Import into a self-hosted instance with a self-signed certificate:\n")
		fmt.Fprintf(os.Stderr, "  %s import -api-key <key> -api-url https://omnivore.local/api/graphql -ignore-invalid-certs -folder ./archive\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  # Preview without touching the network:\n")
		fmt.Fprintf(os.Stderr, "  %s import -folder ./archive -dry-run\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Folder == "" {
		return fmt.Errorf("required flag -folder not provided")
	}
	if cmd.APIKey == "" && !cmd.DryRun {
		return fmt.Errorf("required flag -api-key not provided (or set OMNIVORE_API_KEY)")
	}

	return nil
}

func (cmd *ImportCommand) Run() error {
	fmt.Println("Omnivore Archive Import")
	fmt.Println("=======================")

	info, err := os.Stat(cmd.Folder)
	if err != nil {
		return fmt.Errorf("archive folder not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("archive path is not a directory: %s", cmd.Folder)
	}

	fmt.Printf("Folder: %s\n", cmd.Folder)

	sc, err := archive.NewScanner(cmd.Folder)
	if err != nil {
		return err
	}

	if cmd.DryRun {
		return cmd.runDry(sc)
	}

	fmt.Printf("Destination: %s\n", cmd.APIURL)
	if cmd.IgnoreInvalidCerts {
		fmt.Println("WARNING: TLS certificate validation disabled")
	}

	client := omnivore.NewClient(omnivore.ClientOptions{
		APIURL:      cmd.APIURL,
		APIKey:      cmd.APIKey,
		Timeout:     cmd.cfg.API.Timeout,
		InsecureTLS: cmd.IgnoreInvalidCerts,
	})

	imp := importer.New(client)
	imp.Verbose = cmd.Verbose

	ctx := context.Background()
	summary, err := imp.Run(ctx, sc)
	if err != nil {
		return err
	}

	fmt.Println("\n=== Import Summary ===")
	fmt.Println(summary.Report())

	if cmd.Verify {
		if err := cmd.verify(ctx, client, imp.Results); err != nil {
			fmt.Fprintf(os.Stderr, "Verification failed: %v\n", err)
		}
	}

	// Individual entry failures are reported above but do not change
	// the exit code; only configuration problems abort the run.
	return nil
}

func (cmd *ImportCommand) runDry(sc *archive.Scanner) error {
	fmt.Println("\nDRY RUN MODE - no API calls will be made")

	entries, highlights := 0, 0
	for sc.Next() {
		entry := sc.Entry()
		entries++
		highlights += len(entry.Highlights)

		if cmd.Verbose {
			contentState := "url only"
			if entry.Content != "" {
				contentState = "with content"
			}
			fmt.Printf("  -> %q (%s, %d highlights)\n", entry.Article.Title, contentState, len(entry.Highlights))
		}
	}

	stats := sc.Stats()
	fmt.Printf("\nWould import %d articles with %d highlights", entries, highlights)
	if skipped := stats.EntriesSkipped + stats.FilesSkipped; skipped > 0 {
		fmt.Printf(" (%d skipped due to parse errors)", skipped)
	}
	fmt.Println()
	return nil
}

// verify asks the destination which articles carry highlights and
// checks the entries this run created them for.
func (cmd *ImportCommand) verify(ctx context.Context, client *omnivore.Client, results []importer.EntryResult) error {
	remote, err := client.SearchHighlighted(ctx)
	if err != nil {
		return err
	}

	highlighted := make(map[string]int, len(remote))
	for _, article := range remote {
		highlighted[article.ID] = article.Highlights
	}

	expected, confirmed := 0, 0
	for _, res := range results {
		if res.HighlightsCreated == 0 {
			continue
		}
		expected++
		if highlighted[res.RemoteID] > 0 {
			confirmed++
		}
	}

	fmt.Println("\n=== Verification ===")
	fmt.Printf("Destination reports highlights on %d/%d imported articles\n", confirmed, expected)
	return nil
}
