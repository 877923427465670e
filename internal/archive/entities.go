package archive

// Article holds the metadata record the Omnivore export writes for each
// saved page. Timestamps are kept as the RFC3339 strings found in the
// export, since they are passed through to the API verbatim.
type Article struct {
	ID              string   `json:"id"`
	Slug            string   `json:"slug"`
	Title           string   `json:"title"`
	URL             string   `json:"url"`
	Description     string   `json:"description"`
	Author          string   `json:"author"`
	SavedAt         string   `json:"savedAt"`
	PublishedAt     string   `json:"publishedAt"`
	UpdatedAt       string   `json:"updatedAt"`
	Thumbnail       string   `json:"thumbnail"`
	Labels          []string `json:"labels"`
	State           string   `json:"state"`
	ReadingProgress int      `json:"readingProgress"`
}

// StateArchived is the article state the export uses for archived links.
const StateArchived = "Archived"

// Highlight is a single quoted passage from the highlights markdown file,
// with its optional note and labels.
type Highlight struct {
	Quote  string
	Note   string
	Labels []string
}

// HighlightSet is the parsed content of one highlights markdown file:
// an optional article-level note plus the highlights in file order.
type HighlightSet struct {
	ArticleNote string
	Highlights  []Highlight
}

// Entry is one fully assembled archive record: the article metadata,
// its cleaned HTML content (empty when the export has none), and the
// highlights attached to it.
type Entry struct {
	Article     Article
	Content     string
	ArticleNote string
	Highlights  []Highlight
}
