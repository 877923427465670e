package omnivore

import (
	"context"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const shortIDLength = 8

const savePageMutation = `
mutation SavePage($input: SavePageInput!) {
    savePage(input: $input) {
        ... on SaveSuccess {
            url
            clientRequestId
        }
        ... on SaveError {
            errorCodes
        }
    }
}`

const saveURLMutation = `
mutation SaveUrl($input: SaveUrlInput!) {
    saveUrl(input: $input) {
        ... on SaveSuccess {
            url
            clientRequestId
        }
        ... on SaveError {
            errorCodes
        }
    }
}`

const updatePageMutation = `
mutation UpdatePage($input: UpdatePageInput!) {
    updatePage(input: $input) {
        ... on UpdatePageError {
            errorCodes
        }
    }
}`

const archiveMutation = `
mutation SetLinkArchived($input: ArchiveLinkInput!) {
    setLinkArchived(input: $input) {
        ... on ArchiveLinkError {
            errorCodes
        }
    }
}`

const readingProgressMutation = `
mutation SaveArticleReadingProgress($input: SaveArticleReadingProgressInput!) {
    saveArticleReadingProgress(input: $input) {
        ... on SaveArticleReadingProgressError {
            errorCodes
        }
    }
}`

const createHighlightMutation = `
mutation CreateHighlight($input: CreateHighlightInput!) {
    createHighlight(input: $input) {
        ... on CreateHighlightSuccess {
            highlight {
                id
            }
        }
        ... on CreateHighlightError {
            errorCodes
        }
    }
}`

const setHighlightLabelsMutation = `
mutation SetLabelsForHighlight($input: SetLabelsForHighlightInput!) {
    setLabelsForHighlight(input: $input) {
        ... on SetLabelsSuccess {
            labels {
                id
            }
        }
        ... on SetLabelsError {
            errorCodes
        }
    }
}`

const searchHighlightedQuery = `
query Search {
    search(query: "has:highlights") {
        ... on SearchSuccess {
            edges {
                node {
                    id
                    url
                    highlights {
                        id
                        quote
                    }
                }
            }
        }
        ... on SearchError {
            errorCodes
        }
    }
}`

// SavePageInput describes an article created with its full content.
type SavePageInput struct {
	URL     string
	Title   string
	Content string
	Labels  []string
}

// SaveURLInput describes an article created from its URL alone, used
// when the export carries no content file for it.
type SaveURLInput struct {
	URL    string
	Labels []string
}

// PageMetadata carries the optional article metadata applied after
// creation. Empty fields are omitted from the mutation.
type PageMetadata struct {
	Title        string
	Description  string
	Byline       string
	SavedAt      string
	PublishedAt  string
	PreviewImage string
}

// HighlightInput describes one highlight to create on an article.
// Prefix, Suffix and PositionPercent are optional anchoring hints.
type HighlightInput struct {
	Quote           string
	Annotation      string
	Prefix          string
	Suffix          string
	PositionPercent float64
	HasPosition     bool
}

type saveResult struct {
	URL             string   `json:"url"`
	ClientRequestID string   `json:"clientRequestId"`
	ErrorCodes      []string `json:"errorCodes"`
}

type errorCodesResult struct {
	ErrorCodes []string `json:"errorCodes"`
}

type highlightResult struct {
	Highlight struct {
		ID string `json:"id"`
	} `json:"highlight"`
	ErrorCodes []string `json:"errorCodes"`
}

// SavePage creates an article with its content on the destination and
// returns the remote identifier highlights are attached to.
func (c *Client) SavePage(ctx context.Context, input SavePageInput) (string, error) {
	vars := map[string]any{
		"input": map[string]any{
			"url":             input.URL,
			"originalContent": input.Content,
			"title":           input.Title,
			"source":          "api_import",
			"labels":          labelInputs(input.Labels),
			"clientRequestId": uuid.NewString(),
		},
	}

	var out struct {
		SavePage saveResult `json:"savePage"`
	}
	if err := c.do(ctx, "savePage", savePageMutation, vars, &out); err != nil {
		return "", err
	}
	return saveResultID("savePage", out.SavePage)
}

// SaveURL creates an article from its URL alone; the destination
// fetches the content itself.
func (c *Client) SaveURL(ctx context.Context, input SaveURLInput) (string, error) {
	vars := map[string]any{
		"input": map[string]any{
			"url":             input.URL,
			"source":          "api_import",
			"labels":          labelInputs(input.Labels),
			"clientRequestId": uuid.NewString(),
		},
	}

	var out struct {
		SaveURL saveResult `json:"saveUrl"`
	}
	if err := c.do(ctx, "saveUrl", saveURLMutation, vars, &out); err != nil {
		return "", err
	}
	return saveResultID("saveUrl", out.SaveURL)
}

// UpdatePage applies article metadata to an already created page.
func (c *Client) UpdatePage(ctx context.Context, pageID string, meta PageMetadata) error {
	input := map[string]any{"pageId": pageID}
	setIfPresent(input, "title", meta.Title)
	setIfPresent(input, "description", meta.Description)
	setIfPresent(input, "byline", meta.Byline)
	setIfPresent(input, "savedAt", meta.SavedAt)
	setIfPresent(input, "publishedAt", meta.PublishedAt)
	setIfPresent(input, "previewImage", meta.PreviewImage)

	var out struct {
		UpdatePage errorCodesResult `json:"updatePage"`
	}
	if err := c.do(ctx, "updatePage", updatePageMutation, map[string]any{"input": input}, &out); err != nil {
		return err
	}
	return errorCodesErr("updatePage", out.UpdatePage.ErrorCodes)
}

// ArchivePage marks the article as archived on the destination.
func (c *Client) ArchivePage(ctx context.Context, pageID string) error {
	vars := map[string]any{
		"input": map[string]any{
			"linkId":   pageID,
			"archived": true,
		},
	}

	var out struct {
		SetLinkArchived errorCodesResult `json:"setLinkArchived"`
	}
	if err := c.do(ctx, "setLinkArchived", archiveMutation, vars, &out); err != nil {
		return err
	}
	return errorCodesErr("setLinkArchived", out.SetLinkArchived.ErrorCodes)
}

// SetReadingProgress records the reading position as a 0-100 percentage.
func (c *Client) SetReadingProgress(ctx context.Context, pageID string, percent int) error {
	vars := map[string]any{
		"input": map[string]any{
			"id":                     pageID,
			"readingProgressPercent": percent,
		},
	}

	var out struct {
		SaveArticleReadingProgress errorCodesResult `json:"saveArticleReadingProgress"`
	}
	if err := c.do(ctx, "saveArticleReadingProgress", readingProgressMutation, vars, &out); err != nil {
		return err
	}
	return errorCodesErr("saveArticleReadingProgress", out.SaveArticleReadingProgress.ErrorCodes)
}

// CreateHighlight attaches one highlight to the article with the given
// remote id and returns the highlight's remote id.
func (c *Client) CreateHighlight(ctx context.Context, pageID string, h HighlightInput) (string, error) {
	input := map[string]any{
		"id":        uuid.NewString(),
		"articleId": pageID,
		"shortId":   shortID(),
		"quote":     h.Quote,
		"type":      "HIGHLIGHT",
	}
	setIfPresent(input, "annotation", h.Annotation)
	setIfPresent(input, "prefix", h.Prefix)
	setIfPresent(input, "suffix", h.Suffix)
	if h.HasPosition {
		input["highlightPositionPercent"] = h.PositionPercent
	}

	return c.createHighlight(ctx, input)
}

// CreateNote attaches an article-level note, which the API models as a
// highlight of type NOTE with no quote.
func (c *Client) CreateNote(ctx context.Context, pageID, note string) (string, error) {
	input := map[string]any{
		"id":         uuid.NewString(),
		"articleId":  pageID,
		"shortId":    shortID(),
		"annotation": note,
		"type":       "NOTE",
	}

	return c.createHighlight(ctx, input)
}

func (c *Client) createHighlight(ctx context.Context, input map[string]any) (string, error) {
	var out struct {
		CreateHighlight highlightResult `json:"createHighlight"`
	}
	if err := c.do(ctx, "createHighlight", createHighlightMutation, map[string]any{"input": input}, &out); err != nil {
		return "", err
	}
	if err := errorCodesErr("createHighlight", out.CreateHighlight.ErrorCodes); err != nil {
		return "", err
	}
	if out.CreateHighlight.Highlight.ID == "" {
		return "", &APIError{Operation: "createHighlight", Message: "no highlight id returned"}
	}
	return out.CreateHighlight.Highlight.ID, nil
}

// SetHighlightLabels replaces the labels attached to a highlight.
func (c *Client) SetHighlightLabels(ctx context.Context, highlightID string, labels []string) error {
	vars := map[string]any{
		"input": map[string]any{
			"highlightId": highlightID,
			"labels":      labelInputs(labels),
		},
	}

	var out struct {
		SetLabelsForHighlight struct {
			Labels []struct {
				ID string `json:"id"`
			} `json:"labels"`
			ErrorCodes []string `json:"errorCodes"`
		} `json:"setLabelsForHighlight"`
	}
	if err := c.do(ctx, "setLabelsForHighlight", setHighlightLabelsMutation, vars, &out); err != nil {
		return err
	}
	return errorCodesErr("setLabelsForHighlight", out.SetLabelsForHighlight.ErrorCodes)
}

// SearchArticle is one result of SearchHighlighted.
type SearchArticle struct {
	ID         string
	URL        string
	Highlights int
}

// SearchHighlighted lists articles on the destination that carry
// highlights, used to verify an import after the fact.
func (c *Client) SearchHighlighted(ctx context.Context) ([]SearchArticle, error) {
	var out struct {
		Search struct {
			Edges []struct {
				Node struct {
					ID         string `json:"id"`
					URL        string `json:"url"`
					Highlights []struct {
						ID    string `json:"id"`
						Quote string `json:"quote"`
					} `json:"highlights"`
				} `json:"node"`
			} `json:"edges"`
			ErrorCodes []string `json:"errorCodes"`
		} `json:"search"`
	}
	if err := c.do(ctx, "search", searchHighlightedQuery, nil, &out); err != nil {
		return nil, err
	}
	if err := errorCodesErr("search", out.Search.ErrorCodes); err != nil {
		return nil, err
	}

	articles := make([]SearchArticle, 0, len(out.Search.Edges))
	for _, edge := range out.Search.Edges {
		articles = append(articles, SearchArticle{
			ID:         edge.Node.ID,
			URL:        edge.Node.URL,
			Highlights: len(edge.Node.Highlights),
		})
	}
	return articles, nil
}

func labelInputs(labels []string) []map[string]string {
	out := make([]map[string]string, 0, len(labels))
	for _, label := range labels {
		out = append(out, map[string]string{"name": label})
	}
	return out
}

func setIfPresent(input map[string]any, key, value string) {
	if value != "" {
		input[key] = value
	}
}

func saveResultID(operation string, result saveResult) (string, error) {
	if err := errorCodesErr(operation, result.ErrorCodes); err != nil {
		return "", err
	}
	if result.ClientRequestID == "" {
		return "", &APIError{Operation: operation, Message: "no clientRequestId returned"}
	}
	return result.ClientRequestID, nil
}

func errorCodesErr(operation string, codes []string) error {
	if len(codes) == 0 {
		return nil
	}
	return &APIError{Operation: operation, ErrorCodes: codes}
}

func shortID() string {
	id, err := gonanoid.New(shortIDLength)
	if err != nil {
		// crypto/rand failures are not recoverable here; fall back to
		// a UUID fragment so the mutation still carries a short id.
		return uuid.NewString()[:shortIDLength]
	}
	return id
}
