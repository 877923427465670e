package archive

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// CleanHTML normalizes exported article content before upload:
// the fragment is wrapped in html/body tags, comments are removed,
// and data-* attributes are stripped. The export embeds reader-state
// attributes the destination instance would misinterpret.
func CleanHTML(raw string) (string, error) {
	wrapped := "<html><body>" + raw + "</body></html>"

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(wrapped))
	if err != nil {
		return "", fmt.Errorf("failed to parse content HTML: %w", err)
	}

	for _, root := range doc.Nodes {
		removeComments(root)
	}

	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		for _, n := range s.Nodes {
			kept := n.Attr[:0]
			for _, attr := range n.Attr {
				if !strings.HasPrefix(attr.Key, "data-") {
					kept = append(kept, attr)
				}
			}
			n.Attr = kept
		}
	})

	out, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("failed to render cleaned HTML: %w", err)
	}
	return out, nil
}

func removeComments(n *html.Node) {
	child := n.FirstChild
	for child != nil {
		next := child.NextSibling
		if child.Type == html.CommentNode {
			n.RemoveChild(child)
		} else {
			removeComments(child)
		}
		child = next
	}
}
