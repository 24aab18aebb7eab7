// Package goquery implements learnsearch.Extractor on top of goquery and the
// golang.org/x/net/html tree it wraps.
package goquery

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sbomma1973/learnsearch"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var _ learnsearch.Extractor = (*Extractor)(nil)

// Extractor pulls the title, visible body text and anchor links out of a
// page.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract parses raw as HTML and returns the page document and its outbound
// links. Relative hrefs are resolved against the origin of pageURL.
func (e *Extractor) Extract(pageURL string, raw []byte) (*learnsearch.Document, []string) {
	doc := &learnsearch.Document{
		URL:   pageURL,
		Title: learnsearch.NoTitle,
		Body:  learnsearch.NoBody,
	}

	root, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return doc, nil
	}

	if title := strings.TrimSpace(root.Find("title").First().Text()); title != "" {
		doc.Title = title
	}
	if body := visibleText(root.Find("body")); body != "" {
		doc.Body = body
	}

	return doc, extractLinks(root, origin(pageURL))
}

// visibleText joins the trimmed, non-empty text nodes under sel with
// newlines. Text inside non-rendered elements is skipped.
func visibleText(sel *goquery.Selection) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
			return
		case html.ElementNode:
			if hidden(n.DataAtom) {
				return
			}
		case html.CommentNode:
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return strings.Join(parts, "\n")
}

func hidden(a atom.Atom) bool {
	switch a {
	case atom.Script, atom.Style, atom.Noscript, atom.Template, atom.Head:
		return true
	}
	return false
}

// extractLinks returns the distinct absolute http(s) urls of every anchor in
// document order. Fragment-only and non-http hrefs are dropped.
func extractLinks(root *goquery.Document, originURL string) []string {
	var links []string
	seen := make(map[string]bool)

	root.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href := strings.TrimSpace(sel.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") || isNonHTTPLink(href) {
			return
		}

		resolved := learnsearch.ResolveAgainstOrigin(originURL, href)
		if resolved == "" {
			return
		}
		u, err := url.Parse(resolved)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return
		}
		if seen[resolved] {
			return
		}
		seen[resolved] = true
		links = append(links, resolved)
	})

	return links
}

// origin returns "scheme://host/" for pageURL, or "" if it has no host.
func origin(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host + "/"
}

// isNonHTTPLink checks if a href is a non-HTTP link that should be skipped.
func isNonHTTPLink(href string) bool {
	href = strings.ToLower(href)
	return strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:")
}
