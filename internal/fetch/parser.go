package fetch

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// ParseResult contains the content extracted from an HTML page.
//
// Design decision: We return a result struct from a single parsing pass
// rather than separate extraction methods because the screener and the
// report both want several fields from the same document.
type ParseResult struct {
	// Title is the page title from the <title> tag.
	Title string

	// Text is the visible text content, whitespace-collapsed.
	// Script and style bodies are excluded since they are not visible.
	Text string

	// MetaTags maps meta tag names (or OpenGraph properties) to their
	// content values.
	MetaTags map[string]string

	// Comments contains raw HTML comment bodies in document order.
	// Useful for screening diagnostics: injection payloads often hide
	// in comments.
	Comments []string
}

// Parser extracts content from HTML documents.
// It uses golang.org/x/net/html, which handles the malformed markup
// common on real pages.
type Parser struct{}

// NewParser creates a new HTML content parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse parses HTML content and extracts title, text, meta tags, and
// comments in a single pass.
func (p *Parser) Parse(content io.Reader) (*ParseResult, error) {
	doc, err := html.Parse(content)
	if err != nil {
		return nil, err
	}

	result := &ParseResult{
		MetaTags: make(map[string]string),
		Comments: make([]string, 0),
	}

	var textParts []string
	var walk func(n *html.Node, skipText bool)
	walk = func(n *html.Node, skipText bool) {
		switch n.Type {
		case html.ElementNode:
			switch n.Data {
			case "title":
				if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					result.Title = strings.TrimSpace(n.FirstChild.Data)
				}
				skipText = true
			case "script", "style", "noscript":
				skipText = true
			case "meta":
				name := getAttr(n, "name")
				if name == "" {
					name = getAttr(n, "property") // OpenGraph uses property
				}
				if content := getAttr(n, "content"); name != "" && content != "" {
					result.MetaTags[name] = content
				}
			}
		case html.TextNode:
			if !skipText {
				if trimmed := strings.TrimSpace(n.Data); trimmed != "" {
					textParts = append(textParts, trimmed)
				}
			}
		case html.CommentNode:
			result.Comments = append(result.Comments, n.Data)
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, skipText)
		}
	}

	walk(doc, false)
	result.Text = strings.Join(textParts, " ")

	return result, nil
}

// getAttr returns the value of the named attribute, or empty string.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
