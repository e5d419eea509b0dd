package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// MaxHTMLSize is the maximum size of raw HTML to retain per page.
// Larger documents are truncated before screening to bound memory use
// and regex scan time.
const MaxHTMLSize = 5 * 1024 * 1024 // 5 MB

// MaxTextSize is the maximum size of the extracted text snapshot.
const MaxTextSize = 512 * 1024 // 512 KB

// PageContent represents a captured web page handed to the screener.
// It is produced by the browser session (headless Chrome) or the plain
// HTTP fetcher and is treated as immutable once captured.
//
// Design decision: We keep both the raw HTML and the extracted text
// because the screener matches patterns against raw markup while
// downstream agents typically consume the text snapshot.
type PageContent struct {
	// URL is the final URL of the page after redirects.
	// May be empty when screening local files or raw HTML strings.
	URL string `json:"url"`

	// Title is the page title from the <title> tag or the document title
	// reported by the browser. Empty for non-HTML content.
	Title string `json:"title,omitempty"`

	// HTML is the raw page markup. This is the input to the rule engine
	// and the sanitizer.
	HTML string `json:"html"`

	// Text is the visible text extracted from the page.
	Text string `json:"text,omitempty"`

	// StatusCode is the HTTP response status code.
	// Zero when the page did not come from an HTTP response.
	StatusCode int `json:"status_code,omitempty"`

	// ContentType is the MIME type from the Content-Type header.
	ContentType string `json:"content_type,omitempty"`

	// Headers contains the HTTP response headers, canonicalized.
	Headers map[string][]string `json:"-"` // Excluded from JSON to reduce report size

	// Hash is the SHA-256 hash of the raw HTML.
	// Used for deduplication and change detection between screenings.
	Hash string `json:"hash,omitempty"`
}

// ComputeHash calculates and sets the SHA-256 hash of the page HTML.
// Call this after setting the HTML field.
func (p *PageContent) ComputeHash() {
	if p.HTML == "" {
		p.Hash = ""
		return
	}

	sum := sha256.Sum256([]byte(p.HTML))
	p.Hash = hex.EncodeToString(sum[:])
}

// GetHeader returns the first value of the specified header.
// Returns empty string if the header is not present.
func (p *PageContent) GetHeader(name string) string {
	if values, ok := p.Headers[name]; ok && len(values) > 0 {
		return values[0]
	}
	return ""
}

// IsHTML returns true if the content type indicates an HTML document.
// Pages without a content type (local files, raw strings) are assumed
// to be HTML since that is the only input WebSentry screens.
func (p *PageContent) IsHTML() bool {
	if p.ContentType == "" {
		return true
	}
	return strings.HasPrefix(p.ContentType, "text/html") ||
		strings.HasPrefix(p.ContentType, "application/xhtml+xml")
}

// TruncateHTML ensures the raw HTML doesn't exceed MaxHTMLSize.
// Call this after setting HTML to enforce the size limit.
func (p *PageContent) TruncateHTML() {
	if len(p.HTML) > MaxHTMLSize {
		p.HTML = p.HTML[:MaxHTMLSize]
	}
}

// TruncateText ensures the text snapshot doesn't exceed MaxTextSize.
func (p *PageContent) TruncateText() {
	if len(p.Text) > MaxTextSize {
		p.Text = p.Text[:MaxTextSize]
	}
}
