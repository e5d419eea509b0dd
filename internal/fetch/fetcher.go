package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/websentry/websentry/internal/model"
)

// ErrUnknownCharset is returned when a configured charset override is
// not a known HTML encoding name.
var ErrUnknownCharset = errors.New("unknown charset")

// Fetcher retrieves pages over plain HTTP and converts responses into
// model.PageContent values.
type Fetcher struct {
	// client is the HTTP client used for requests.
	client *http.Client

	// userAgent is the User-Agent header to send.
	userAgent string

	// headers are extra headers applied to every request.
	headers map[string]string

	// cookie is an optional Cookie header value.
	cookie string

	// maxBodySize limits how much of the response body is read.
	maxBodySize int64

	// charsetOverride forces a specific encoding for body decoding,
	// for servers that mislabel their Content-Type charset.
	charsetOverride string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithHeaders sets extra HTTP headers applied to every request.
func WithHeaders(headers map[string]string) Option {
	return func(f *Fetcher) {
		f.headers = headers
	}
}

// WithCookie sets the Cookie header value.
func WithCookie(cookie string) Option {
	return func(f *Fetcher) {
		f.cookie = cookie
	}
}

// WithMaxBodySize limits the response body read. Zero keeps the default.
func WithMaxBodySize(size int64) Option {
	return func(f *Fetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// WithCharsetOverride forces the named encoding when decoding bodies,
// ignoring the Content-Type charset.
func WithCharsetOverride(name string) Option {
	return func(f *Fetcher) {
		f.charsetOverride = name
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.client.Timeout = d
	}
}

// NewFetcher creates a Fetcher with the given options.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:      &http.Client{Timeout: 60 * time.Second},
		maxBodySize: model.MaxHTMLSize,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves the page at url and returns its content.
// The body is decoded to UTF-8 based on the response charset (or the
// configured override) and truncated to the body-size limit. Title,
// text, and hash are populated from the decoded markup.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*model.PageContent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %q: %w", url, err)
	}

	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}
	if f.cookie != "" {
		req.Header.Set("Cookie", f.cookie)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %q: %w", url, err)
	}
	defer resp.Body.Close() //nolint:errcheck // Read-only body

	limited := io.LimitReader(resp.Body, f.maxBodySize)
	contentType := resp.Header.Get("Content-Type")

	decoded, err := f.decodeBody(limited, contentType)
	if err != nil {
		return nil, fmt.Errorf("decoding body of %q: %w", url, err)
	}

	body, err := io.ReadAll(decoded)
	if err != nil {
		return nil, fmt.Errorf("reading body of %q: %w", url, err)
	}

	page := &model.PageContent{
		URL:         resp.Request.URL.String(), // final URL after redirects
		HTML:        string(body),
		StatusCode:  resp.StatusCode,
		ContentType: baseContentType(contentType),
		Headers:     resp.Header,
	}
	page.TruncateHTML()
	page.ComputeHash()

	if page.IsHTML() {
		if parsed, err := NewParser().Parse(strings.NewReader(page.HTML)); err == nil {
			page.Title = parsed.Title
			page.Text = parsed.Text
			page.TruncateText()
		}
	}

	return page, nil
}

// decodeBody wraps the body reader with a UTF-8 decoder.
// With a charset override, the encoding is resolved via the WHATWG
// encoding index; otherwise it is sniffed from the Content-Type header
// and the document prefix.
func (f *Fetcher) decodeBody(r io.Reader, contentType string) (io.Reader, error) {
	if f.charsetOverride != "" {
		enc, err := htmlindex.Get(f.charsetOverride)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCharset, f.charsetOverride)
		}
		return enc.NewDecoder().Reader(r), nil
	}
	return charset.NewReader(r, contentType)
}

// baseContentType strips parameters ("; charset=...") from a
// Content-Type header value.
func baseContentType(contentType string) string {
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = contentType[:idx]
	}
	return strings.TrimSpace(contentType)
}
