package browser

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/websentry/websentry/internal/model"
)

// Default viewport dimensions for page rendering.
const (
	defaultViewportWidth  = 1280
	defaultViewportHeight = 720
)

// ErrNotStarted is returned when an operation is attempted before
// Start has been called.
var ErrNotStarted = errors.New("browser session not started")

// Session manages a single headless Chrome tab.
// A Session is not safe for concurrent use; screening batches create
// one session per target.
type Session struct {
	// headless controls whether Chrome runs without a window.
	headless bool

	// userAgent overrides the browser's User-Agent when non-empty.
	userAgent string

	// headers are extra HTTP headers applied to all requests,
	// including the site-config cookie as a Cookie header.
	headers map[string]string

	// screenshotDir is where captured screenshots are written.
	screenshotDir string

	// timeout bounds each individual action.
	timeout time.Duration

	// ctx is the chromedp browser context, set by Start.
	ctx context.Context

	// cancels tears down allocator and browser contexts, last-in-first-out.
	cancels []context.CancelFunc
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithHeadless controls headless mode. Default is true.
func WithHeadless(headless bool) SessionOption {
	return func(s *Session) {
		s.headless = headless
	}
}

// WithUserAgent overrides the browser User-Agent.
func WithUserAgent(ua string) SessionOption {
	return func(s *Session) {
		s.userAgent = ua
	}
}

// WithHeaders sets extra HTTP headers for all requests.
func WithHeaders(headers map[string]string) SessionOption {
	return func(s *Session) {
		s.headers = headers
	}
}

// WithScreenshotDir sets the directory screenshots are saved to.
// The directory is created on first capture if needed.
func WithScreenshotDir(dir string) SessionOption {
	return func(s *Session) {
		s.screenshotDir = dir
	}
}

// WithActionTimeout bounds each individual browser action.
func WithActionTimeout(d time.Duration) SessionOption {
	return func(s *Session) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewSession creates an unstarted Session with the given options.
func NewSession(opts ...SessionOption) *Session {
	s := &Session{
		headless: true,
		timeout:  60 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches Chrome and prepares a tab with the configured
// viewport, user agent, and headers. Call Close when done.
func (s *Session) Start(ctx context.Context) error {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.headless),
	)
	if s.userAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(s.userAgent))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	s.cancels = []context.CancelFunc{cancelBrowser, cancelAlloc}
	s.ctx = browserCtx

	actions := []chromedp.Action{
		chromedp.EmulateViewport(defaultViewportWidth, defaultViewportHeight),
	}
	if len(s.headers) > 0 {
		extra := make(network.Headers, len(s.headers))
		for k, v := range s.headers {
			extra[k] = v
		}
		actions = append(actions, network.Enable(), network.SetExtraHTTPHeaders(extra))
	}

	runCtx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()
	if err := chromedp.Run(runCtx, actions...); err != nil {
		s.Close()
		return fmt.Errorf("starting browser: %w", err)
	}
	return nil
}

// Close shuts down the browser and releases resources.
// Safe to call multiple times and on an unstarted session.
func (s *Session) Close() {
	for _, cancel := range s.cancels {
		cancel()
	}
	s.cancels = nil
	s.ctx = nil
}

// run executes chromedp actions under the session's action timeout.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	if s.ctx == nil {
		return ErrNotStarted
	}
	// Respect both the caller's context and the session lifetime.
	runCtx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- chromedp.Run(runCtx, actions...)
	}()

	select {
	case <-ctx.Done():
		cancel()
		return ctx.Err()
	case err := <-done:
		return err
	}
}

// Navigate loads the given URL and waits for the document body.
func (s *Session) Navigate(ctx context.Context, url string) ActionResult {
	var finalURL, title string
	err := s.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Location(&finalURL),
		chromedp.Title(&title),
	)
	if err != nil {
		return failed("navigate", err)
	}

	result := succeeded("navigate")
	result.URL = finalURL
	result.Title = title
	return result
}

// Click clicks the first visible element matching the CSS selector.
func (s *Session) Click(ctx context.Context, selector string) ActionResult {
	var url string
	err := s.run(ctx,
		chromedp.Click(selector, chromedp.NodeVisible),
		chromedp.Location(&url),
	)
	if err != nil {
		return failed("click", err)
	}

	result := succeeded("click")
	result.Selector = selector
	result.URL = url
	return result
}

// TypeText clears the matching input and types the given text into it.
func (s *Session) TypeText(ctx context.Context, selector, text string) ActionResult {
	err := s.run(ctx,
		chromedp.Clear(selector),
		chromedp.SendKeys(selector, text),
	)
	if err != nil {
		return failed("type", err)
	}

	result := succeeded("type")
	result.Selector = selector
	result.TextLength = len(text)
	return result
}

// Evaluate executes JavaScript in the page and returns its result as a
// JSON-encoded string.
func (s *Session) Evaluate(ctx context.Context, script string) ActionResult {
	var raw []byte
	err := s.run(ctx, chromedp.Evaluate(script, &raw))
	if err != nil {
		return failed("evaluate", err)
	}

	result := succeeded("evaluate")
	result.Value = string(raw)
	return result
}

// ExtractText returns the visible text of the first element matching
// the CSS selector. Use "body" for the whole page.
func (s *Session) ExtractText(ctx context.Context, selector string) ActionResult {
	var text string
	err := s.run(ctx, chromedp.Text(selector, &text, chromedp.NodeReady))
	if err != nil {
		return failed("extract_text", err)
	}

	result := succeeded("extract_text")
	result.Selector = selector
	result.Value = text
	result.TextLength = len(text)
	return result
}

// Screenshot captures the full page, or a single element when selector
// is non-empty. The image is saved under the screenshot directory and
// also returned base64-encoded in Value.
func (s *Session) Screenshot(ctx context.Context, selector string) ActionResult {
	var buf []byte
	var url string

	actions := []chromedp.Action{chromedp.Location(&url)}
	if selector != "" {
		actions = append(actions, chromedp.Screenshot(selector, &buf, chromedp.NodeVisible))
	} else {
		actions = append(actions, chromedp.FullScreenshot(&buf, 90))
	}

	if err := s.run(ctx, actions...); err != nil {
		return failed("screenshot", err)
	}

	result := succeeded("screenshot")
	result.Selector = selector
	result.URL = url
	result.Value = base64.StdEncoding.EncodeToString(buf)

	if s.screenshotDir != "" {
		path, err := s.saveScreenshot(url, buf)
		if err != nil {
			return failed("screenshot", err)
		}
		result.FilePath = path
	}
	return result
}

// saveScreenshot writes the capture into the screenshot directory.
func (s *Session) saveScreenshot(url string, data []byte) (string, error) {
	if err := os.MkdirAll(s.screenshotDir, 0750); err != nil {
		return "", fmt.Errorf("creating screenshot dir: %w", err)
	}
	path := filepath.Join(s.screenshotDir, ScreenshotFilename(url))
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("writing screenshot: %w", err)
	}
	return path, nil
}

// PageContent snapshots the current page for screening: final URL,
// title, post-JavaScript outer HTML, and visible body text.
func (s *Session) PageContent(ctx context.Context) (*model.PageContent, error) {
	var url, title, html, text string
	err := s.run(ctx,
		chromedp.Location(&url),
		chromedp.Title(&title),
		chromedp.OuterHTML("html", &html),
		chromedp.Text("body", &text, chromedp.NodeReady),
	)
	if err != nil {
		return nil, fmt.Errorf("capturing page content: %w", err)
	}

	page := &model.PageContent{
		URL:   url,
		Title: title,
		HTML:  html,
		Text:  text,
	}
	page.TruncateHTML()
	page.TruncateText()
	page.ComputeHash()
	return page, nil
}

// ScreenshotFilename derives a filesystem-safe screenshot name from a
// page URL, capped so long URLs don't produce unwieldy names.
func ScreenshotFilename(url string) string {
	name := strings.NewReplacer("://", "_", "/", "_", "?", "_", "&", "_", "#", "_").Replace(url)
	if len(name) > 50 {
		name = name[:50]
	}
	if name == "" {
		name = "page"
	}
	return "screenshot_" + name + ".png"
}
