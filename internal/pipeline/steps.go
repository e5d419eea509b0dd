package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/websentry/websentry/internal/browser"
	"github.com/websentry/websentry/internal/config"
	"github.com/websentry/websentry/internal/fetch"
	"github.com/websentry/websentry/internal/model"
	"github.com/websentry/websentry/internal/screener"
)

// ErrNoPageContent is returned by ScreenStep when the report carries no
// fetched page, which means the fetch step failed or was skipped.
var ErrNoPageContent = errors.New("pipeline: no page content to screen")

// FetchStep retrieves the target's content and attaches it to the report.
// Depending on configuration it uses a headless browser (post-JavaScript
// markup), a plain HTTP client, or reads a local HTML file.
//
// Design decision: One step covers all three retrieval modes because the
// mode is an input property, not a pipeline property: a batch can mix
// URLs and local files, and the step decides per target.
type FetchStep struct {
	// useBrowser selects headless Chrome over the HTTP fetcher.
	useBrowser bool

	// headless controls the browser window when useBrowser is set.
	headless bool

	// localFiles treats targets as paths to HTML files on disk.
	localFiles bool

	// screenshotDir enables screenshot capture in browser mode when
	// non-empty.
	screenshotDir string

	// timeout bounds retrieval of a single target.
	timeout time.Duration

	// userAgent is sent with HTTP requests and browser navigation.
	userAgent string

	// headers are extra request headers from the site configuration.
	headers map[string]string

	// cookie is the Cookie header value from the site configuration.
	cookie string

	// maxBodySize limits HTTP response bodies.
	maxBodySize int64

	// logger for structured logging.
	logger *slog.Logger
}

// FetchStepOption configures a FetchStep.
type FetchStepOption func(*FetchStep)

// WithFetchBrowser selects headless-Chrome retrieval.
func WithFetchBrowser(useBrowser bool) FetchStepOption {
	return func(s *FetchStep) {
		s.useBrowser = useBrowser
	}
}

// WithFetchHeadless controls the browser window in browser mode.
func WithFetchHeadless(headless bool) FetchStepOption {
	return func(s *FetchStep) {
		s.headless = headless
	}
}

// WithFetchLocalFiles treats targets as local HTML file paths.
func WithFetchLocalFiles(local bool) FetchStepOption {
	return func(s *FetchStep) {
		s.localFiles = local
	}
}

// WithFetchScreenshotDir enables screenshot capture in browser mode.
func WithFetchScreenshotDir(dir string) FetchStepOption {
	return func(s *FetchStep) {
		s.screenshotDir = dir
	}
}

// WithFetchTimeout bounds retrieval of a single target.
func WithFetchTimeout(d time.Duration) FetchStepOption {
	return func(s *FetchStep) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithFetchUserAgent sets the User-Agent for requests.
func WithFetchUserAgent(ua string) FetchStepOption {
	return func(s *FetchStep) {
		s.userAgent = ua
	}
}

// WithFetchHeaders sets extra request headers.
func WithFetchHeaders(headers map[string]string) FetchStepOption {
	return func(s *FetchStep) {
		s.headers = headers
	}
}

// WithFetchCookie sets the Cookie header value.
func WithFetchCookie(cookie string) FetchStepOption {
	return func(s *FetchStep) {
		s.cookie = cookie
	}
}

// WithFetchMaxBodySize limits HTTP response bodies.
func WithFetchMaxBodySize(size int64) FetchStepOption {
	return func(s *FetchStep) {
		if size > 0 {
			s.maxBodySize = size
		}
	}
}

// WithFetchLogger sets a custom logger for the fetch step.
func WithFetchLogger(logger *slog.Logger) FetchStepOption {
	return func(s *FetchStep) {
		s.logger = logger
	}
}

// NewFetchStep creates a fetch step. Defaults to browser mode with
// a 60 second timeout, matching the CLI defaults.
func NewFetchStep(opts ...FetchStepOption) *FetchStep {
	s := &FetchStep{
		useBrowser:  true,
		headless:    true,
		timeout:     config.DefaultTimeout,
		userAgent:   config.DefaultUserAgent,
		maxBodySize: config.DefaultMaxBodySize,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *FetchStep) Name() string {
	return "fetch"
}

// Do retrieves the report's target and stores the page content.
func (s *FetchStep) Do(ctx context.Context, report *model.ScreeningReport) error {
	if s.localFiles {
		return s.fetchFile(report)
	}
	if s.useBrowser {
		return s.fetchBrowser(ctx, report)
	}
	return s.fetchHTTP(ctx, report)
}

// fetchFile reads a local HTML file and extracts its text content.
func (s *FetchStep) fetchFile(report *model.ScreeningReport) error {
	data, err := os.ReadFile(report.Target)
	if err != nil {
		return fmt.Errorf("reading %s: %w", report.Target, err)
	}

	page := &model.PageContent{
		URL:         report.Target,
		HTML:        string(data),
		ContentType: "text/html",
	}
	page.TruncateHTML()

	// Local files skip the network, but title/text extraction still
	// matters for the report.
	parsed, err := fetch.NewParser().Parse(strings.NewReader(page.HTML))
	if err != nil {
		s.logger.Warn("parsing local file failed", "path", report.Target, "error", err)
	} else {
		page.Title = parsed.Title
		page.Text = parsed.Text
		page.TruncateText()
	}
	page.ComputeHash()

	report.Page = page
	report.FetchedVia = "file"
	return nil
}

// fetchHTTP retrieves the target with the plain HTTP client.
func (s *FetchStep) fetchHTTP(ctx context.Context, report *model.ScreeningReport) error {
	fetcher := fetch.NewFetcher(
		fetch.WithUserAgent(s.userAgent),
		fetch.WithHeaders(s.headers),
		fetch.WithCookie(s.cookie),
		fetch.WithMaxBodySize(s.maxBodySize),
		fetch.WithTimeout(s.timeout),
	)

	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	page, err := fetcher.Fetch(fetchCtx, report.Target)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", report.Target, err)
	}

	report.Page = page
	report.FetchedVia = "http"
	return nil
}

// fetchBrowser retrieves the target with headless Chrome so the
// screener sees post-JavaScript markup.
func (s *FetchStep) fetchBrowser(ctx context.Context, report *model.ScreeningReport) error {
	headers := s.headers
	if s.cookie != "" {
		headers = make(map[string]string, len(s.headers)+1)
		for k, v := range s.headers {
			headers[k] = v
		}
		headers["Cookie"] = s.cookie
	}

	session := browser.NewSession(
		browser.WithHeadless(s.headless),
		browser.WithUserAgent(s.userAgent),
		browser.WithHeaders(headers),
		browser.WithScreenshotDir(s.screenshotDir),
		browser.WithActionTimeout(s.timeout),
	)
	if err := session.Start(ctx); err != nil {
		return err
	}
	defer session.Close()

	if nav := session.Navigate(ctx, report.Target); !nav.Success {
		return fmt.Errorf("navigating to %s: %s", report.Target, nav.Error)
	}

	page, err := session.PageContent(ctx)
	if err != nil {
		return err
	}

	report.Page = page
	report.FetchedVia = "browser"

	// Screenshot failure is diagnostic only; the screening proceeds.
	if s.screenshotDir != "" {
		if shot := session.Screenshot(ctx, ""); shot.Success {
			report.ScreenshotPath = shot.FilePath
		} else {
			s.logger.Warn("screenshot failed", "target", report.Target, "error", shot.Error)
		}
	}

	return nil
}

// ScreenStep runs the detection rules over the fetched page and attaches
// the verdict to the report.
type ScreenStep struct {
	// screener evaluates pages. Shared across targets; Screen is safe
	// for concurrent use.
	screener *screener.Screener

	// logger for structured logging.
	logger *slog.Logger
}

// ScreenStepOption configures a ScreenStep.
type ScreenStepOption func(*ScreenStep)

// WithScreenLogger sets a custom logger for the screen step.
func WithScreenLogger(logger *slog.Logger) ScreenStepOption {
	return func(s *ScreenStep) {
		s.logger = logger
	}
}

// NewScreenStep creates a screening step around the given screener.
func NewScreenStep(sc *screener.Screener, opts ...ScreenStepOption) *ScreenStep {
	s := &ScreenStep{
		screener: sc,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *ScreenStep) Name() string {
	return "screen"
}

// Do evaluates the report's page content.
func (s *ScreenStep) Do(_ context.Context, report *model.ScreeningReport) error {
	if report.Page == nil {
		return ErrNoPageContent
	}

	result, err := s.screener.Screen(*report.Page)
	if err != nil {
		return err
	}
	report.Result = result

	s.logger.Info("screening complete",
		"target", report.Target,
		"safe", result.Safe,
		"risk_score", result.RiskScore,
		"threats", len(result.Threats),
		"warnings", len(result.Warnings),
	)
	return nil
}

// ReportStore persists completed screening reports.
// Satisfied by database.ScreenDB; defined here so the pipeline does not
// depend on the storage implementation.
type ReportStore interface {
	SaveReport(ctx context.Context, report *model.ScreeningReport) error
}

// PersistStep saves the completed report to the history store.
type PersistStep struct {
	// store receives the report. A nil store makes the step a no-op,
	// which is how --no-save is implemented.
	store ReportStore

	// logger for structured logging.
	logger *slog.Logger
}

// PersistStepOption configures a PersistStep.
type PersistStepOption func(*PersistStep)

// WithPersistLogger sets a custom logger for the persist step.
func WithPersistLogger(logger *slog.Logger) PersistStepOption {
	return func(s *PersistStep) {
		s.logger = logger
	}
}

// NewPersistStep creates a persistence step writing to the given store.
func NewPersistStep(store ReportStore, opts ...PersistStepOption) *PersistStep {
	s := &PersistStep{
		store:  store,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *PersistStep) Name() string {
	return "persist"
}

// Do saves the report. Persistence failure does not invalidate the
// screening verdict, so errors are recorded but not fatal.
func (s *PersistStep) Do(ctx context.Context, report *model.ScreeningReport) error {
	if s.store == nil {
		s.logger.Debug("history store disabled, skipping persist")
		return nil
	}

	if err := s.store.SaveReport(ctx, report); err != nil {
		s.logger.Warn("saving report failed",
			"target", report.Target,
			"error", err,
		)
		return nil
	}

	s.logger.Debug("report saved", "target", report.Target)
	return nil
}

// targetHost extracts the hostname from a target URL for site-config
// lookup. Non-URL targets (local files) return empty, which matches
// only the config defaults.
func targetHost(target string) string {
	u, err := url.Parse(target)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// DefaultPipeline builds the standard fetch -> screen -> persist
// pipeline from the application configuration. The cookie, headers, and
// browser toggle come from the site configuration matched to target, so
// callers build one pipeline per target.
//
// Design decision: We provide a default pipeline because:
// 1. Most invocations want the full sequence
// 2. Reduces boilerplate in the CLI
// 3. Ensures consistent ordering
func DefaultPipeline(cfg *config.Config, target string, store ReportStore, pipelineOpts ...Option) *Pipeline {
	p := New(pipelineOpts...)

	useBrowser := cfg.UseBrowser
	threshold := cfg.RiskThreshold
	var cookie string
	headers := map[string]string{}

	if cfg.SiteConfigs != nil {
		site := cfg.SiteConfigs.GetSiteConfig(targetHost(target))
		cookie = site.Cookie
		headers = site.Headers
		if site.NoBrowser {
			useBrowser = false
		}
		if site.RiskThreshold > 0 {
			threshold = site.RiskThreshold
		}
	}

	p.AddSteps(
		NewFetchStep(
			WithFetchBrowser(useBrowser),
			WithFetchHeadless(cfg.Headless),
			WithFetchLocalFiles(cfg.LocalFiles),
			WithFetchScreenshotDir(cfg.ScreenshotDir),
			WithFetchTimeout(cfg.Timeout),
			WithFetchUserAgent(cfg.UserAgent),
			WithFetchHeaders(headers),
			WithFetchCookie(cookie),
			WithFetchMaxBodySize(cfg.MaxBodySize),
			WithFetchLogger(p.logger),
		),
		NewScreenStep(
			screener.New(screener.WithRiskThreshold(threshold)),
			WithScreenLogger(p.logger),
		),
		NewPersistStep(store, WithPersistLogger(p.logger)),
	)

	return p
}
