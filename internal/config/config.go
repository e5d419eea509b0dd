package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultRiskThreshold is the score at which a screened page is
	// considered unsafe. 50 means a single prompt-injection finding
	// (+40) passes while an injection plus any other threat fails.
	DefaultRiskThreshold = 50

	// DefaultTimeout is the navigation/fetch timeout per page.
	// Headless Chrome startup plus navigation on heavy pages can take
	// tens of seconds; 60s keeps slow pages from failing spuriously.
	DefaultTimeout = 60 * time.Second

	// DefaultBatchSize of 4 concurrent screenings balances throughput
	// with the cost of multiple browser tabs. Higher values mostly help
	// in --no-browser mode where each target is a plain HTTP request.
	DefaultBatchSize = 4

	// DefaultMaxBodySize limits the response body read in HTTP fetch
	// mode. 5MB covers real HTML pages while preventing memory
	// exhaustion from unexpected payloads.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultUserAgent identifies WebSentry in HTTP requests.
	DefaultUserAgent = "WebSentry/1.0 (+https://github.com/websentry/websentry)"

	// AppName is the application name used for XDG directory paths.
	AppName = "websentry"
)

// Config holds all configuration options for WebSentry.
// It is populated from CLI flags and the optional .websentry file and
// passed through the application via dependency injection rather than
// global state.
type Config struct {
	// RiskThreshold is the screening score boundary for the safe
	// verdict. Pages scoring at or above it are reported unsafe.
	RiskThreshold int

	// Timeout is the per-target navigation or fetch timeout.
	Timeout time.Duration

	// UseBrowser selects headless-Chrome fetching. When false, targets
	// are fetched with a plain HTTP client (faster, but no JavaScript
	// execution, so the screener sees pre-render markup).
	UseBrowser bool

	// Headless controls whether the browser runs without a visible
	// window. Disabled only for debugging automation interactively.
	Headless bool

	// ScreenshotDir is where page screenshots are saved.
	// Empty disables screenshot capture during screening.
	ScreenshotDir string

	// BatchSize is the number of concurrent screenings when processing
	// multiple targets.
	BatchSize int

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .websentry in the current
	// directory and then in the user's home directory.
	ConfigFilePath string

	// SiteConfigs holds per-site overrides loaded from the config file.
	SiteConfigs *File

	// JSONReport enables JSON report output instead of human-readable
	// format. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written there instead of stdout.
	ReportFile string

	// Targets is the list of URLs or local HTML files to screen.
	Targets []string

	// LocalFiles indicates that Targets are local HTML files rather
	// than URLs, skipping fetching entirely.
	LocalFiles bool

	// DBDir is the directory for the SQLite history database.
	// Defaults to the XDG data directory.
	DBDir string

	// SaveToDB indicates whether to persist screening results for
	// historical comparison.
	SaveToDB bool

	// UserAgent is the User-Agent header for HTTP fetch mode.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read
	// in HTTP fetch mode. Zero means use the default.
	MaxBodySize int64
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (threshold, timeout,
// batch size). This also serves as documentation of the defaults.
func NewConfig() *Config {
	return &Config{
		RiskThreshold: DefaultRiskThreshold,
		Timeout:       DefaultTimeout,
		UseBrowser:    true,
		Headless:      true,
		BatchSize:     DefaultBatchSize,
		UserAgent:     DefaultUserAgent,
		MaxBodySize:   DefaultMaxBodySize,
		SaveToDB:      true,
	}
}

// XDGDataDir returns the XDG data directory for WebSentry.
// On Linux: ~/.local/share/websentry
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for WebSentry.
// On Linux: ~/.config/websentry
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific sentinel error describing what is invalid.
// Called once after CLI parsing, before any screening begins, so that
// bad flag combinations fail fast with a clear message.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}

	// Threshold must be positive: zero would mark every page unsafe.
	if c.RiskThreshold <= 0 {
		return ErrInvalidThreshold
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	return nil
}
