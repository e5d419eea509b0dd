package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/websentry/websentry/internal/config"
	"github.com/websentry/websentry/internal/database"
	"github.com/websentry/websentry/internal/log"
	"github.com/websentry/websentry/internal/model"
	"github.com/websentry/websentry/internal/pipeline"
	"github.com/websentry/websentry/internal/report"
)

// NewScreenCmd creates the screen command.
func NewScreenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "screen [url...]",
		Short: "Screen web pages for unsafe content",
		Long: `Screen fetches one or more pages and evaluates them against the detection
rules before their content is handed to an automated agent.

Each page is checked for:
- Prompt-injection payloads hidden in comments and markup
- Scripts using eval() or document.write
- Unusually dense hidden elements
- Encoded or obfuscated content
- Meta-refresh forced redirects

The report includes a risk-scored verdict and a sanitized copy of the
markup with scripts, event handlers, javascript: links, redirects, and
suspicious comments removed.

The command exits non-zero when any screened page is unsafe, so it can
gate scripted agent runs.

Examples:
  # Screen a single page with headless Chrome
  websentry screen https://example.com

  # Screen several pages concurrently without a browser
  websentry screen --no-browser -b 8 https://a.example https://b.example

  # Screen local HTML files
  websentry screen --file page1.html page2.html

  # Lower the unsafe threshold and write a JSON report
  websentry screen --threshold 40 --json -o report.json https://example.com

Configuration file (.websentry) example:
  sites:
    example.com:
      cookie: "session_id=abc123"
      headers:
        Authorization: "Bearer token"
      riskThreshold: 70
    noisy-templates.example:
      noBrowser: true`,
		Args: cobra.ArbitraryArgs,
		RunE: runScreenCmd,
	}

	// Screening behavior flags
	cmd.Flags().IntP("threshold", "r", config.DefaultRiskThreshold,
		"Risk score at which a page is considered unsafe")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Fetch timeout per target")
	cmd.Flags().Bool("no-browser", false,
		"Fetch with plain HTTP instead of headless Chrome (no JavaScript execution)")
	cmd.Flags().Bool("show-browser", false,
		"Run Chrome with a visible window (for debugging)")
	cmd.Flags().StringP("screenshot-dir", "s", "",
		"Capture a screenshot of each page into this directory (browser mode only)")
	cmd.Flags().Bool("file", false,
		"Treat targets as local HTML file paths instead of URLs")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header for requests")

	// Batch screening flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent screenings")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .websentry in current or home directory)")

	// History flags
	cmd.Flags().Bool("no-save", false,
		"Do not record this screening in the history database")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runScreenCmd executes the screen command.
func runScreenCmd(cmd *cobra.Command, args []string) error {
	// Build config from flags
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging with credential masking
	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runScreen(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	var err error

	cfg.RiskThreshold, err = cmd.Flags().GetInt("threshold")
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	noBrowser, err := cmd.Flags().GetBool("no-browser")
	if err != nil {
		return nil, err
	}
	cfg.UseBrowser = !noBrowser

	showBrowser, err := cmd.Flags().GetBool("show-browser")
	if err != nil {
		return nil, err
	}
	cfg.Headless = !showBrowser

	cfg.ScreenshotDir, err = cmd.Flags().GetString("screenshot-dir")
	if err != nil {
		return nil, err
	}

	cfg.LocalFiles, err = cmd.Flags().GetBool("file")
	if err != nil {
		return nil, err
	}
	// Local files never go through a browser or the network.
	if cfg.LocalFiles {
		cfg.UseBrowser = false
	}

	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, err
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load site-specific configurations from config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	noSave, err := cmd.Flags().GetBool("no-save")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noSave

	cfg.DBDir, err = cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if cfg.DBDir == "" {
		cfg.DBDir = config.XDGDataDir()
	}

	// Get positional arguments (URLs or file paths)
	cfg.Targets = args

	return cfg, nil
}

// runScreen executes the screening run.
func runScreen(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting screening",
		"targets", len(cfg.Targets),
		"useBrowser", cfg.UseBrowser,
		"batchSize", cfg.BatchSize,
		"threshold", cfg.RiskThreshold,
	)

	// Open the history database if saving is enabled
	var store pipeline.ReportStore
	if cfg.SaveToDB {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		store = db
		logger.Info("history database opened", "dir", cfg.DBDir)
	}

	// Screen all targets, concurrently when the batch allows it
	bp := pipeline.NewBatchProcessor(
		func(target string) *pipeline.Pipeline {
			return pipeline.DefaultPipeline(cfg, target, store,
				pipeline.WithLogger(logger),
			)
		},
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	startTime := time.Now()
	reports, err := bp.ProcessBatch(ctx, cfg.Targets)
	if err != nil {
		return err
	}
	elapsed := time.Since(startTime)

	// Render the reports
	if err := outputReports(cfg, reports); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	// Exit non-zero when anything failed screening so scripted agent
	// runs can gate on the verdict.
	unsafe := 0
	failed := 0
	for _, r := range reports {
		switch {
		case r.Result == nil:
			failed++
		case !r.Result.Safe:
			unsafe++
		}
	}

	logger.Info("screening finished",
		"total", len(reports),
		"unsafe", unsafe,
		"errors", failed,
		"elapsed", elapsed.Round(time.Millisecond),
	)

	if unsafe > 0 || failed > 0 {
		return fmt.Errorf("%d of %d target(s) failed screening (%d unsafe, %d errors)",
			unsafe+failed, len(reports), unsafe, failed)
	}
	return nil
}

// outputReports writes the batch to the configured destination and format.
func outputReports(cfg *config.Config, reports []*model.ScreeningReport) error {
	output, closeFn, err := openReportOutput(cfg.ReportFile)
	if err != nil {
		return err
	}
	defer closeFn()

	writer := newReportWriter(cfg, output)
	if len(reports) == 1 {
		_, err = writer.Write(reports[0])
		return err
	}
	_, err = writer.WriteAll(reports)
	return err
}

// openReportOutput returns the report destination: the given file, or
// stdout when the path is empty.
func openReportOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}

	// Create directories if they don't exist
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Reports may embed page content, so keep them owner-readable only.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

// newReportWriter selects the writer for the configured format.
func newReportWriter(cfg *config.Config, output io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output)
	default:
		return report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}
}
