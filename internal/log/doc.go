// Package log provides secure logging built on the standard slog package.
//
// WebSentry logs fetch and screening activity that can involve
// credentials: site configs carry cookies and Authorization headers for
// authenticated pages, and screened URLs sometimes embed session tokens
// in query strings. The SecureHandler masks these before they reach the
// underlying text or JSON handler, so even verbose debug logs are safe
// to share alongside a screening report.
//
// Usage:
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Debug("fetching page",
//	    "url", target,
//	    "cookie", siteCfg.Cookie, // masked in output
//	)
//	slog.SetDefault(logger)
package log
