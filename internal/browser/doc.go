// Package browser wraps headless Chrome automation behind a small
// session API: navigate, click, type, evaluate, extract text, capture
// screenshots, and snapshot full page content for screening.
//
// The package is deliberately thin glue over chromedp. Action methods
// return ActionResult values with Success/Error fields rather than Go
// errors: a failed click or a missing selector is an outcome the
// calling agent inspects, not an exceptional condition that should
// unwind the session. Session lifecycle methods (Start, Close,
// PageContent) do return errors, since the caller cannot proceed
// without a browser or page content.
package browser
