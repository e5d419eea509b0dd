package screener

import "regexp"

// Redaction markers inserted by the sanitizer. Downstream agents can
// grep for these to learn what was removed.
const (
	markerScriptRemoved     = "[SCRIPT REMOVED]"
	markerRedirectRemoved   = "[REDIRECT REMOVED]"
	markerSuspiciousComment = "[SUSPICIOUS COMMENT REMOVED]"
)

// Sanitization patterns, applied in a fixed order. Script removal runs
// first so a comment-looking string inside a script body disappears
// with the script rather than leaving a dangling marker.
var (
	// scriptBlockPattern matches a whole <script> element including its
	// body, across lines.
	scriptBlockPattern = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)

	// eventHandlerPattern matches inline on* handler attributes
	// including the leading whitespace, so removal leaves no gap.
	eventHandlerPattern = regexp.MustCompile(`(?i)\s(on\w+)\s*=\s*["'][^"']*["']`)

	// jsHrefPattern matches href attributes carrying javascript: URLs.
	jsHrefPattern = regexp.MustCompile(`(?i)href\s*=\s*["']javascript:[^"']*["']`)

	// metaRefreshTagPattern matches whole meta-refresh tags.
	// Same shape as the detection rule; kept separate because detection
	// and sanitization are independent pipelines.
	metaRefreshTagPattern = regexp.MustCompile(`(?i)<meta[^>]*http-equiv\s*=\s*["']refresh["'][^>]*>`)

	// suspiciousCommentPattern matches HTML comments opening with an
	// instruction-like keyword, across lines. Ordinary comments are
	// preserved.
	suspiciousCommentPattern = regexp.MustCompile(`(?is)<!--\s*(ignore|system|assistant|instructions?)\b.*?-->`)
)

// Sanitize strips known-dangerous constructs from raw HTML and returns
// the redacted markup. It is a pure function of its input: it runs
// unconditionally, never consults the risk score, and is idempotent
// (sanitizing already-sanitized output is a no-op).
//
// Steps, in order, each operating on the previous step's output:
//  1. <script> blocks (including contents) -> "[SCRIPT REMOVED]"
//  2. inline on* event-handler attributes removed entirely
//  3. href="javascript:..." -> href="#"
//  4. <meta http-equiv="refresh"> tags -> "[REDIRECT REMOVED]"
//  5. comments starting with ignore/system/assistant/instruction(s)
//     -> "[SUSPICIOUS COMMENT REMOVED]"
func Sanitize(html string) string {
	html = scriptBlockPattern.ReplaceAllString(html, markerScriptRemoved)
	html = eventHandlerPattern.ReplaceAllString(html, "")
	html = jsHrefPattern.ReplaceAllString(html, `href="#"`)
	html = metaRefreshTagPattern.ReplaceAllString(html, markerRedirectRemoved)
	html = suspiciousCommentPattern.ReplaceAllString(html, markerSuspiciousComment)
	return html
}
