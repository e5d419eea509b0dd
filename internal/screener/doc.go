// Package screener implements the content security screening core.
//
// The screener inspects raw HTML for prompt-injection and obfuscation
// patterns before a page is handed to a downstream agent. It has three
// parts:
//   - a rule engine: a fixed, ordered table of case-insensitive regex
//     rules, each contributing a categorized finding (threat or warning)
//     and a score weight when its pattern matches anywhere in the document
//   - a sanitizer: an unconditional redaction pipeline that strips
//     scripts, inline event handlers, javascript: URLs, meta-refresh
//     redirects, and suspicious comments regardless of the computed score
//   - a verdict composer: combines findings and score into a safe/unsafe
//     verdict (score < threshold) and a narrative report
//
// Matching is intentionally regex-over-raw-markup rather than DOM-based:
// a full HTML parse would change detection behavior on malformed markup,
// which is exactly where injection payloads hide. This is a known
// limitation, not a defect to fix.
//
// Screening is a pure computation over an in-memory string. A Screener is
// stateless apart from its immutable risk threshold and is safe for
// concurrent use.
//
// A page with no HTML at all is rejected with ErrEmptyContent before any
// rule runs: an empty document is an upstream fetch problem, and reporting
// it "safe" would let a broken fetch pass the gate silently. Callers that
// want a verdict for empty input must treat the error as their own policy
// decision.
package screener
