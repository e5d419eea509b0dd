// Package model defines the core data structures shared across WebSentry.
//
// The central types are:
//   - PageContent: a captured web page (URL, title, raw HTML, extracted text)
//     as produced by the browser or HTTP fetch collaborator
//   - Finding: a single categorized detection (threat or warning) with its
//     risk score contribution
//   - ScreeningResult: the screener's verdict for one page (safety flag,
//     sanitized HTML, findings, risk score, narrative report)
//   - ScreeningReport: the persistence and reporting envelope combining
//     target metadata with the screening result
//
// These types are plain data with no behavior beyond convenience accessors,
// so they can be serialized to JSON for downstream agents and stored in the
// history database without adapters.
package model
