// Package main provides the entry point for the WebSentry CLI.
//
// WebSentry screens web pages before their content is handed to
// automated agents. It fetches pages with a headless browser or plain
// HTTP, scores the markup against a table of injection and obfuscation
// rules, and emits a sanitized copy plus a verdict.
//
// Usage:
//
//	websentry screen <url>
//	websentry screen --no-browser <url> <url>
//
// See --help for all available options.
package main

// main is the entry point for WebSentry.
func main() {
	Execute()
}
