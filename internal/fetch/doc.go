// Package fetch retrieves web pages over plain HTTP and extracts their
// content for screening.
//
// This is the --no-browser path: a single GET with optional site-config
// headers and cookie, charset-aware body decoding, and an HTML parse
// that extracts the title, visible text, meta tags, and comments. The
// result is a model.PageContent, the same shape the browser session
// produces, so the screener does not care which collaborator fetched
// the page. The tradeoff is that no JavaScript runs, so the screener
// sees pre-render markup.
package fetch
