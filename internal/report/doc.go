// Package report renders screening results for humans and tools.
//
// Three formats are provided: SimpleWriter for terminal display,
// JSONWriter for programmatic consumption, and MarkdownWriter for
// documentation and sharing. MultiWriter fans a report out to several
// destinations, typically terminal plus a file.
package report
