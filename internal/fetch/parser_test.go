package fetch

import (
	"strings"
	"testing"
)

// TestParserExtraction tests title, text, meta, and comment extraction.
func TestParserExtraction(t *testing.T) {
	t.Parallel()

	html := `<!DOCTYPE html>
<html>
<head>
  <title>  Example Page  </title>
  <meta name="description" content="A test page">
  <meta property="og:title" content="Example OG">
  <style>body { color: red }</style>
</head>
<body>
  <!-- layout: two columns -->
  <h1>Welcome</h1>
  <p>Some <b>visible</b> text.</p>
  <script>var hidden = "not text";</script>
</body>
</html>`

	result, err := NewParser().Parse(strings.NewReader(html))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Title != "Example Page" {
		t.Errorf("Title = %q, expected %q", result.Title, "Example Page")
	}

	for _, want := range []string{"Welcome", "Some", "visible", "text."} {
		if !strings.Contains(result.Text, want) {
			t.Errorf("Text missing %q: %q", want, result.Text)
		}
	}
	if strings.Contains(result.Text, "not text") {
		t.Errorf("script body leaked into text: %q", result.Text)
	}
	if strings.Contains(result.Text, "color: red") {
		t.Errorf("style body leaked into text: %q", result.Text)
	}

	if result.MetaTags["description"] != "A test page" {
		t.Errorf("meta description = %q", result.MetaTags["description"])
	}
	if result.MetaTags["og:title"] != "Example OG" {
		t.Errorf("og:title = %q", result.MetaTags["og:title"])
	}

	if len(result.Comments) != 1 || !strings.Contains(result.Comments[0], "layout: two columns") {
		t.Errorf("Comments = %v, expected the layout comment", result.Comments)
	}
}

// TestParserMalformedHTML tests that malformed markup still parses.
// x/net/html never fails on bad markup; it repairs the tree.
func TestParserMalformedHTML(t *testing.T) {
	t.Parallel()

	result, err := NewParser().Parse(strings.NewReader("<p>unclosed <div><b>nested"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result.Text, "unclosed") || !strings.Contains(result.Text, "nested") {
		t.Errorf("Text = %q, expected text from malformed markup", result.Text)
	}
}

// TestParserEmptyDocument tests parsing an empty input.
func TestParserEmptyDocument(t *testing.T) {
	t.Parallel()

	result, err := NewParser().Parse(strings.NewReader(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Title != "" || result.Text != "" {
		t.Errorf("expected empty result, got title=%q text=%q", result.Title, result.Text)
	}
}
