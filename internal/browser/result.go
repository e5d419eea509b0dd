package browser

// ActionResult is the structured outcome of a browser action.
// Failures are reported as values (Success=false plus Error) instead of
// Go errors, mirroring how automation results are handed to agents: the
// agent decides whether a failed interaction is fatal.
type ActionResult struct {
	// Success indicates whether the action completed.
	Success bool `json:"success"`

	// Action names the performed action: "navigate", "click", "type",
	// "evaluate", "extract_text", "screenshot".
	Action string `json:"action,omitempty"`

	// URL is the page URL after the action.
	URL string `json:"url,omitempty"`

	// Title is the page title after navigation.
	Title string `json:"title,omitempty"`

	// Selector is the CSS selector the action targeted, if any.
	Selector string `json:"selector,omitempty"`

	// Value carries the action's payload: evaluated script result,
	// extracted text, or base64 screenshot data.
	Value string `json:"value,omitempty"`

	// FilePath is where a screenshot was saved.
	FilePath string `json:"file_path,omitempty"`

	// TextLength is the length of typed or extracted text.
	TextLength int `json:"text_length,omitempty"`

	// Error describes the failure when Success is false.
	Error string `json:"error,omitempty"`
}

// succeeded builds a successful result for the named action.
func succeeded(action string) ActionResult {
	return ActionResult{Success: true, Action: action}
}

// failed builds a failed result for the named action.
func failed(action string, err error) ActionResult {
	r := ActionResult{Success: false, Action: action}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}
