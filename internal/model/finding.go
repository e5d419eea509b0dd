package model

// Category classifies a screening finding by severity.
//
// Design decision: We use iota-based constants rather than string
// constants for efficiency in comparisons. The String() method provides
// human-readable output when needed.
type Category int

const (
	// CategoryWarning indicates suspicious but not definitively malicious
	// content. Examples: dense hidden elements, encoded payloads.
	// Warnings contribute to the risk score but rarely fail a page alone.
	CategoryWarning Category = iota

	// CategoryThreat indicates likely malicious intent.
	// Examples: prompt injection in comments, eval() in scripts,
	// meta-refresh redirects. Threats carry the largest score weights.
	CategoryThreat
)

// String returns a human-readable representation of the category.
func (c Category) String() string {
	switch c {
	case CategoryWarning:
		return "WARNING"
	case CategoryThreat:
		return "THREAT"
	default:
		return "UNKNOWN"
	}
}

// Finding represents a single triggered detection rule.
// A rule that matches anywhere in the document produces exactly one
// finding regardless of how many times its pattern occurs.
type Finding struct {
	// Category is the severity class (threat or warning).
	Category Category `json:"category"`

	// Description is the human-readable explanation of what was detected.
	// For threats this includes an upper-case tag prefix such as
	// "PROMPT INJECTION:" so downstream agents can group them.
	Description string `json:"description"`

	// Score is this finding's contribution to the aggregate risk score.
	Score int `json:"score"`
}
