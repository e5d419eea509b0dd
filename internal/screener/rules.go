package screener

import (
	"regexp"

	"github.com/websentry/websentry/internal/model"
)

// Score weights for each rule class. The asymmetry between the flat
// injection weight and the capped hidden-element contribution is
// intentional and must not be "normalized".
const (
	scorePromptInjection = 40
	scoreDynamicCode     = 30
	scoreDOMManipulation = 20
	scoreMetaRefresh     = 25
	scoreEncodedContent  = 10

	// hiddenElementCap limits the hidden-element score contribution
	// regardless of how many hidden elements the page contains.
	hiddenElementCap = 15

	// hiddenElementFloor is the match count above which the
	// hidden-element warning fires. A handful of hidden elements is
	// normal markup; dozens suggest cloaked content.
	hiddenElementFloor = 5
)

// patternRule is one entry in the static detection table.
// Each rule contributes at most one finding per document: matching
// anywhere triggers it once, additional occurrences do not re-score.
type patternRule struct {
	// pattern is the compiled case-insensitive detection regex.
	pattern *regexp.Regexp

	// category classifies the finding as threat or warning.
	category model.Category

	// description is the finding text surfaced to the caller.
	description string

	// score is the rule's contribution to the aggregate risk score.
	score int
}

// injectionRules detect prompt-injection payloads aimed at a consuming
// agent: hidden instructions in HTML comments and bracketed role
// directives in visible text. Evaluated first; order determines the
// order of threat entries in the result.
var injectionRules = []patternRule{
	{
		pattern:     regexp.MustCompile(`(?i)<!--\s*ignore\s+previous`),
		category:    model.CategoryThreat,
		description: "PROMPT INJECTION: Hidden instruction in comment",
		score:       scorePromptInjection,
	},
	{
		pattern:     regexp.MustCompile(`(?i)<!--\s*system\s*:`),
		category:    model.CategoryThreat,
		description: "PROMPT INJECTION: System prompt injection attempt",
		score:       scorePromptInjection,
	},
	{
		pattern:     regexp.MustCompile(`(?i)<!--\s*assistant\s*:`),
		category:    model.CategoryThreat,
		description: "PROMPT INJECTION: Role override attempt",
		score:       scorePromptInjection,
	},
	{
		pattern:     regexp.MustCompile(`(?i)\[system\s*:`),
		category:    model.CategoryThreat,
		description: "PROMPT INJECTION: System instruction injection",
		score:       scorePromptInjection,
	},
	{
		pattern:     regexp.MustCompile(`(?i)\[ignore`),
		category:    model.CategoryThreat,
		description: "PROMPT INJECTION: Ignore directive",
		score:       scorePromptInjection,
	},
}

// scriptRules detect dangerous script bodies. The [^<]* in the pattern
// restricts the match to the script tag's own body (no enclosed tags
// before the dangerous call).
var scriptRules = []patternRule{
	{
		pattern:     regexp.MustCompile(`(?i)<script[^>]*>[^<]*eval\s*\(`),
		category:    model.CategoryThreat,
		description: "DYNAMIC CODE: eval() in script",
		score:       scoreDynamicCode,
	},
	{
		pattern:     regexp.MustCompile(`(?i)<script[^>]*>[^<]*document\.write`),
		category:    model.CategoryThreat,
		description: "DOM MANIPULATION: document.write detected",
		score:       scoreDOMManipulation,
	},
}

// hiddenElementPatterns are CSS constructs commonly used to cloak
// content from human readers while keeping it visible to agents parsing
// the markup. Matches are counted across all four patterns.
var hiddenElementPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)display\s*:\s*none`),
	regexp.MustCompile(`(?i)visibility\s*:\s*hidden`),
	regexp.MustCompile(`(?i)opacity\s*:\s*0`),
	regexp.MustCompile(`(?i)position\s*:\s*absolute[^}]*left\s*:\s*-9999`),
}

// encodedContentPattern detects numeric/hex HTML entities and base64
// payload markers. A single check: fires once no matter how many
// encoded sequences the page contains.
var encodedContentPattern = regexp.MustCompile(`(?i)&#x[0-9a-f]+;|&#\d+;|base64,`)

// metaRefreshRule detects meta-refresh redirects, which can silently
// bounce an agent to an attacker-controlled page.
var metaRefreshRule = patternRule{
	pattern:     regexp.MustCompile(`(?i)<meta[^>]*http-equiv\s*=\s*["']refresh["'][^>]*>`),
	category:    model.CategoryThreat,
	description: "REDIRECT: Meta refresh tag",
	score:       scoreMetaRefresh,
}
