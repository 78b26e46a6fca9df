package constants

// MatchThreshold is the minimum similarity score, in [0,1], at which a fuzzy
// match between a requested edit target and document text is accepted. Exact
// substring hits score 1.0 and bypass the threshold.
const MatchThreshold = 0.75

// MaxWindowFragments bounds how many adjacent fragments are concatenated when
// matching a target that spans multiple layout runs.
const MaxWindowFragments = 4

// MinHorizontalScale is the floor, in percent, for the horizontal text
// scaling applied when replacement text is wider than the region it replaces.
// Below this the text is left at the floor scale and may extend into
// surrounding whitespace.
const MinHorizontalScale = 50

// DefaultFontSize is assumed for fragments whose size the extraction engine
// does not report.
const DefaultFontSize = 12.0

// MaxPromptDocChars caps how much document text is quoted in the model
// prompt.
const MaxPromptDocChars = 2000

// MinAPIKeyLength is the shortest credential accepted before attempting a
// model call.
const MinAPIKeyLength = 20

// TimestampLayout is used in generated download filenames.
const TimestampLayout = "20060102_150405"

// DefaultModels is the ordered model fallback list. The first model that
// returns a usable response wins; the list is exhausted before the request
// fails.
var DefaultModels = []string{
	"gemini-2.5-flash",
	"gemini-2.5-flash-lite",
	"gemini-2.5-pro",
	"gemini-2.0-flash",
	"gemini-2.0-flash-lite",
	"gemini-1.5-pro",
	"gemini-pro",
}
