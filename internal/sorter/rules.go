package sorter

import (
	"regexp"
	"strings"

	"github.com/ashrobertsdragon/lorebinder/internal/names"
)

// Rules holds the constant tables and heuristics the sorter runs on.
// They are injected at construction so tests can override them.
type Rules struct {
	// NarratorAliases are generic placeholder terms the NER model emits
	// for a first-person narrator. Matched case-insensitively as
	// substrings of a candidate line.
	NarratorAliases []string

	// JunkWords are single words that mark a line as filler when any of
	// them appears as a whole word ("he", "unknown", ...).
	JunkWords map[string]struct{}

	// JunkSubstrings mark a line as filler when contained anywhere in it
	// ("additional", "note", "none").
	JunkSubstrings []string

	// Titles are honorifics stripped from the front of a name before
	// fuzzy comparison.
	Titles map[string]struct{}

	// CategoryAliases maps misrendered category headers (lowercased,
	// with trailing colon) to their canonical header.
	CategoryAliases map[string]string
}

// DefaultRules returns the production rule tables.
func DefaultRules() Rules {
	return Rules{
		NarratorAliases: []string{"narrator", "protagonist", "main character"},
		JunkWords: names.Set(
			"mentioned", "unknown", "he", "they", "she", "we", "it",
			"boy", "girl", "main", "him", "her", "i", "</s>", "a",
		),
		JunkSubstrings: []string{"additional", "note", "none"},
		Titles:         names.TitleSet(),
		CategoryAliases: map[string]string{
			"setting:":   "Settings:",
			"location:":  "Settings:",
			"locations:": "Settings:",
			"place:":     "Settings:",
			"places:":    "Settings:",
			"character:": "Characters:",
		},
	}
}

var (
	listFormattingRe   = regexp.MustCompile(`^[\d.\-]+\s*|^\.\s|^\*\s*|^\+\s*|^\t+`)
	interiorExteriorRe = regexp.MustCompile(`(?i)(interior|exterior)`)
	invertedSettingRe  = regexp.MustCompile(`(?i)(interior|exterior)\s+\((\w+)\)`)
	leadingColonRe     = regexp.MustCompile(`^\s*:\s+`)
	trailingParenRe    = regexp.MustCompile(`\s*\(([^()]*)\)$`)

	// The source text of a run-on NER line like "namesCharacters:" or
	// "Settings: Paris" carries category headers glued to their values.
	// Go regexp has no lookarounds, so these capture the adjoining text
	// and reinsert it around a newline.
	newlineBeforeHeaderRe = regexp.MustCompile(`(\w)([A-Z][a-z]*:)`)
	newlineBetweenNamesRe = regexp.MustCompile(`(\w+ \(\w+\))\s+(\w+)`)
	newlineAfterHeaderRe  = regexp.MustCompile(`(\w):[ \t]*(\w)`)
)

// isJunk reports whether line is filler rather than a name.
func (r Rules) isJunk(line string) bool {
	lower := strings.ToLower(line)
	for _, junk := range r.JunkSubstrings {
		if strings.Contains(lower, junk) {
			return true
		}
	}
	for _, word := range strings.Fields(lower) {
		if _, ok := r.JunkWords[word]; ok {
			return true
		}
	}
	return false
}

// isNarratorAlias reports whether line refers to the narrator by a
// generic placeholder instead of a name.
func (r Rules) isNarratorAlias(line string) bool {
	lower := strings.ToLower(line)
	for _, alias := range r.NarratorAliases {
		if strings.Contains(lower, alias) {
			return true
		}
	}
	return false
}

// hasLocationTag reports whether a setting carries an
// "(interior)"/"(exterior)" tag. Tagged and untagged settings are
// never fuzzy-compared against each other.
func hasLocationTag(name string) bool {
	return strings.HasSuffix(name, ")")
}

// clean is the comparison form of a name: title and possessive
// stripped.
func (r Rules) clean(name string) string {
	return names.StripPossessive(names.StripLeading(name, r.Titles))
}

// plausiblySame reports whether two candidate names could refer to the
// same entity and should be fuzzy-compared: they share a leading token,
// or one is a prefix or suffix of the other after possessive and title
// stripping. Known false-positive: genuinely distinct short names with
// a shared prefix ("Jon"/"Jonah") compare true; the shorter-is-alias
// resolution then folds them together.
func (r Rules) plausiblySame(a, b string) bool {
	if a == b {
		return false
	}
	if hasLocationTag(a) || hasLocationTag(b) {
		return false
	}
	cleanA, cleanB := r.clean(a), r.clean(b)
	if cleanA == "" || cleanB == "" {
		return false
	}
	fieldsA := strings.Fields(cleanA)
	fieldsB := strings.Fields(cleanB)
	if len(fieldsA) > 0 && len(fieldsB) > 0 &&
		strings.EqualFold(fieldsA[0], fieldsB[0]) {
		return true
	}
	lowerA, lowerB := strings.ToLower(cleanA), strings.ToLower(cleanB)
	return strings.HasPrefix(lowerA, lowerB) || strings.HasPrefix(lowerB, lowerA) ||
		strings.HasSuffix(lowerA, lowerB) || strings.HasSuffix(lowerB, lowerA)
}

// preferCanonical picks the canonical form of two comparable names.
// A singular form is an alias of its plural; otherwise the shorter
// string (after stripping) is treated as an alias of the longer.
func (r Rules) preferCanonical(a, b string) string {
	cleanA, cleanB := r.clean(a), r.clean(b)
	switch {
	case cleanA == cleanB:
		// Same entity under possessive or title decoration; the
		// first-seen form stays.
		return a
	case cleanA == names.ToSingular(cleanB):
		return b
	case cleanB == names.ToSingular(cleanA):
		return a
	case len(cleanA) >= len(cleanB):
		return a
	default:
		return b
	}
}
