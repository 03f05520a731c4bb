// Package sorter turns one chapter's raw NER response text into a
// categorized set of canonical entity names. The input is best-effort
// line-oriented text from a language model: headers may be misspelled
// or glued to their values, names may arrive as inline comma lists, and
// the first-person narrator may appear only as a generic placeholder.
// Sorting never fails; malformed text is repaired or dropped.
package sorter

import (
	"regexp"
	"strings"

	"github.com/ashrobertsdragon/lorebinder/internal/model"
	"github.com/ashrobertsdragon/lorebinder/internal/names"
)

const (
	categoryCharacters = "Characters"
	categorySettings   = "Settings"
)

// Sorter categorizes raw entity-listing text for a single book.
type Sorter struct {
	narrator string
	rules    Rules
}

// New creates a Sorter. narrator may be empty for third-person books,
// in which case narrator-alias lines are dropped instead of replaced.
func New(narrator string, rules Rules) *Sorter {
	return &Sorter{narrator: strings.TrimSpace(narrator), rules: rules}
}

// Sort parses one chapter's raw entity block into category -> ordered
// canonical names. Empty or all-blank input yields an empty map; any
// other input yields at least the "Characters" and "Settings" keys.
func (s *Sorter) Sort(block string) model.CategorizedNames {
	lines := strings.Split(block, "\n")

	catOrder := []string{}
	catValues := map[string][]string{}
	current := ""

	addCategory := func(name string) {
		if _, ok := catValues[name]; !ok {
			catOrder = append(catOrder, name)
			catValues[name] = []string{}
		}
		current = name
	}

	i := 0
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		line = listFormattingRe.ReplaceAllString(line, "")
		line = interiorExteriorRe.ReplaceAllStringFunc(line, strings.ToLower)

		// "interior: cafeteria, hallway" lists several settings on one
		// line; re-tag each as "cafeteria (interior)" and reprocess.
		if rest, ok := locationPrefix(line); ok {
			lines = splice(lines, i, rest)
			continue
		}

		line = invertedSettingRe.ReplaceAllString(line, "$2 ($1)")

		if parts, ok := splitInline(line); ok {
			lines = splice(lines, i, parts)
			continue
		}
		if parts, ok := repairMissingNewlines(line); ok {
			lines = splice(lines, i, parts)
			continue
		}

		line = leadingColonRe.ReplaceAllString(line, "")
		line = strings.TrimSpace(line)
		if line == "" {
			i++
			continue
		}

		if strings.Count(line, "(") != strings.Count(line, ")") {
			line = strings.NewReplacer("(", "", ")", "").Replace(line)
		}

		if alias, ok := s.rules.CategoryAliases[strings.ToLower(line)]; ok {
			line = alias
		}

		// Narrator placeholders outrank the junk filter: "main
		// character" contains a filler word but names a real entity.
		isNarrator := !strings.HasSuffix(line, ":") && s.rules.isNarratorAlias(line)
		if !isNarrator && s.rules.isJunk(line) {
			i++
			continue
		}

		if strings.HasSuffix(line, ":") {
			addCategory(names.TitleCase(strings.TrimSuffix(line, ":")))
			i++
			continue
		}

		if isNarrator {
			if s.narrator == "" {
				i++
				continue
			}
			line = s.narrator
		}

		line = stripInfoParen(line)
		if line == "" {
			i++
			continue
		}

		if current == "" {
			addCategory(categoryCharacters)
		}
		catValues[current] = s.addName(catValues[current], line)
		i++
	}

	if len(catOrder) == 0 {
		return model.CategorizedNames{}
	}

	mergeSingularCategories(catOrder, catValues)

	result := model.CategorizedNames{
		categoryCharacters: {},
		categorySettings:   {},
	}
	for cat, values := range catValues {
		result[cat] = values
	}
	return result
}

// addName merges a candidate into the category's accumulated names.
// Exact duplicates collapse; a candidate that is plausibly the same
// entity as an existing name resolves to the canonical form in the
// existing slot, preserving first-seen order.
func (s *Sorter) addName(existing []string, candidate string) []string {
	for idx, name := range existing {
		if strings.EqualFold(name, candidate) {
			return existing
		}
		if s.rules.plausiblySame(name, candidate) {
			existing[idx] = s.rules.preferCanonical(name, candidate)
			return existing
		}
	}
	return append(existing, candidate)
}

// locationPrefix splits "interior: a, b" into re-tagged setting lines.
func locationPrefix(line string) ([]string, bool) {
	var tag string
	switch {
	case strings.HasPrefix(line, "interior:"):
		tag = "(interior)"
	case strings.HasPrefix(line, "exterior:"):
		tag = "(exterior)"
	default:
		return nil, false
	}
	_, places, _ := strings.Cut(line, ":")
	var out []string
	for _, place := range strings.Split(places, ",") {
		place = strings.TrimSpace(place)
		if place != "" {
			out = append(out, place+" "+tag)
		}
	}
	if out == nil {
		out = []string{""}
	}
	return out, true
}

// splitInline breaks a line listing several names separated by commas
// or semicolons into one candidate per line.
func splitInline(line string) ([]string, bool) {
	normalized := strings.ReplaceAll(line, "; ", ", ")
	if !strings.Contains(normalized, ", ") {
		return nil, false
	}
	return strings.Split(normalized, ", "), true
}

// repairMissingNewlines splits run-on lines where the model dropped a
// line break around a category header or between tagged names.
func repairMissingNewlines(line string) ([]string, bool) {
	repairs := []struct {
		re   *regexp.Regexp
		repl string
	}{
		{newlineBeforeHeaderRe, "$1\n$2"},
		{newlineBetweenNamesRe, "$1\n$2"},
		{newlineAfterHeaderRe, "$1:\n$2"},
	}
	for _, r := range repairs {
		if repaired := r.re.ReplaceAllString(line, r.repl); repaired != line {
			return strings.Split(repaired, "\n"), true
		}
	}
	return nil, false
}

// splice replaces lines[i] with the replacement lines, keeping the
// current index pointed at the first replacement.
func splice(lines []string, i int, replacement []string) []string {
	out := make([]string, 0, len(lines)+len(replacement)-1)
	out = append(out, lines[:i]...)
	out = append(out, replacement...)
	out = append(out, lines[i+1:]...)
	return out
}

// stripInfoParen removes a trailing parenthetical unless it is an
// interior/exterior location tag: "John (the baker)" -> "John".
func stripInfoParen(line string) string {
	match := trailingParenRe.FindStringSubmatch(line)
	if match == nil {
		return line
	}
	tag := strings.ToLower(strings.TrimSpace(match[1]))
	if tag == "interior" || tag == "exterior" {
		return line
	}
	return strings.TrimSpace(strings.TrimSuffix(line, match[0]))
}

// mergeSingularCategories folds a singular category into its plural
// twin ("Setting" into "Settings") when both were detected.
func mergeSingularCategories(order []string, values map[string][]string) {
	for _, cat := range order {
		if !strings.HasSuffix(cat, "s") {
			continue
		}
		singular := strings.TrimSuffix(cat, "s")
		if extra, ok := values[singular]; ok {
			values[cat] = append(values[cat], extra...)
			delete(values, singular)
		}
	}
}
