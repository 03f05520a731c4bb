// Package names holds the English string-surgery heuristics shared by
// the name sorting and merging stages: honorific stripping, possessive
// stripping, singular/plural folding and display casing. The tables are
// plain values so callers can substitute their own.
package names

import (
	"regexp"
	"strings"
)

var (
	possessiveRe    = regexp.MustCompile(`['\x{2019}]s$`)
	trailingPunctRe = regexp.MustCompile(`[\s.,;:!?'"]+$`)
)

// TitleSet returns the honorifics and ranks recognized in front of a
// personal name.
func TitleSet() map[string]struct{} {
	return Set(
		"princess", "prince", "king", "queen", "count", "duke",
		"duchess", "baron", "baroness", "countess", "lord", "lady",
		"earl", "marquis", "ensign", "private", "sir", "cadet",
		"sergeant", "lieutenant", "leftenant", "lt", "pfc", "cap",
		"sarge", "mjr", "col", "gen", "captain", "major", "colonel",
		"general", "admiral", "ambassador", "commander", "corporal",
		"airman", "seaman", "commodore", "mr", "mrs", "ms", "miss",
		"missus", "madam", "mister", "ma'am", "aunt", "uncle",
		"cousin", "the",
	)
}

// ArticleSet returns the leading articles ignored when comparing name
// keys across chapters.
func ArticleSet() map[string]struct{} {
	return Set("the", "a", "an")
}

// Set builds a lookup set from words.
func Set(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// StripLeading removes one leading token of name if it is in words,
// unless the whole name is itself such a token.
func StripLeading(name string, words map[string]struct{}) string {
	fields := strings.Fields(name)
	if len(fields) < 2 {
		return name
	}
	if _, whole := words[strings.ToLower(name)]; whole {
		return name
	}
	if _, ok := words[strings.ToLower(fields[0])]; ok {
		return strings.Join(fields[1:], " ")
	}
	return name
}

// StripPossessive removes a trailing possessive and trailing
// punctuation: "Esgeril's" -> "Esgeril".
func StripPossessive(name string) string {
	name = possessiveRe.ReplaceAllString(name, "")
	return trailingPunctRe.ReplaceAllString(name, "")
}

// ToSingular converts an English plural to its singular form using
// common suffix rules, or returns the word unchanged.
func ToSingular(plural string) string {
	rules := []struct{ suffix, repl string }{
		{"ves", "f"},
		{"ies", "y"},
		{"sses", "ss"},
		{"oes", "o"},
		{"ses", "se"},
		{"hes", "h"},
		{"xes", "x"},
		{"zes", "ze"},
		{"i", "us"},
		{"a", "um"},
		{"en", "an"},
	}
	lower := strings.ToLower(plural)
	for _, rule := range rules {
		if strings.HasSuffix(lower, rule.suffix) && len(lower) > len(rule.suffix)+1 {
			return plural[:len(plural)-len(rule.suffix)] + rule.repl
		}
	}
	if strings.HasSuffix(lower, "s") && !strings.HasSuffix(lower, "ss") && len(lower) > 2 {
		return plural[:len(plural)-1]
	}
	return plural
}

// TitleCase uppercases the first letter of each word and lowercases
// the rest: "FACTIONS" -> "Factions".
func TitleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
