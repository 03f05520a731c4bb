// Package prompter selects lorebinder entries with enough chapter
// coverage and flattens their attributes into summarization prompts.
package prompter

import (
	"iter"
	"strings"

	"github.com/ashrobertsdragon/lorebinder/internal/model"
)

// MinChapters is the coverage an entry must exceed to be worth
// summarizing. Entries seen in this many chapters or fewer are skipped.
const MinChapters = 3

// Prompt is one summarization request for a single lorebinder entry.
type Prompt struct {
	Category string
	Name     string
	Text     string
}

// Build returns a lazy sequence of prompts over the lorebinder, in
// sorted category and name order. The sequence is recomputed on each
// traversal, so a binder updated between traversals yields fresh
// prompts. The binder itself is never modified.
func Build(binder model.Lorebinder) iter.Seq[Prompt] {
	return func(yield func(Prompt) bool) {
		for _, cat := range model.SortedKeys(binder) {
			for _, name := range model.SortedKeys(binder[cat]) {
				attrs, ok := binder[cat][name].(map[string]any)
				if !ok {
					continue
				}
				if coverage(attrs) <= MinChapters {
					continue
				}
				text := name + ": " + flatten(attrs)
				if !yield(Prompt{Category: cat, Name: name, Text: text}) {
					return
				}
			}
		}
	}
}

// coverage counts the distinct chapters an entry has data for, across
// all of its attributes. The reserved summary key is not chapter data.
func coverage(attrs map[string]any) int {
	chapters := map[string]struct{}{}
	for attr, value := range attrs {
		if attr == model.SummaryKey {
			continue
		}
		byChapter, ok := value.(map[string]any)
		if !ok {
			continue
		}
		for id := range byChapter {
			chapters[id] = struct{}{}
		}
	}
	return len(chapters)
}

// flatten renders an entry's attributes as one description string:
// trait tokens joined by commas inside an attribute, attributes joined
// by semicolons. Tokens append in chapter order without deduplication;
// repetition across chapters is signal for the summarizer.
func flatten(attrs map[string]any) string {
	var parts []string
	for _, attr := range model.SortedKeys(attrs) {
		if attr == model.SummaryKey {
			continue
		}
		byChapter, ok := attrs[attr].(map[string]any)
		if !ok {
			continue
		}
		var tokens []string
		for _, id := range model.SortedKeys(byChapter) {
			tokens = append(tokens, leafTokens(byChapter[id])...)
		}
		if len(tokens) == 0 {
			continue
		}
		parts = append(parts, strings.Join(tokens, ", "))
	}
	return strings.Join(parts, "; ")
}

// leafTokens splits a leaf value into individual trait tokens. String
// values may themselves be comma or semicolon delimited lists.
func leafTokens(v any) []string {
	var raw []string
	switch val := v.(type) {
	case string:
		raw = []string{val}
	case []string:
		raw = val
	case []any:
		for _, item := range val {
			if s, ok := item.(string); ok {
				raw = append(raw, s)
			}
		}
	default:
		return nil
	}
	var tokens []string
	for _, item := range raw {
		item = strings.ReplaceAll(item, ";", ",")
		for _, token := range strings.Split(item, ",") {
			if token = strings.TrimSpace(token); token != "" {
				tokens = append(tokens, token)
			}
		}
	}
	return tokens
}
