// Package aggregator merges per-chapter attribute analyses into the
// unified cross-chapter lorebinder. The merge runs as a fixed pipeline
// of stages over value snapshots; no stage mutates its input, so a
// caller holding the per-chapter maps never observes a half-merged
// structure.
package aggregator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ashrobertsdragon/lorebinder/internal/model"
	"github.com/ashrobertsdragon/lorebinder/internal/names"
)

// ErrShapeMismatch reports that two chapters disagree about the shape
// of the same attribute (one nested mapping, one plain value). That
// points at upstream structural inconsistency, so the merge call is
// aborted instead of guessing.
var ErrShapeMismatch = errors.New("mismatched attribute shapes")

// Rules holds the constant tables the merger compares and strips with.
type Rules struct {
	// Sentinel is the placeholder the analysis model emits when a
	// chapter held nothing for an attribute. Matched case-insensitively
	// on whole values.
	Sentinel string

	// NarratorAliases are the generic placeholder terms substituted
	// with the real narrator name in the final stage.
	NarratorAliases []string

	// Articles and Titles are stripped from the front of a name key
	// before near-duplicate comparison.
	Articles map[string]struct{}
	Titles   map[string]struct{}
}

// DefaultRules returns the production rule tables.
func DefaultRules() Rules {
	return Rules{
		Sentinel:        "None found",
		NarratorAliases: []string{"narrator", "protagonist", "main character"},
		Articles:        names.ArticleSet(),
		Titles:          names.TitleSet(),
	}
}

// Merger combines per-chapter attribute maps for one book.
type Merger struct {
	narrator string
	rules    Rules
	aliasRe  *regexp.Regexp

	// Logf, when set, receives a line per dropped or coerced malformed
	// entry. Nil means silent.
	Logf func(format string, args ...any)
}

// New creates a Merger. narrator may be empty for third-person books,
// in which case no alias substitution happens.
func New(narrator string, rules Rules) *Merger {
	return &Merger{
		narrator: strings.TrimSpace(narrator),
		rules:    rules,
		aliasRe:  compileAliasPattern(rules.NarratorAliases),
	}
}

// compileAliasPattern builds one regex matching any alias as a whole
// phrase, with an optional leading article, case-insensitively.
func compileAliasPattern(aliases []string) *regexp.Regexp {
	if len(aliases) == 0 {
		return nil
	}
	quoted := make([]string, len(aliases))
	for i, alias := range aliases {
		quoted[i] = regexp.QuoteMeta(alias)
	}
	return regexp.MustCompile(`(?i)\b(?:the\s+)?(?:` + strings.Join(quoted, "|") + `)\b`)
}

// Merge builds the lorebinder from every chapter's attribute map,
// keyed by chapter id. The input maps are not modified. Merge is
// stable over growing chapter sets: merging chapters 1..n+1 gives the
// same result whether or not 1..n were merged before, in any chapter
// order.
func (m *Merger) Merge(chapters map[string]model.ChapterAttributes) (model.Lorebinder, error) {
	prepared := make(map[string]model.ChapterAttributes, len(chapters))
	for _, id := range model.SortedKeys(chapters) {
		stripped := m.stripChapter(chapters[id])
		deduped, err := m.dedupeNames(stripped)
		if err != nil {
			return nil, fmt.Errorf("chapter %s: %w", id, err)
		}
		prepared[id] = deduped
	}

	pivoted := m.pivot(prepared)

	refined, err := m.refine(pivoted)
	if err != nil {
		return nil, err
	}

	normalized := m.normalizeLeaves(refined)

	final, err := m.substituteNarrator(normalized)
	if err != nil {
		return nil, err
	}
	return final, nil
}

// stripChapter returns a deep copy of one chapter with sentinel values
// removed from every category.
func (m *Merger) stripChapter(chapter model.ChapterAttributes) model.ChapterAttributes {
	out := make(model.ChapterAttributes, len(chapter))
	for cat, entries := range chapter {
		if stripped := m.stripValues(entries); len(stripped) > 0 {
			out[cat] = stripped
		}
	}
	return out
}

// stripValues returns a deep copy of a nested mapping with every
// sentinel value removed. Lists lose matching items; sub-maps and
// lists that end up empty are dropped entirely.
func (m *Merger) stripValues(entries map[string]any) map[string]any {
	out := make(map[string]any, len(entries))
	for key, value := range entries {
		switch val := value.(type) {
		case map[string]any:
			if sub := m.stripValues(val); len(sub) > 0 {
				out[key] = sub
			}
		case string:
			if !m.isSentinel(val) {
				out[key] = val
			}
		case []string:
			var kept []string
			for _, item := range val {
				if !m.isSentinel(item) {
					kept = append(kept, item)
				}
			}
			if len(kept) > 0 {
				out[key] = kept
			}
		case []any:
			var kept []any
			for _, item := range val {
				if s, ok := item.(string); !ok || !m.isSentinel(s) {
					kept = append(kept, item)
				}
			}
			if len(kept) > 0 {
				out[key] = kept
			}
		default:
			out[key] = value
		}
	}
	return out
}

func (m *Merger) isSentinel(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), m.rules.Sentinel)
}

// dedupeNames applies name-key deduplication inside each category of
// one chapter (or of the pivoted structure, which has the same outer
// shape).
func (m *Merger) dedupeNames(chapter model.ChapterAttributes) (model.ChapterAttributes, error) {
	out := make(model.ChapterAttributes, len(chapter))
	for _, cat := range model.SortedKeys(chapter) {
		deduped, err := m.dedupeKeys(chapter[cat])
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", cat, err)
		}
		out[cat] = deduped
	}
	return out, nil
}

// dedupeKeys merges keys of entries that normalize to the same form.
// The surviving display key is chosen by prioritize, so the result
// does not depend on iteration order.
func (m *Merger) dedupeKeys(entries map[string]any) (map[string]any, error) {
	canonical := map[string]string{}
	out := make(map[string]any, len(entries))
	for _, key := range model.SortedKeys(entries) {
		norm := m.normalizeKey(key)
		existing, seen := canonical[norm]
		if !seen {
			canonical[norm] = key
			out[key] = deepCopy(entries[key])
			continue
		}
		winner := m.prioritize(existing, key)
		merged, err := mergeValues(out[existing], deepCopy(entries[key]))
		if err != nil {
			return nil, fmt.Errorf("merging %q into %q: %w", key, existing, err)
		}
		delete(out, existing)
		canonical[norm] = winner
		out[winner] = merged
	}
	return out, nil
}

// normalizeKey is the comparison form of a name or attribute key:
// lowercased, possessive stripped, leading article and honorific
// removed.
func (m *Merger) normalizeKey(key string) string {
	k := strings.ToLower(strings.TrimSpace(key))
	k = names.StripPossessive(k)
	k = names.StripLeading(k, m.rules.Articles)
	k = names.StripLeading(k, m.rules.Titles)
	return k
}

// prioritize picks the display key for two keys that normalized to the
// same form. The longer original wins; ties break lexicographically.
func (m *Merger) prioritize(a, b string) string {
	if len(a) != len(b) {
		if len(a) > len(b) {
			return a
		}
		return b
	}
	if a < b {
		return a
	}
	return b
}

// pivot transposes chapter -> category -> name -> attribute -> value
// into category -> name -> attribute -> chapter -> value.
func (m *Merger) pivot(chapters map[string]model.ChapterAttributes) model.Lorebinder {
	out := model.Lorebinder{}
	for _, id := range model.SortedKeys(chapters) {
		for _, cat := range model.SortedKeys(chapters[id]) {
			entries := chapters[id][cat]
			for _, name := range model.SortedKeys(entries) {
				attrs, ok := entries[name].(map[string]any)
				if !ok {
					m.logf("chapter %s: dropping %s/%s: attributes are %T, want a mapping",
						id, cat, name, entries[name])
					continue
				}
				byName, ok := out[cat]
				if !ok {
					byName = map[string]any{}
					out[cat] = byName
				}
				byAttr, ok := byName[name].(map[string]any)
				if !ok {
					byAttr = map[string]any{}
					byName[name] = byAttr
				}
				for _, attr := range model.SortedKeys(attrs) {
					byChapter, ok := byAttr[attr].(map[string]any)
					if !ok {
						byChapter = map[string]any{}
						byAttr[attr] = byChapter
					}
					byChapter[id] = deepCopy(attrs[attr])
				}
			}
		}
	}
	return out
}

// refine re-applies sentinel stripping and key deduplication to the
// pivoted structure. Pivoting can put two spellings of one name, seen
// in different chapters, side by side for the first time. refine is
// idempotent: refining its own output changes nothing.
func (m *Merger) refine(binder model.Lorebinder) (model.Lorebinder, error) {
	out := model.Lorebinder{}
	for _, cat := range model.SortedKeys(binder) {
		entries := m.stripValues(binder[cat])
		for _, name := range model.SortedKeys(entries) {
			attrs, ok := entries[name].(map[string]any)
			if !ok {
				continue
			}
			dedupedAttrs, err := m.dedupeKeys(attrs)
			if err != nil {
				return nil, fmt.Errorf("%s/%s: %w", cat, name, err)
			}
			entries[name] = dedupedAttrs
		}
		dedupedNames, err := m.dedupeKeys(entries)
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", cat, err)
		}
		if len(dedupedNames) > 0 {
			out[cat] = dedupedNames
		}
	}
	return out, nil
}

// normalizeLeaves coerces every chapter-level value to a string or
// list of strings. Values that cannot be coerced are logged and
// dropped; attribute and name nodes left empty disappear with them.
func (m *Merger) normalizeLeaves(binder model.Lorebinder) model.Lorebinder {
	out := model.Lorebinder{}
	for _, cat := range model.SortedKeys(binder) {
		outEntries := map[string]any{}
		for _, name := range model.SortedKeys(binder[cat]) {
			attrs, ok := binder[cat][name].(map[string]any)
			if !ok {
				m.logf("dropping %s/%s: attributes are %T, want a mapping",
					cat, name, binder[cat][name])
				continue
			}
			outAttrs := map[string]any{}
			for _, attr := range model.SortedKeys(attrs) {
				byChapter, ok := attrs[attr].(map[string]any)
				if !ok {
					// A summary written back by the external
					// summarizer is a plain string under a reserved
					// key, not chapter-indexed; keep it as-is.
					if leaf, ok := model.CoerceLeaf(attrs[attr]); ok {
						outAttrs[attr] = leaf
					} else {
						m.logf("dropping %s/%s/%s: %T is not chapter-indexed",
							cat, name, attr, attrs[attr])
					}
					continue
				}
				outChapters := map[string]any{}
				for _, id := range model.SortedKeys(byChapter) {
					leaf, ok := model.CoerceLeaf(byChapter[id])
					if !ok {
						m.logf("dropping %s/%s/%s chapter %s: %T is not a string or list",
							cat, name, attr, id, byChapter[id])
						continue
					}
					outChapters[id] = leaf
				}
				if len(outChapters) > 0 {
					outAttrs[attr] = outChapters
				}
			}
			if len(outAttrs) > 0 {
				outEntries[name] = outAttrs
			}
		}
		if len(outEntries) > 0 {
			out[cat] = outEntries
		}
	}
	return out
}

// substituteNarrator replaces narrator aliases, in name keys and in
// string values, with the real narrator name. Runs last so that alias
// entries have already been deduplicated into one node each; key
// collisions caused by the rename itself ("The Narrator" and "Main
// Character" both becoming the real name) are merged here.
func (m *Merger) substituteNarrator(binder model.Lorebinder) (model.Lorebinder, error) {
	if m.narrator == "" || m.aliasRe == nil {
		return binder, nil
	}
	out := model.Lorebinder{}
	for _, cat := range model.SortedKeys(binder) {
		outEntries := map[string]any{}
		for _, name := range model.SortedKeys(binder[cat]) {
			renamed := strings.TrimSpace(m.aliasRe.ReplaceAllString(name, m.narrator))
			value := m.substituteInValue(binder[cat][name])
			if existing, ok := outEntries[renamed]; ok {
				merged, err := mergeValues(existing, value)
				if err != nil {
					return nil, fmt.Errorf("%s/%s: %w", cat, renamed, err)
				}
				outEntries[renamed] = merged
				continue
			}
			outEntries[renamed] = value
		}
		out[cat] = outEntries
	}
	return out, nil
}

func (m *Merger) substituteInValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for key, sub := range val {
			out[key] = m.substituteInValue(sub)
		}
		return out
	case string:
		return m.aliasRe.ReplaceAllString(val, m.narrator)
	case []string:
		out := make([]string, len(val))
		for i, item := range val {
			out[i] = m.aliasRe.ReplaceAllString(item, m.narrator)
		}
		return out
	default:
		return v
	}
}

func (m *Merger) logf(format string, args ...any) {
	if m.Logf != nil {
		m.Logf(format, args...)
	}
}

// mergeValues combines two values for the same key. Mappings union
// recursively; leaves concatenate into a list, with case-insensitive
// duplicates collapsed and a single survivor staying a plain string.
// A mapping on one side and a leaf on the other is ErrShapeMismatch.
func mergeValues(a, b any) (any, error) {
	mapA, aIsMap := a.(map[string]any)
	mapB, bIsMap := b.(map[string]any)
	switch {
	case aIsMap && bIsMap:
		out := make(map[string]any, len(mapA)+len(mapB))
		for key, value := range mapA {
			out[key] = value
		}
		for _, key := range model.SortedKeys(mapB) {
			if existing, ok := out[key]; ok {
				merged, err := mergeValues(existing, mapB[key])
				if err != nil {
					return nil, fmt.Errorf("key %q: %w", key, err)
				}
				out[key] = merged
				continue
			}
			out[key] = mapB[key]
		}
		return out, nil
	case aIsMap != bIsMap:
		return nil, fmt.Errorf("%w: %T with %T", ErrShapeMismatch, a, b)
	}

	itemsA, ok := leafItems(a)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not a string or list", ErrShapeMismatch, a)
	}
	itemsB, ok := leafItems(b)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not a string or list", ErrShapeMismatch, b)
	}
	combined := make([]string, 0, len(itemsA)+len(itemsB))
	combined = append(combined, itemsA...)
	for _, item := range itemsB {
		if !containsFold(combined, item) {
			combined = append(combined, item)
		}
	}
	if len(combined) == 1 {
		return combined[0], nil
	}
	return combined, nil
}

func leafItems(v any) ([]string, bool) {
	leaf, ok := model.CoerceLeaf(v)
	if !ok {
		return nil, false
	}
	switch val := leaf.(type) {
	case string:
		return []string{val}, true
	case []string:
		return val, true
	}
	return nil, false
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}

// deepCopy clones a nested mapping or list value so stages never share
// mutable structure with their inputs.
func deepCopy(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for key, sub := range val {
			out[key] = deepCopy(sub)
		}
		return out
	case []string:
		out := make([]string, len(val))
		copy(out, val)
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = deepCopy(item)
		}
		return out
	default:
		return v
	}
}
