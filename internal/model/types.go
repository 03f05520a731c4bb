package model

import (
	"sort"
	"strconv"
)

// CategorizedNames maps a category ("Characters", "Settings", ...) to the
// ordered list of canonical names found in one chapter. Names are unique
// within a category and keep first-seen order.
type CategorizedNames map[string][]string

// ChapterAttributes is one chapter's analysis result:
// category -> name -> attributes. The attribute value is either a
// map[string]any of attribute -> leaf or, for a malformed AI response,
// something else that the merge stages repair or drop. JSON decoding of
// stored analysis rows produces exactly this shape.
type ChapterAttributes map[string]map[string]any

// Lorebinder is the cross-chapter knowledge base for one book:
// category -> name -> attribute -> chapter id -> value, with the inner
// levels held as map[string]any so merge stages can walk arbitrary
// depth. It is built once per book by the aggregator and read by
// everything downstream.
type Lorebinder map[string]map[string]any

// SummaryKey is the reserved attribute under which the external
// summarizer writes its per-name summary. It is never a chapter id.
const SummaryKey = "summary"

// Chapter is a single chapter of the ingested book.
type Chapter struct {
	Index int    `json:"index"`
	Title string `json:"title"`
	Body  string `json:"body,omitempty"`
}

// RawEntityBlock is one chapter's raw NER response text.
type RawEntityBlock struct {
	ChapterIndex int    `json:"chapter_index"`
	Text         string `json:"text"`
	Model        string `json:"model"`
	ExtractedAt  string `json:"extracted_at"`
}

// CoerceLeaf normalizes a leaf to a string or []string. JSON decoding
// produces []any for lists; single-element lists collapse to a string.
// The second return is false if v cannot be coerced.
func CoerceLeaf(v any) (any, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case []string:
		if len(val) == 1 {
			return val[0], true
		}
		return val, true
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		if len(out) == 1 {
			return out[0], true
		}
		return out, true
	default:
		return nil, false
	}
}

// SortedKeys returns the keys of m in ascending order. Keys that parse
// as integers (chapter ids) sort numerically before any non-numeric key.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ni, errI := strconv.Atoi(keys[i])
		nj, errJ := strconv.Atoi(keys[j])
		switch {
		case errI == nil && errJ == nil:
			return ni < nj
		case errI == nil:
			return true
		case errJ == nil:
			return false
		default:
			return keys[i] < keys[j]
		}
	})
	return keys
}
