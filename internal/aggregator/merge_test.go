package aggregator

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/ashrobertsdragon/lorebinder/internal/model"
)

func chapterAttrs(cat, name string, attrs map[string]any) model.ChapterAttributes {
	return model.ChapterAttributes{cat: {name: attrs}}
}

func TestMergeNarratorScenario(t *testing.T) {
	m := New("John Doe", DefaultRules())
	chapters := map[string]model.ChapterAttributes{
		"1": chapterAttrs("Characters", "The Narrator", map[string]any{"Thoughts": "worried"}),
		"2": chapterAttrs("Characters", "The Narrator", map[string]any{"Thoughts": "relieved"}),
	}

	got, err := m.Merge(chapters)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}

	want := model.Lorebinder{
		"Characters": {
			"John Doe": map[string]any{
				"Thoughts": map[string]any{"1": "worried", "2": "relieved"},
			},
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Merge = %#v, want %#v", got, want)
	}
}

func TestMergeEmptyInput(t *testing.T) {
	m := New("Kalia", DefaultRules())
	got, err := m.Merge(nil)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Merge of no chapters = %#v, want empty", got)
	}
}

func TestMergeStripsSentinels(t *testing.T) {
	m := New("", DefaultRules())
	chapters := map[string]model.ChapterAttributes{
		"1": chapterAttrs("Characters", "Esgeril", map[string]any{
			"Appearance": "None found",
			"Traits":     []any{"kind", "None found", "stern"},
			"Mood":       []any{"none found"},
		}),
	}

	got, err := m.Merge(chapters)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}

	attrs := got["Characters"]["Esgeril"].(map[string]any)
	if _, ok := attrs["Appearance"]; ok {
		t.Error("sentinel-only attribute survived")
	}
	if _, ok := attrs["Mood"]; ok {
		t.Error("attribute holding only sentinels survived")
	}
	want := []string{"kind", "stern"}
	if traits := attrs["Traits"].(map[string]any)["1"]; !reflect.DeepEqual(traits, want) {
		t.Errorf("Traits = %v, want %v", traits, want)
	}
	assertNoSentinel(t, got)
}

func assertNoSentinel(t *testing.T, v any) {
	t.Helper()
	switch val := v.(type) {
	case model.Lorebinder:
		for _, sub := range val {
			assertNoSentinel(t, sub)
		}
	case map[string]any:
		for _, sub := range val {
			assertNoSentinel(t, sub)
		}
	case string:
		if strings.Contains(strings.ToLower(val), "none found") {
			t.Errorf("sentinel leaked into output: %q", val)
		}
	case []string:
		for _, item := range val {
			assertNoSentinel(t, item)
		}
	}
}

func TestMergeDedupesNameVariants(t *testing.T) {
	m := New("", DefaultRules())
	chapters := map[string]model.ChapterAttributes{
		"1": chapterAttrs("Characters", "The Narrator", map[string]any{"Mood": "tense"}),
		"2": chapterAttrs("Characters", "Narrator", map[string]any{"Mood": "calm"}),
	}

	got, err := m.Merge(chapters)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}

	entries := got["Characters"]
	if len(entries) != 1 {
		t.Fatalf("Characters has %d entries, want 1: %#v", len(entries), entries)
	}
	attrs, ok := entries["The Narrator"].(map[string]any)
	if !ok {
		t.Fatalf("canonical key missing, got %#v", entries)
	}
	mood := attrs["Mood"].(map[string]any)
	if mood["1"] != "tense" || mood["2"] != "calm" {
		t.Errorf("Mood = %#v, want both chapters", mood)
	}
}

func TestMergeKeepsAliasesDistinctWithoutNarrator(t *testing.T) {
	m := New("", DefaultRules())
	chapters := map[string]model.ChapterAttributes{
		"1": {"Characters": {
			"The Narrator":   map[string]any{"Mood": "tense"},
			"Main Character": map[string]any{"Mood": "calm"},
		}},
	}

	got, err := m.Merge(chapters)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if len(got["Characters"]) != 2 {
		t.Errorf("Characters = %#v, want two distinct alias entries", got["Characters"])
	}
}

func TestMergeNarratorSubstitutionCombinesAliases(t *testing.T) {
	m := New("Kalia", DefaultRules())
	chapters := map[string]model.ChapterAttributes{
		"1": {"Characters": {
			"The Narrator":   map[string]any{"Mood": "tense"},
			"Main Character": map[string]any{"Traits": "curious"},
		}},
	}

	got, err := m.Merge(chapters)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}

	entries := got["Characters"]
	if len(entries) != 1 {
		t.Fatalf("Characters = %#v, want a single combined entry", entries)
	}
	attrs, ok := entries["Kalia"].(map[string]any)
	if !ok {
		t.Fatalf("narrator entry missing, got %#v", entries)
	}
	if _, ok := attrs["Mood"]; !ok {
		t.Error("Mood from alias entry lost")
	}
	if _, ok := attrs["Traits"]; !ok {
		t.Error("Traits from alias entry lost")
	}
	for name := range entries {
		if m.aliasRe.MatchString(name) {
			t.Errorf("alias survived substitution: %q", name)
		}
	}
}

func TestMergeSubstitutesAliasInValues(t *testing.T) {
	m := New("Kalia", DefaultRules())
	chapters := map[string]model.ChapterAttributes{
		"1": chapterAttrs("Characters", "Esgeril", map[string]any{
			"Relationships": "friend of the narrator",
		}),
	}

	got, err := m.Merge(chapters)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	rel := got["Characters"]["Esgeril"].(map[string]any)["Relationships"].(map[string]any)
	if rel["1"] != "friend of Kalia" {
		t.Errorf("Relationships = %q, want alias replaced in value", rel["1"])
	}
}

func TestMergeShapeMismatch(t *testing.T) {
	m := New("", DefaultRules())
	chapters := map[string]model.ChapterAttributes{
		"1": {"Characters": {
			"Narrator":     map[string]any{"Traits": map[string]any{"inner": "kind"}},
			"The Narrator": map[string]any{"Traits": "kind"},
		}},
	}

	if _, err := m.Merge(chapters); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Merge error = %v, want ErrShapeMismatch", err)
	}
}

func TestMergeDropsInvalidLeaves(t *testing.T) {
	var logged []string
	m := New("", DefaultRules())
	m.Logf = func(format string, args ...any) {
		logged = append(logged, format)
	}
	chapters := map[string]model.ChapterAttributes{
		"1": chapterAttrs("Characters", "Esgeril", map[string]any{
			"Age":    float64(12),
			"Traits": []any{"kind"},
		}),
	}

	got, err := m.Merge(chapters)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	attrs := got["Characters"]["Esgeril"].(map[string]any)
	if _, ok := attrs["Age"]; ok {
		t.Error("non-string leaf survived")
	}
	if traits := attrs["Traits"].(map[string]any)["1"]; traits != "kind" {
		t.Errorf("single-item list = %#v, want collapsed to string", traits)
	}
	if len(logged) == 0 {
		t.Error("dropped leaf was not logged")
	}
}

func TestMergeIncrementalSupersetMatchesFullRun(t *testing.T) {
	m := New("Kalia", DefaultRules())
	full := map[string]model.ChapterAttributes{
		"1": chapterAttrs("Characters", "The Narrator", map[string]any{"Mood": "tense"}),
		"2": chapterAttrs("Characters", "Esgeril's", map[string]any{"Mood": "calm"}),
		"3": chapterAttrs("Settings", "Cafeteria (interior)", map[string]any{"Sounds": "clatter"}),
	}

	once, err := m.Merge(full)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	// A partial run earlier must not change what a superset run yields.
	if _, err := m.Merge(map[string]model.ChapterAttributes{"1": full["1"]}); err != nil {
		t.Fatalf("partial Merge: %v", err)
	}
	again, err := m.Merge(full)
	if err != nil {
		t.Fatalf("second Merge: %v", err)
	}
	if !reflect.DeepEqual(once, again) {
		t.Errorf("superset merge diverged:\n%#v\n%#v", once, again)
	}
}

func TestRefineIdempotent(t *testing.T) {
	m := New("", DefaultRules())
	chapters := map[string]model.ChapterAttributes{
		"1": {"Characters": {
			"The Narrator": map[string]any{"Mood": "tense"},
			"Esgeril":      map[string]any{"Traits": []any{"kind", "None found"}},
		}},
		"2": chapterAttrs("Characters", "Narrator", map[string]any{"Mood": "calm"}),
	}
	prepared := make(map[string]model.ChapterAttributes, len(chapters))
	for id, chapter := range chapters {
		prepared[id] = m.stripChapter(chapter)
	}

	once, err := m.refine(m.pivot(prepared))
	if err != nil {
		t.Fatalf("refine: %v", err)
	}
	twice, err := m.refine(once)
	if err != nil {
		t.Fatalf("second refine: %v", err)
	}
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("refine not idempotent:\n%#v\n%#v", once, twice)
	}
}

func TestMergeInputNotMutated(t *testing.T) {
	m := New("Kalia", DefaultRules())
	attrs := map[string]any{"Traits": []any{"kind", "None found"}}
	chapters := map[string]model.ChapterAttributes{
		"1": chapterAttrs("Characters", "The Narrator", attrs),
	}

	if _, err := m.Merge(chapters); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	want := []any{"kind", "None found"}
	if !reflect.DeepEqual(attrs["Traits"], want) {
		t.Errorf("input mutated: %#v", attrs["Traits"])
	}
}
