// Package analyzer asks a language model to describe each chapter's
// known entities and parses the JSON it returns. Responses are
// best-effort: a chapter whose response cannot be parsed is logged and
// skipped, never fatal for the book.
package analyzer

import (
	"context"
	"fmt"

	"github.com/ashrobertsdragon/lorebinder/internal/model"
)

// LLM generates a completion for a system message and user prompt.
// maxTokens caps the response for one call, zero meaning the
// configured default. Satisfied by the extractor's OpenAI client and
// its rate-limited wrapper.
type LLM interface {
	Generate(ctx context.Context, system, prompt string, maxTokens int) (string, error)
}

// Analyzer runs the per-chapter attribute analysis calls.
type Analyzer struct {
	llm             LLM
	characterTraits []string

	// Logf, when set, receives a line per skipped batch. Nil means
	// silent.
	Logf func(format string, args ...any)
}

// New creates an Analyzer. characterTraits extends the built-in
// character attribute schema.
func New(llm LLM, characterTraits []string) *Analyzer {
	return &Analyzer{llm: llm, characterTraits: characterTraits}
}

// Analyze requests attribute descriptions for one chapter's names and
// combines the batched responses into a single attribute map. A batch
// whose response cannot be parsed is logged and dropped; only the
// model call itself failing is an error.
func (a *Analyzer) Analyze(ctx context.Context, chapter model.Chapter, names model.CategorizedNames) (model.ChapterAttributes, error) {
	combined := model.ChapterAttributes{}
	for _, script := range BuildRoleScripts(names, a.characterTraits) {
		response, err := a.llm.Generate(ctx, script.System, "Text: "+chapter.Body, script.MaxTokens)
		if err != nil {
			return nil, fmt.Errorf("analyzing chapter %d: %w", chapter.Index, err)
		}
		parsed, err := ParseResponse(response)
		if err != nil {
			a.logf("chapter %d: skipping unparseable batch: %v", chapter.Index, err)
			continue
		}
		for cat, entries := range parsed {
			existing, ok := combined[cat]
			if !ok {
				combined[cat] = entries
				continue
			}
			for name, attrs := range entries {
				existing[name] = attrs
			}
		}
	}
	return combined, nil
}

func (a *Analyzer) logf(format string, args ...any) {
	if a.Logf != nil {
		a.Logf(format, args...)
	}
}
