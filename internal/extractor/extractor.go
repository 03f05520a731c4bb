// Package extractor asks a language model to list the named entities
// in each chapter. The response is stored raw; the sorter turns it
// into categorized names later, so a bad response never blocks the
// pipeline here.
package extractor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ashrobertsdragon/lorebinder/internal/model"
)

// Extractor runs the per-chapter entity-listing calls.
type Extractor struct {
	llm        LLM
	modelName  string
	roleScript string
}

// New creates an Extractor. customCategories extends the built-in
// Characters and Settings sections of the request. Wrap llm with
// RateLimited to throttle the calls.
func New(llm LLM, modelName string, customCategories []string) *Extractor {
	return &Extractor{
		llm:        llm,
		modelName:  modelName,
		roleScript: buildRoleScript(customCategories),
	}
}

// Extract sends one chapter's text to the model and returns the raw
// response block for storage.
func (e *Extractor) Extract(ctx context.Context, chapter model.Chapter) (model.RawEntityBlock, error) {
	text, err := e.llm.Generate(ctx, e.roleScript, "Text: "+chapter.Body, 0)
	if err != nil {
		return model.RawEntityBlock{}, fmt.Errorf("extracting chapter %d: %w", chapter.Index, err)
	}

	return model.RawEntityBlock{
		ChapterIndex: chapter.Index,
		Text:         text,
		Model:        e.modelName,
		ExtractedAt:  time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// buildRoleScript assembles the entity-listing system message. The
// category sections at the end show the model the expected line
// format, one name per line under a header.
func buildRoleScript(customCategories []string) string {
	var customClause string
	var customSections []string
	for _, cat := range customCategories {
		cat = strings.TrimSpace(cat)
		if cat == "" {
			continue
		}
		customSections = append(customSections,
			fmt.Sprintf("%s:\n%s1\n%s2\n%s3", cat, cat, cat, cat))
	}
	if len(customSections) > 0 {
		customClause = " and the following additional categories: " +
			strings.Join(customCategories, ", ")
	}

	script := `You are a script supervisor compiling a list of characters in each scene. For the following selection, determine who are the characters, giving only their name and no other information. Please also determine the settings, both interior (e.g. ship's bridge, classroom, bar) and exterior (e.g. moon, Kastea, Hell's Kitchen)` + customClause + `.
If the scene is written in the first person, identify the narrator by their name. Ignore slash characters.
Be as brief as possible, using one or two words for each entry, and avoid descriptions. For example, 'On board the Resolve' should be 'Resolve'. 'Debris field of leftover asteroid pieces' should be 'Asteroid debris field'. 'Unmarked section of wall (potentially a hidden door)' should be 'unmarked wall section'
If you cannot find any mention of a specific attribute in the text, please respond with 'None found' on the same line as the attribute name. If you are unsure of a setting or no setting is shown in the text, please respond with 'None found' on the same line as the word 'Setting'
Please format the output exactly like this:
Characters:
character1
character2
character3
Settings:
Setting1 (interior)
Setting2 (exterior)`
	if len(customSections) > 0 {
		script += "\n" + strings.Join(customSections, "\n")
	}
	return script
}
