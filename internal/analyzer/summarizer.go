package analyzer

import (
	"context"
	"fmt"
	"strings"

	"github.com/ashrobertsdragon/lorebinder/internal/model"
	"github.com/ashrobertsdragon/lorebinder/internal/prompter"
)

const summarySystem = "You are an expert summarizer. Please summarize the description over the course of the story for the following:"

// Summarize generates a summary for every lorebinder entry with a
// prompt and writes it back under the reserved summary key. Entries
// whose call fails or comes back empty are logged and skipped; the
// count of summaries actually written is returned.
func (a *Analyzer) Summarize(ctx context.Context, binder model.Lorebinder) (int, error) {
	written := 0
	for prompt := range prompter.Build(binder) {
		response, err := a.llm.Generate(ctx, summarySystem, prompt.Text, 0)
		if err != nil {
			if ctx.Err() != nil {
				return written, fmt.Errorf("summarizing %s/%s: %w", prompt.Category, prompt.Name, err)
			}
			a.logf("summarizing %s/%s failed: %v", prompt.Category, prompt.Name, err)
			continue
		}
		response = strings.TrimSpace(response)
		if response == "" {
			a.logf("summarizing %s/%s returned nothing", prompt.Category, prompt.Name)
			continue
		}
		attrs, ok := binder[prompt.Category][prompt.Name].(map[string]any)
		if !ok {
			continue
		}
		attrs[model.SummaryKey] = response
		written++
	}
	return written, nil
}
