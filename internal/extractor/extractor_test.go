package extractor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ashrobertsdragon/lorebinder/internal/model"
)

type mockLLM struct {
	response string
	err      error

	lastSystem string
	lastPrompt string
	calls      int
}

func (m *mockLLM) Generate(_ context.Context, system, prompt string, _ int) (string, error) {
	m.calls++
	m.lastSystem = system
	m.lastPrompt = prompt
	return m.response, m.err
}

func TestExtractStoresRawResponse(t *testing.T) {
	llm := &mockLLM{response: "Characters:\nEsgeril\nSettings:\nCafeteria (interior)"}
	ex := New(llm, "test-model", nil)

	block, err := ex.Extract(context.Background(), model.Chapter{Index: 3, Body: "Esgeril ate lunch."})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if block.ChapterIndex != 3 {
		t.Errorf("ChapterIndex = %d, want 3", block.ChapterIndex)
	}
	if block.Text != llm.response {
		t.Errorf("Text = %q, want raw response", block.Text)
	}
	if block.Model != "test-model" {
		t.Errorf("Model = %q", block.Model)
	}
	if block.ExtractedAt == "" {
		t.Error("ExtractedAt not set")
	}
	if !strings.HasPrefix(llm.lastPrompt, "Text: ") {
		t.Errorf("prompt = %q, want Text: prefix", llm.lastPrompt)
	}
}

func TestExtractPropagatesLLMError(t *testing.T) {
	llm := &mockLLM{err: ErrLLMFailed}
	ex := New(llm, "test-model", nil)

	_, err := ex.Extract(context.Background(), model.Chapter{Index: 1, Body: "text"})
	if !errors.Is(err, ErrLLMFailed) {
		t.Errorf("err = %v, want ErrLLMFailed", err)
	}
}

func TestRoleScriptCustomCategories(t *testing.T) {
	llm := &mockLLM{response: "ok"}
	ex := New(llm, "test-model", []string{"Factions", "Religions"})

	if _, err := ex.Extract(context.Background(), model.Chapter{Index: 1, Body: "text"}); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	for _, want := range []string{
		"additional categories: Factions, Religions",
		"Factions:\nFactions1",
		"Religions:\nReligions1",
	} {
		if !strings.Contains(llm.lastSystem, want) {
			t.Errorf("role script missing %q", want)
		}
	}
}

func TestRoleScriptBaseSections(t *testing.T) {
	script := buildRoleScript(nil)
	for _, want := range []string{"Characters:", "Settings:", "None found", "first person"} {
		if !strings.Contains(script, want) {
			t.Errorf("role script missing %q", want)
		}
	}
}

func TestExtractHonorsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	llm := &mockLLM{response: "ok"}
	ex := New(RateLimited(llm, NewRateLimiter(1)), "test-model", nil)

	// First token is available immediately; the second call must block
	// and then fail because the context is already canceled.
	if _, err := ex.Extract(context.Background(), model.Chapter{Index: 1, Body: "a"}); err != nil {
		t.Fatalf("first Extract: %v", err)
	}
	if _, err := ex.Extract(ctx, model.Chapter{Index: 2, Body: "b"}); err == nil {
		t.Error("expected error from canceled context")
	}
}
