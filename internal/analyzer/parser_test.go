package analyzer

import (
	"testing"
)

func TestParseResponse_Direct(t *testing.T) {
	input := `{"Characters":{"Esgeril":{"Appearance":"tall","Mood":"calm"}}}`

	result, err := ParseResponse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	attrs, ok := result["Characters"]["Esgeril"].(map[string]any)
	if !ok {
		t.Fatalf("Esgeril missing: %#v", result)
	}
	if attrs["Appearance"] != "tall" {
		t.Errorf("Appearance = %v, want tall", attrs["Appearance"])
	}
}

func TestParseResponse_WithPreamble(t *testing.T) {
	input := `Here is the analysis:
{
  "Settings": {
    "Cafeteria (interior)": {"Appearance": "crowded"}
  }
}
Some trailing text.`

	result, err := ParseResponse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := result["Settings"]["Cafeteria (interior)"]; !ok {
		t.Fatalf("setting missing: %#v", result)
	}
}

func TestParseResponse_CodeBlock(t *testing.T) {
	input := "```json\n{\"Characters\":{}}\n```"

	result, err := ParseResponse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result["Characters"]) != 0 {
		t.Fatalf("expected empty Characters, got %#v", result)
	}
}

func TestParseResponse_BareCodeBlock(t *testing.T) {
	input := "```\n{\"Factions\":{\"The Guild\":\"secretive\"}}\n```"

	result, err := ParseResponse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result["Factions"]["The Guild"] != "secretive" {
		t.Errorf("Factions = %#v", result["Factions"])
	}
}

func TestParseResponse_Invalid(t *testing.T) {
	if _, err := ParseResponse("not json at all"); err == nil {
		t.Fatal("expected error for invalid input")
	}
}
