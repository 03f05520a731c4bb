package names

import "testing"

func TestToSingular(t *testing.T) {
	tests := []struct{ plural, want string }{
		{"wolves", "wolf"},
		{"cities", "city"},
		{"heroes", "hero"},
		{"witches", "witch"},
		{"boxes", "box"},
		{"settings", "setting"},
		{"glass", "glass"},
		{"cacti", "cactus"},
	}
	for _, tt := range tests {
		if got := ToSingular(tt.plural); got != tt.want {
			t.Errorf("ToSingular(%q) = %q, want %q", tt.plural, got, tt.want)
		}
	}
}

func TestStripLeading(t *testing.T) {
	titles := TitleSet()
	tests := []struct{ in, want string }{
		{"Colonel Authand", "Authand"},
		{"The Guild", "Guild"},
		{"Authand", "Authand"},
		{"The", "The"},
		{"king", "king"},
	}
	for _, tt := range tests {
		if got := StripLeading(tt.in, titles); got != tt.want {
			t.Errorf("StripLeading(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStripPossessive(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Esgeril's", "Esgeril"},
		{"Esgeril’s", "Esgeril"},
		{"Esgeril.", "Esgeril"},
		{"Esgeril", "Esgeril"},
	}
	for _, tt := range tests {
		if got := StripPossessive(tt.in); got != tt.want {
			t.Errorf("StripPossessive(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTitleCase(t *testing.T) {
	if got := TitleCase("FACTIONS"); got != "Factions" {
		t.Errorf("TitleCase = %q, want Factions", got)
	}
	if got := TitleCase("the  guild"); got != "The Guild" {
		t.Errorf("TitleCase = %q, want The Guild", got)
	}
}
