package analyzer

import (
	"encoding/json"

	"github.com/ashrobertsdragon/lorebinder/internal/model"
)

// Token budgets per listed name when sizing a batch. JSON output for a
// character runs longer than for a setting or a custom category entry.
const (
	tokensPerCharacter = 200
	tokensPerSetting   = 150
	tokensPerOther     = 100

	// absoluteMaxTokens caps a single response; categories that would
	// overflow it are split into a separate request.
	absoluteMaxTokens = 4096
)

var characterAttributes = []string{
	"Appearance", "Personality", "Mood", "Relationships with other characters",
}

var settingAttributes = []string{
	"Appearance", "Relative location", "Familiarity for main character",
}

// RoleScript is one batched analysis request: the system message and
// the response budget sent as the call's max_tokens.
type RoleScript struct {
	System    string
	MaxTokens int
}

// BuildRoleScripts sizes and batches the analysis requests for one
// chapter's categorized names. Categories are packed greedily in
// sorted order until the token cap would be exceeded, then a new
// script starts. characterTraits extends the built-in character
// attribute schema.
func BuildRoleScripts(names model.CategorizedNames, characterTraits []string) []RoleScript {
	var scripts []RoleScript
	var batch []string
	current := 0

	flush := func() {
		if len(batch) > 0 {
			scripts = append(scripts, createRoleScript(names, batch, current, characterTraits))
			batch = nil
			current = 0
		}
	}

	for _, cat := range model.SortedKeys(names) {
		if len(names[cat]) == 0 {
			continue
		}
		tokens := len(names[cat]) * tokensPerName(cat)
		if tokens > absoluteMaxTokens {
			tokens = absoluteMaxTokens
		}
		if current+tokens > absoluteMaxTokens {
			flush()
		}
		batch = append(batch, cat)
		current += tokens
	}
	flush()
	return scripts
}

func tokensPerName(category string) int {
	switch category {
	case "Characters":
		return tokensPerCharacter
	case "Settings":
		return tokensPerSetting
	default:
		return tokensPerOther
	}
}

// createRoleScript renders the instructions plus the JSON schema the
// model must fill in for the batch's categories.
func createRoleScript(names model.CategorizedNames, categories []string, maxTokens int, characterTraits []string) RoleScript {
	instructions := "You are a developmental editor helping create a story bible.\n" +
		"Be detailed but concise, using noun phrases instead of sentences."
	for _, cat := range categories {
		switch cat {
		case "Characters":
			instructions += "\nFor each character in the chapter, describe their appearance, personality, mood, and relationships with other characters."
		case "Settings":
			instructions += "\nFor each setting in the chapter, note how the setting is described, where it is in relation to other locations, and whether the characters appear to be familiar or unfamiliar with it."
		default:
			instructions += "\nProvide descriptions of " + cat + " without referencing specific characters or plot points."
		}
	}
	instructions += "\nIf you cannot find any mention of an attribute in the text, please respond with \"None found\"." +
		"\nYou will format this information using the following JSON schema where \"Description\" is replaced with the actual information:\n"

	schema := map[string]any{}
	for _, cat := range categories {
		entries := map[string]any{}
		for _, name := range names[cat] {
			switch cat {
			case "Characters":
				entries[name] = attributeStub(append(append([]string{}, characterAttributes...), characterTraits...))
			case "Settings":
				entries[name] = attributeStub(settingAttributes)
			default:
				entries[name] = "Description"
			}
		}
		schema[cat] = entries
	}
	// Map keys marshal in sorted order, so the schema is stable.
	encoded, _ := json.Marshal(schema)

	return RoleScript{
		System:    instructions + string(encoded),
		MaxTokens: maxTokens,
	}
}

func attributeStub(attributes []string) map[string]string {
	stub := make(map[string]string, len(attributes))
	for _, attr := range attributes {
		stub[attr] = "Description"
	}
	return stub
}
