package genai

import (
	"strings"
	"testing"

	"storyreel/internal/script"
)

func TestImagePromptFoldsAssetDescriptions(t *testing.T) {
	assets := map[string]script.Asset{
		"a1": {ID: "a1", Name: "Old Keeper", Type: script.AssetCharacter, Description: "weathered man in a wool coat."},
		"a2": {ID: "a2", Name: "Cliff", Type: script.AssetLocation, Description: "black basalt cliff"},
	}
	shot := script.Shot{ShotType: "WIDE", VisualPrompt: "lighthouse at dawn", AssetIDs: []string{"a1", "missing", "a2"}}

	prompt := ImagePrompt(shot, "EXT. CLIFF - DAWN", assets)
	for _, fragment := range []string{
		"lighthouse at dawn",
		"Shot type: WIDE.",
		"Setting: EXT. CLIFF - DAWN.",
		"Old Keeper (character): weathered man in a wool coat.",
		"Cliff (location): black basalt cliff.",
	} {
		if !strings.Contains(prompt, fragment) {
			t.Fatalf("expected %q in prompt %q", fragment, prompt)
		}
	}
	if strings.Contains(prompt, "missing") {
		t.Fatalf("unknown asset leaked into prompt: %q", prompt)
	}
}

func TestVideoPromptSkipsEmptyParts(t *testing.T) {
	prompt := VideoPrompt(script.Shot{VisualPrompt: "hands on the rail"}, "")
	if strings.HasPrefix(prompt, " ") || strings.Contains(prompt, "Setting:") || strings.Contains(prompt, "Camera:") {
		t.Fatalf("unexpected prompt %q", prompt)
	}
}

func TestBreakdownPromptListsAssetIDs(t *testing.T) {
	prompt := BreakdownPrompt(BeatContext{
		SceneHeading: "INT. LAMP ROOM - NIGHT",
		Beat:         script.Beat{Description: "The lamp fails."},
		Assets:       []script.Asset{{ID: "a1", Name: "Keeper", Type: script.AssetCharacter, Description: "old"}},
	})
	if !strings.Contains(prompt, "id=a1") || !strings.Contains(prompt, "The lamp fails.") {
		t.Fatalf("unexpected prompt %q", prompt)
	}
}

func TestAnalysisPromptByMode(t *testing.T) {
	if AnalysisPrompt(ModeScript) == AnalysisPrompt(ModeStory) {
		t.Fatal("expected distinct prompts per mode")
	}
	if ParseMode("SCRIPT") != ModeScript || ParseMode("anything") != ModeStory {
		t.Fatal("unexpected mode parsing")
	}
}

func TestDecodeJSONTolerance(t *testing.T) {
	cases := map[string]string{
		"plain":  `{"ok":true}`,
		"fence":  "```json\n{\"ok\":true}\n```",
		"prose":  "Sure! Here you go: {\"ok\":true} hope that helps",
		"spaces": "  \n{\"ok\":true}\n ",
	}
	for name, input := range cases {
		var out healthPing
		if err := DecodeJSON(input, &out); err != nil || !out.OK {
			t.Fatalf("%s: expected ok, got %v (%v)", name, out, err)
		}
	}
	var out healthPing
	if err := DecodeJSON("", &out); err == nil {
		t.Fatal("expected error for empty payload")
	}
}

func TestParseDataURLRejectsInvalid(t *testing.T) {
	for _, input := range []string{"https://x/y.png", "data:image/png,raw", "data:image/png;base64"} {
		if _, err := ParseDataURL(input); err == nil {
			t.Fatalf("expected error for %q", input)
		}
	}
}
