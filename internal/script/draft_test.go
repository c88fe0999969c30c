package script_test

import (
	"testing"
	"time"

	"storyreel/internal/script"
)

func TestFromAnalysisAssignsIDs(t *testing.T) {
	draft := script.ProjectDraft{
		Title:   "  The Lighthouse ",
		Genre:   "Thriller",
		Logline: "A keeper finds a stranger.",
		Assets: []script.AssetDraft{
			{Name: "old keeper", Type: "character", Description: "weathered man"},
			{Name: "lighthouse", Type: "LOCATION", Description: "white tower"},
			{Name: "", Type: "PROP"},
			{Name: "lantern", Type: "gadget"},
		},
		Scenes: []script.SceneDraft{
			{Slugline: "ext. cliff - dawn", Beats: []script.BeatDraft{{Description: "Waves"}, {Description: " "}}},
			{Slugline: "INT. TOWER - DAY", Beats: []script.BeatDraft{{Description: "Climb"}}},
		},
	}
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p := script.FromAnalysis(draft, now)

	if p.ID == "" || p.Title != "The Lighthouse" {
		t.Fatalf("unexpected project header: %#v", p)
	}
	if len(p.Assets) != 3 {
		t.Fatalf("expected 3 assets, got %d", len(p.Assets))
	}
	if p.Assets[0].Name != "Old Keeper" || p.Assets[0].Type != script.AssetCharacter {
		t.Fatalf("unexpected first asset: %#v", p.Assets[0])
	}
	if p.Assets[2].Type != script.AssetProp {
		t.Fatalf("expected unknown type to fall back to PROP, got %s", p.Assets[2].Type)
	}
	if p.SceneCount() != 2 {
		t.Fatalf("expected 2 scenes, got %d", p.SceneCount())
	}
	if p.Scenes[0].Slugline != "EXT. CLIFF - DAWN" {
		t.Fatalf("expected upper-cased slugline, got %q", p.Scenes[0].Slugline)
	}
	if !p.Scenes[0].Expanded || p.Scenes[1].Expanded {
		t.Fatal("expected only the first scene expanded")
	}
	if len(p.Scenes[0].Beats) != 1 {
		t.Fatalf("expected blank beat to be dropped, got %d beats", len(p.Scenes[0].Beats))
	}
	if p.Status != script.StatusDraft || !p.CreatedAt.Equal(now) {
		t.Fatalf("unexpected status/timestamps: %s %s", p.Status, p.CreatedAt)
	}
	if err := script.Validate(p); err != nil {
		t.Fatalf("built tree is invalid: %v", err)
	}
}

func TestFromAnalysisDefaultsTitle(t *testing.T) {
	p := script.FromAnalysis(script.ProjectDraft{}, time.Now())
	if p.Title != "Untitled" {
		t.Fatalf("expected Untitled, got %q", p.Title)
	}
}

func TestShotsFromDraftsFiltersUnknownAssets(t *testing.T) {
	assets := []script.Asset{{ID: "a1"}, {ID: "a2"}}
	shots := script.ShotsFromDrafts([]script.ShotDraft{
		{ShotType: "wide", VisualPrompt: " dawn ", AssetIDs: []string{"a1", "ghost", "a1", "a2"}},
		{ShotType: "close-up"},
	}, assets)

	if len(shots) != 2 {
		t.Fatalf("expected 2 shots, got %d", len(shots))
	}
	if shots[0].ID == "" || shots[0].ID == shots[1].ID {
		t.Fatal("expected distinct ids")
	}
	if shots[0].ShotType != "WIDE" || shots[0].VisualPrompt != "dawn" {
		t.Fatalf("unexpected normalization: %#v", shots[0])
	}
	if got := shots[0].AssetIDs; len(got) != 2 || got[0] != "a1" || got[1] != "a2" {
		t.Fatalf("unexpected asset ids: %v", got)
	}
	if shots[1].AssetIDs == nil {
		t.Fatal("expected empty, non-nil asset id slice")
	}
}
