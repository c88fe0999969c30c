package script_test

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"storyreel/internal/script"
)

func sampleProject() script.Project {
	return script.Project{
		ID:    "p1",
		Title: "Night Shift",
		Assets: []script.Asset{
			{ID: "a1", Name: "Mara", Type: script.AssetCharacter, Description: "nurse in green scrubs"},
		},
		Scenes: []script.Scene{
			{
				ID:       "s1",
				Slugline: "INT. HOSPITAL - NIGHT",
				Expanded: true,
				Beats: []script.Beat{
					{
						ID:          "b1",
						Description: "Mara hears a noise",
						Shots: []script.Shot{
							{ID: "sh1", ShotType: "WIDE", VisualPrompt: "empty corridor", AssetIDs: []string{"a1"}},
							{ID: "sh2", ShotType: "CLOSE-UP", VisualPrompt: "Mara's face", AssetIDs: []string{"a1"}},
						},
					},
					{ID: "b2", Description: "She follows it"},
				},
			},
			{ID: "s2", Slugline: "EXT. PARKING LOT - NIGHT"},
		},
	}
}

func TestReplaceShotUpdatesOnlyTarget(t *testing.T) {
	original := sampleProject()
	snapshot := original.Clone()

	updated := original.Scenes[0].Beats[0].Shots[0]
	updated.Image = &script.MediaRef{URI: "data:image/png;base64,AAAA", MIMEType: "image/png"}

	next, err := script.ReplaceShot(original, "s1", "b1", updated)
	if err != nil {
		t.Fatalf("ReplaceShot: %v", err)
	}

	if !next.Scenes[0].Beats[0].Shots[0].HasImage() {
		t.Fatal("expected replaced shot to carry the image")
	}
	if original.Scenes[0].Beats[0].Shots[0].HasImage() {
		t.Fatal("input tree was mutated")
	}
	if !reflect.DeepEqual(original, snapshot) {
		t.Fatal("input tree changed after replace")
	}

	sibling := next.Scenes[0].Beats[0].Shots[1]
	if !reflect.DeepEqual(sibling, original.Scenes[0].Beats[0].Shots[1]) {
		t.Fatalf("sibling value changed: %#v", sibling)
	}
	next.Scenes[0].Beats[0].Shots[1].AssetIDs[0] = "changed"
	if original.Scenes[0].Beats[0].Shots[1].AssetIDs[0] != "a1" {
		t.Fatal("sibling shares storage with the input tree")
	}
	if !reflect.DeepEqual(next.Scenes[1], original.Scenes[1]) {
		t.Fatal("unrelated scene changed")
	}
}

func TestReplaceShotUnknownPath(t *testing.T) {
	p := sampleProject()
	cases := []struct {
		name    string
		sceneID string
		beatID  string
		shotID  string
	}{
		{"scene", "missing", "b1", "sh1"},
		{"beat", "s1", "missing", "sh1"},
		{"shot", "s1", "b1", "missing"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := script.ReplaceShot(p, tc.sceneID, tc.beatID, script.Shot{ID: tc.shotID})
			if !errors.Is(err, script.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestReplaceBeatSwapsShots(t *testing.T) {
	p := sampleProject()
	beat := script.Beat{ID: "b2", Description: "She follows it", Shots: []script.Shot{{ID: "n1", ShotType: "TRACKING"}}}
	next, err := script.ReplaceBeat(p, "s1", beat)
	if err != nil {
		t.Fatalf("ReplaceBeat: %v", err)
	}
	if got := len(next.Scenes[0].Beats[1].Shots); got != 1 {
		t.Fatalf("expected 1 shot, got %d", got)
	}
	if len(p.Scenes[0].Beats[1].Shots) != 0 {
		t.Fatal("input beat mutated")
	}
	beat.Shots[0].ShotType = "mutated after replace"
	if next.Scenes[0].Beats[1].Shots[0].ShotType != "TRACKING" {
		t.Fatal("result aliases the caller's beat")
	}
}

func TestReplaceSceneUnknown(t *testing.T) {
	if _, err := script.ReplaceScene(sampleProject(), script.Scene{ID: "nope"}); !errors.Is(err, script.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestToggleSceneLeavesBeatsAlone(t *testing.T) {
	p := sampleProject()
	next, err := script.ToggleScene(p, "s1")
	if err != nil {
		t.Fatalf("ToggleScene: %v", err)
	}
	if next.Scenes[0].Expanded {
		t.Fatal("expected scene to collapse")
	}
	if !reflect.DeepEqual(next.Scenes[0].Beats, p.Scenes[0].Beats) {
		t.Fatal("toggle altered beats")
	}
	if !p.Scenes[0].Expanded {
		t.Fatal("input scene mutated")
	}
	again, err := script.ToggleScene(next, "s1")
	if err != nil {
		t.Fatalf("ToggleScene: %v", err)
	}
	if !again.Scenes[0].Expanded {
		t.Fatal("expected scene to expand again")
	}
}

func TestFindShot(t *testing.T) {
	p := sampleProject()
	scene, beat, shot, ok := script.FindShot(p, script.ShotPath{SceneID: "s1", BeatID: "b1", ShotID: "sh2"})
	if !ok {
		t.Fatal("expected to find shot")
	}
	if scene.ID != "s1" || beat.ID != "b1" || shot.ShotType != "CLOSE-UP" {
		t.Fatalf("unexpected lookup result: %s %s %s", scene.ID, beat.ID, shot.ShotType)
	}
	if _, _, _, ok := script.FindShot(p, script.ShotPath{SceneID: "s2", BeatID: "b1", ShotID: "sh2"}); ok {
		t.Fatal("expected lookup in wrong scene to fail")
	}
}

func TestDeriveStatus(t *testing.T) {
	p := sampleProject()
	if got := p.DeriveStatus(); got != script.StatusDraft {
		t.Fatalf("expected draft, got %s", got)
	}
	p.Scenes[0].Beats[0].Shots[0].Image = &script.MediaRef{URI: "data:image/png;base64,AA"}
	if got := p.DeriveStatus(); got != script.StatusInProduction {
		t.Fatalf("expected in_production, got %s", got)
	}
	for i := range p.Scenes[0].Beats[0].Shots {
		p.Scenes[0].Beats[0].Shots[i].Image = &script.MediaRef{URI: "data:image/png;base64,AA"}
		p.Scenes[0].Beats[0].Shots[i].Video = &script.MediaRef{URI: "https://example.test/v", CreatedAt: time.Now()}
	}
	if got := p.DeriveStatus(); got != script.StatusCompleted {
		t.Fatalf("expected completed, got %s", got)
	}
	if got := (script.Project{}).DeriveStatus(); got != script.StatusDraft {
		t.Fatalf("expected empty project to be draft, got %s", got)
	}
}

func TestValidate(t *testing.T) {
	if err := script.Validate(sampleProject()); err != nil {
		t.Fatalf("expected valid tree, got %v", err)
	}

	dup := sampleProject()
	dup.Scenes[0].Beats[0].Shots[1].ID = "sh1"
	if err := script.Validate(dup); err == nil {
		t.Fatal("expected duplicate shot id error")
	}

	// The same shot id under different beats is allowed.
	shared := sampleProject()
	shared.Scenes[0].Beats[1].Shots = []script.Shot{{ID: "sh1"}}
	if err := script.Validate(shared); err != nil {
		t.Fatalf("expected ids scoped to parent, got %v", err)
	}

	videoOnly := sampleProject()
	videoOnly.Scenes[0].Beats[0].Shots[0].Video = &script.MediaRef{URI: "https://example.test/v"}
	if err := script.Validate(videoOnly); err == nil {
		t.Fatal("expected video-without-image error")
	}
}

func TestParsePaths(t *testing.T) {
	shot, err := script.ParseShotPath("s1/b1/sh1")
	if err != nil {
		t.Fatalf("ParseShotPath: %v", err)
	}
	if shot.String() != "s1/b1/sh1" || shot.Beat().String() != "s1/b1" {
		t.Fatalf("unexpected round trip: %s", shot)
	}
	for _, bad := range []string{"", "s1", "s1//sh1", "s1/b1"} {
		if _, err := script.ParseShotPath(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
	if _, err := script.ParseBeatPath("s1/b1"); err != nil {
		t.Fatalf("ParseBeatPath: %v", err)
	}
}
