package testsupport

import (
	"time"

	"storyreel/internal/script"
)

// Fixed identifiers used by SampleProject.
const (
	ProjectID  = "proj-1"
	SceneID    = "scene-1"
	BeatID     = "beat-1"
	ShotID     = "shot-1"
	SiblingID  = "shot-2"
	HeroID     = "asset-hero"
	LocationID = "asset-cliff"
)

// SampleProject returns a small tree: one scene, one beat, two shots. The
// first shot has no media; the second already has an image.
func SampleProject() script.Project {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return script.Project{
		ID:      ProjectID,
		Title:   "The Lighthouse",
		Genre:   "Drama",
		Logline: "A keeper waits for a ship that never comes.",
		Status:  script.StatusDraft,
		Assets: []script.Asset{
			{ID: HeroID, Name: "Old Keeper", Type: script.AssetCharacter, Description: "weathered man in a wool coat"},
			{ID: LocationID, Name: "Cliff", Type: script.AssetLocation, Description: "black basalt cliff over a grey sea"},
		},
		Scenes: []script.Scene{{
			ID:       SceneID,
			Slugline: "EXT. CLIFF - DAWN",
			Expanded: true,
			Beats: []script.Beat{{
				ID:          BeatID,
				Description: "The keeper climbs to the lamp room.",
				Shots: []script.Shot{
					{ID: ShotID, ShotType: "WIDE", VisualPrompt: "lighthouse at dawn", Action: "He climbs.", AssetIDs: []string{HeroID, LocationID}},
					{
						ID:           SiblingID,
						ShotType:     "CLOSE-UP",
						VisualPrompt: "hands on the rail",
						Action:       "He grips the rail.",
						AssetIDs:     []string{HeroID},
						Image:        &script.MediaRef{URI: "data:image/png;base64,AAAA", MIMEType: "image/png", CreatedAt: created},
					},
				},
			}},
		}},
		CreatedAt: created,
		UpdatedAt: created,
	}
}
