package script

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ProjectDraft is the analysis payload returned for imported text.
type ProjectDraft struct {
	Title   string       `json:"title" jsonschema_description:"Working title of the story."`
	Genre   string       `json:"genre" jsonschema_description:"Primary genre."`
	Logline string       `json:"logline" jsonschema_description:"One sentence logline."`
	Assets  []AssetDraft `json:"assets" jsonschema_description:"Recurring characters, locations and props with visual descriptions."`
	Scenes  []SceneDraft `json:"scenes" jsonschema_description:"Scenes in story order."`
}

// AssetDraft is an asset before an id is assigned.
type AssetDraft struct {
	Name        string `json:"name" jsonschema_description:"Short display name."`
	Type        string `json:"type" jsonschema:"enum=CHARACTER,enum=LOCATION,enum=PROP"`
	Description string `json:"description" jsonschema_description:"Concrete visual description usable as an image prompt fragment."`
}

// SceneDraft is a scene before ids are assigned.
type SceneDraft struct {
	Slugline string      `json:"slugline" jsonschema_description:"Scene heading, e.g. INT. KITCHEN - NIGHT."`
	Beats    []BeatDraft `json:"beats" jsonschema_description:"Narrative beats in order."`
}

// BeatDraft is a beat before an id is assigned.
type BeatDraft struct {
	Description string `json:"description" jsonschema_description:"What happens in this beat."`
}

// ShotDraft is a shot returned by the beat breakdown call.
type ShotDraft struct {
	ShotType     string   `json:"shot_type" jsonschema_description:"Camera setup, e.g. WIDE, MEDIUM, CLOSE-UP, OVER THE SHOULDER."`
	VisualPrompt string   `json:"visual_prompt" jsonschema_description:"Self-contained image generation prompt for the frame."`
	Action       string   `json:"action" jsonschema_description:"Action or dialogue happening in the shot."`
	AssetIDs     []string `json:"asset_ids" jsonschema_description:"Ids of the provided assets visible in the shot."`
}

// Casers carry state, so each call builds its own.
func titleCase(s string) string { return cases.Title(language.Und).String(s) }

func upperCase(s string) string { return cases.Upper(language.Und).String(s) }

// NewID returns a fresh node identifier.
func NewID() string {
	return uuid.NewString()
}

// FromAnalysis builds a project tree from an analysis draft, assigning ids.
// Scenes start collapsed except the first.
func FromAnalysis(draft ProjectDraft, now time.Time) Project {
	p := Project{
		ID:        NewID(),
		Title:     strings.TrimSpace(draft.Title),
		Genre:     strings.TrimSpace(draft.Genre),
		Logline:   strings.TrimSpace(draft.Logline),
		Status:    StatusDraft,
		Assets:    make([]Asset, 0, len(draft.Assets)),
		Scenes:    make([]Scene, 0, len(draft.Scenes)),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if p.Title == "" {
		p.Title = "Untitled"
	}
	for _, a := range draft.Assets {
		name := strings.TrimSpace(a.Name)
		if name == "" {
			continue
		}
		p.Assets = append(p.Assets, Asset{
			ID:          NewID(),
			Name:        titleCase(name),
			Type:        ParseAssetType(a.Type),
			Description: strings.TrimSpace(a.Description),
		})
	}
	for i, s := range draft.Scenes {
		scene := Scene{
			ID:       NewID(),
			Slugline: upperCase(strings.TrimSpace(s.Slugline)),
			Beats:    make([]Beat, 0, len(s.Beats)),
			Expanded: i == 0,
		}
		for _, b := range s.Beats {
			desc := strings.TrimSpace(b.Description)
			if desc == "" {
				continue
			}
			scene.Beats = append(scene.Beats, Beat{ID: NewID(), Description: desc, Shots: []Shot{}})
		}
		p.Scenes = append(p.Scenes, scene)
	}
	return p
}

// ShotsFromDrafts assigns ids to shot drafts and drops asset references that
// are not among the known assets.
func ShotsFromDrafts(drafts []ShotDraft, assets []Asset) []Shot {
	known := make(map[string]struct{}, len(assets))
	for _, a := range assets {
		known[a.ID] = struct{}{}
	}
	shots := make([]Shot, 0, len(drafts))
	for _, d := range drafts {
		ids := make([]string, 0, len(d.AssetIDs))
		seen := make(map[string]struct{}, len(d.AssetIDs))
		for _, id := range d.AssetIDs {
			id = strings.TrimSpace(id)
			if _, ok := known[id]; !ok {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
		shots = append(shots, Shot{
			ID:           NewID(),
			ShotType:     upperCase(strings.TrimSpace(d.ShotType)),
			VisualPrompt: strings.TrimSpace(d.VisualPrompt),
			Action:       strings.TrimSpace(d.Action),
			AssetIDs:     ids,
		})
	}
	return shots
}
