package script

import (
	"strings"
	"time"
)

// AssetType classifies a reusable visual entity.
type AssetType string

const (
	AssetCharacter AssetType = "CHARACTER"
	AssetLocation  AssetType = "LOCATION"
	AssetProp      AssetType = "PROP"
)

// ParseAssetType normalizes a type label. Unknown labels fall back to PROP.
func ParseAssetType(value string) AssetType {
	switch AssetType(strings.ToUpper(strings.TrimSpace(value))) {
	case AssetCharacter:
		return AssetCharacter
	case AssetLocation:
		return AssetLocation
	default:
		return AssetProp
	}
}

// ProjectStatus is the dashboard lifecycle label for a project.
type ProjectStatus string

const (
	StatusDraft        ProjectStatus = "draft"
	StatusInProduction ProjectStatus = "in_production"
	StatusCompleted    ProjectStatus = "completed"
)

// Asset is a character, location, or prop whose description is fed to image
// generation for visual consistency.
type Asset struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        AssetType `json:"type"`
	Description string    `json:"description"`
}

// MediaRef points at generated media. Images are data URLs; videos are
// provider media URIs.
type MediaRef struct {
	URI       string    `json:"uri"`
	MIMEType  string    `json:"mime_type,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Shot is a single camera setup and the unit of image/video generation.
type Shot struct {
	ID           string    `json:"id"`
	ShotType     string    `json:"shot_type"`
	VisualPrompt string    `json:"visual_prompt"`
	Action       string    `json:"action"`
	AssetIDs     []string  `json:"asset_ids"`
	Image        *MediaRef `json:"image,omitempty"`
	Video        *MediaRef `json:"video,omitempty"`
}

// HasImage reports whether an image reference has been generated.
func (s Shot) HasImage() bool {
	return s.Image != nil && strings.TrimSpace(s.Image.URI) != ""
}

// HasVideo reports whether a video reference has been generated.
func (s Shot) HasVideo() bool {
	return s.Video != nil && strings.TrimSpace(s.Video.URI) != ""
}

// Clone returns a deep copy of the shot.
func (s Shot) Clone() Shot {
	out := s
	if s.AssetIDs != nil {
		out.AssetIDs = append([]string(nil), s.AssetIDs...)
	}
	if s.Image != nil {
		img := *s.Image
		out.Image = &img
	}
	if s.Video != nil {
		vid := *s.Video
		out.Video = &vid
	}
	return out
}

// Beat is a narrative sub-unit of a scene.
type Beat struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Shots       []Shot `json:"shots"`
}

// Clone returns a deep copy of the beat.
func (b Beat) Clone() Beat {
	out := b
	if b.Shots != nil {
		out.Shots = make([]Shot, len(b.Shots))
		for i, shot := range b.Shots {
			out.Shots[i] = shot.Clone()
		}
	}
	return out
}

// Scene groups beats under a slugline.
type Scene struct {
	ID       string `json:"id"`
	Slugline string `json:"slugline"`
	Beats    []Beat `json:"beats"`
	Expanded bool   `json:"expanded"`
}

// Clone returns a deep copy of the scene.
func (s Scene) Clone() Scene {
	out := s
	if s.Beats != nil {
		out.Beats = make([]Beat, len(s.Beats))
		for i, beat := range s.Beats {
			out.Beats[i] = beat.Clone()
		}
	}
	return out
}

// Project is the root of the breakdown tree.
type Project struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Genre     string        `json:"genre,omitempty"`
	Logline   string        `json:"logline,omitempty"`
	Status    ProjectStatus `json:"status"`
	Assets    []Asset       `json:"assets"`
	Scenes    []Scene       `json:"scenes"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// SceneCount returns the number of scenes in the project.
func (p Project) SceneCount() int {
	return len(p.Scenes)
}

// Clone returns a deep copy of the project.
func (p Project) Clone() Project {
	out := p
	if p.Assets != nil {
		out.Assets = append([]Asset(nil), p.Assets...)
	}
	if p.Scenes != nil {
		out.Scenes = make([]Scene, len(p.Scenes))
		for i, scene := range p.Scenes {
			out.Scenes[i] = scene.Clone()
		}
	}
	return out
}

// DeriveStatus computes the dashboard status from shot media.
func (p Project) DeriveStatus() ProjectStatus {
	total, withMedia, withVideo := 0, 0, 0
	for _, scene := range p.Scenes {
		for _, beat := range scene.Beats {
			for _, shot := range beat.Shots {
				total++
				if shot.HasImage() || shot.HasVideo() {
					withMedia++
				}
				if shot.HasVideo() {
					withVideo++
				}
			}
		}
	}
	switch {
	case total > 0 && withVideo == total:
		return StatusCompleted
	case withMedia > 0:
		return StatusInProduction
	default:
		return StatusDraft
	}
}

// AssetsByID indexes the project's assets.
func (p Project) AssetsByID() map[string]Asset {
	out := make(map[string]Asset, len(p.Assets))
	for _, asset := range p.Assets {
		out[asset.ID] = asset
	}
	return out
}
