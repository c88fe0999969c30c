package genai

import (
	"fmt"
	"strings"

	"storyreel/internal/script"
)

const analysisStoryPrompt = `You are a development executive and script supervisor.
Read the prose story below and adapt it into a screenplay breakdown.
Identify the recurring characters, locations and props as assets. Give each asset a
concrete visual description that an illustrator could draw without reading the story.
Split the story into scenes with standard sluglines (INT./EXT. PLACE - TIME) and split
each scene into short narrative beats in story order.
Also provide a working title, the primary genre and a one sentence logline.`

const analysisScriptPrompt = `You are a script supervisor.
Read the screenplay below and produce a production breakdown.
Keep the existing scene headings as sluglines and the scene order as written.
Identify the recurring characters, locations and props as assets. Give each asset a
concrete visual description that an illustrator could draw without reading the script.
Split each scene into short narrative beats in order.
Also provide the title (or a working title), the primary genre and a one sentence logline.`

const breakdownSystemPrompt = `You are a director of photography planning coverage.
Break the beat into between two and five shots. For each shot give the shot type,
a self-contained visual prompt describing exactly what is in frame, the action or
dialogue, and the ids of the listed assets that appear in frame. Only use asset ids
from the list you are given.`

// AnalysisPrompt returns the system prompt for analyzing imported text.
func AnalysisPrompt(mode Mode) string {
	if mode == ModeScript {
		return analysisScriptPrompt
	}
	return analysisStoryPrompt
}

// BreakdownPrompt renders the user prompt for a beat breakdown.
func BreakdownPrompt(beat BeatContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Scene heading: %s\n", strings.TrimSpace(beat.SceneHeading))
	fmt.Fprintf(&b, "Beat: %s\n", strings.TrimSpace(beat.Beat.Description))
	if len(beat.Assets) == 0 {
		b.WriteString("Assets: none\n")
		return b.String()
	}
	b.WriteString("Assets:\n")
	for _, asset := range beat.Assets {
		fmt.Fprintf(&b, "- id=%s name=%q type=%s: %s\n", asset.ID, asset.Name, asset.Type, strings.TrimSpace(asset.Description))
	}
	return b.String()
}

// ImagePrompt builds the frame prompt for a shot. The scene heading, shot type,
// and the description of every referenced asset are folded in so the same
// character or place renders consistently across shots.
func ImagePrompt(shot script.Shot, sceneHeading string, assets map[string]script.Asset) string {
	parts := []string{strings.TrimSpace(shot.VisualPrompt)}
	if shotType := strings.TrimSpace(shot.ShotType); shotType != "" {
		parts = append(parts, "Shot type: "+shotType+".")
	}
	if heading := strings.TrimSpace(sceneHeading); heading != "" {
		parts = append(parts, "Setting: "+heading+".")
	}
	for _, id := range shot.AssetIDs {
		asset, ok := assets[id]
		if !ok || strings.TrimSpace(asset.Description) == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s (%s): %s.", asset.Name, strings.ToLower(string(asset.Type)), strings.TrimRight(strings.TrimSpace(asset.Description), ".")))
	}
	parts = append(parts, "Cinematic film still, consistent character design, no text or captions.")
	return strings.Join(nonEmpty(parts), " ")
}

// VideoPrompt builds the animation prompt for a shot whose still already exists.
func VideoPrompt(shot script.Shot, sceneHeading string) string {
	parts := []string{
		strings.TrimSpace(shot.Action),
		strings.TrimSpace(shot.VisualPrompt),
	}
	if shotType := strings.TrimSpace(shot.ShotType); shotType != "" {
		parts = append(parts, "Camera: "+shotType+".")
	}
	if heading := strings.TrimSpace(sceneHeading); heading != "" {
		parts = append(parts, "Setting: "+heading+".")
	}
	parts = append(parts, "Animate the reference frame with natural motion; keep composition and characters unchanged.")
	return strings.Join(nonEmpty(parts), " ")
}

func nonEmpty(values []string) []string {
	out := values[:0:0]
	for _, value := range values {
		if value != "" {
			out = append(out, value)
		}
	}
	return out
}
