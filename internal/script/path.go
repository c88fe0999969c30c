package script

import (
	"fmt"
	"strings"
)

// BeatPath addresses a beat inside a project.
type BeatPath struct {
	SceneID string `json:"scene_id"`
	BeatID  string `json:"beat_id"`
}

func (p BeatPath) String() string {
	return p.SceneID + "/" + p.BeatID
}

// ShotPath addresses a shot inside a project. Ids are only unique within
// their parent, so all three segments are required.
type ShotPath struct {
	SceneID string `json:"scene_id"`
	BeatID  string `json:"beat_id"`
	ShotID  string `json:"shot_id"`
}

func (p ShotPath) String() string {
	return p.SceneID + "/" + p.BeatID + "/" + p.ShotID
}

// Beat returns the path of the beat that owns the shot.
func (p ShotPath) Beat() BeatPath {
	return BeatPath{SceneID: p.SceneID, BeatID: p.BeatID}
}

// ParseBeatPath parses "scene/beat".
func ParseBeatPath(value string) (BeatPath, error) {
	parts := splitPath(value)
	if len(parts) != 2 {
		return BeatPath{}, fmt.Errorf("beat path %q: expected scene/beat", value)
	}
	return BeatPath{SceneID: parts[0], BeatID: parts[1]}, nil
}

// ParseShotPath parses "scene/beat/shot".
func ParseShotPath(value string) (ShotPath, error) {
	parts := splitPath(value)
	if len(parts) != 3 {
		return ShotPath{}, fmt.Errorf("shot path %q: expected scene/beat/shot", value)
	}
	return ShotPath{SceneID: parts[0], BeatID: parts[1], ShotID: parts[2]}, nil
}

func splitPath(value string) []string {
	raw := strings.Split(strings.Trim(strings.TrimSpace(value), "/"), "/")
	out := make([]string, 0, len(raw))
	for _, part := range raw {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil
		}
		out = append(out, part)
	}
	return out
}
