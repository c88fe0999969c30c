package script

import (
	"errors"
	"fmt"
)

// ErrNotFound reports a scene, beat, or shot id that is not in the tree.
var ErrNotFound = errors.New("not found")

// FindScene returns the scene with the given id.
func FindScene(p Project, sceneID string) (Scene, bool) {
	idx := sceneIndex(p, sceneID)
	if idx < 0 {
		return Scene{}, false
	}
	return p.Scenes[idx], true
}

// FindBeat returns the beat at path together with its scene.
func FindBeat(p Project, path BeatPath) (Scene, Beat, bool) {
	scene, ok := FindScene(p, path.SceneID)
	if !ok {
		return Scene{}, Beat{}, false
	}
	idx := beatIndex(scene, path.BeatID)
	if idx < 0 {
		return Scene{}, Beat{}, false
	}
	return scene, scene.Beats[idx], true
}

// FindShot returns the shot at path together with its scene and beat.
func FindShot(p Project, path ShotPath) (Scene, Beat, Shot, bool) {
	scene, beat, ok := FindBeat(p, path.Beat())
	if !ok {
		return Scene{}, Beat{}, Shot{}, false
	}
	idx := shotIndex(beat, path.ShotID)
	if idx < 0 {
		return Scene{}, Beat{}, Shot{}, false
	}
	return scene, beat, beat.Shots[idx], true
}

// ReplaceScene returns a copy of p with the scene of the same id replaced.
func ReplaceScene(p Project, scene Scene) (Project, error) {
	idx := sceneIndex(p, scene.ID)
	if idx < 0 {
		return Project{}, fmt.Errorf("replace scene %q: %w", scene.ID, ErrNotFound)
	}
	out := p.Clone()
	out.Scenes[idx] = scene.Clone()
	return out, nil
}

// ReplaceBeat returns a copy of p with the beat of the same id replaced
// inside the given scene.
func ReplaceBeat(p Project, sceneID string, beat Beat) (Project, error) {
	scene, ok := FindScene(p, sceneID)
	if !ok {
		return Project{}, fmt.Errorf("replace beat %s: scene: %w", BeatPath{sceneID, beat.ID}, ErrNotFound)
	}
	idx := beatIndex(scene, beat.ID)
	if idx < 0 {
		return Project{}, fmt.Errorf("replace beat %s: %w", BeatPath{sceneID, beat.ID}, ErrNotFound)
	}
	updated := scene.Clone()
	updated.Beats[idx] = beat.Clone()
	return ReplaceScene(p, updated)
}

// ReplaceShot returns a copy of p with the shot of the same id replaced
// inside the given beat.
func ReplaceShot(p Project, sceneID, beatID string, shot Shot) (Project, error) {
	path := ShotPath{SceneID: sceneID, BeatID: beatID, ShotID: shot.ID}
	_, beat, ok := FindBeat(p, path.Beat())
	if !ok {
		return Project{}, fmt.Errorf("replace shot %s: beat: %w", path, ErrNotFound)
	}
	idx := shotIndex(beat, shot.ID)
	if idx < 0 {
		return Project{}, fmt.Errorf("replace shot %s: %w", path, ErrNotFound)
	}
	updated := beat.Clone()
	updated.Shots[idx] = shot.Clone()
	return ReplaceBeat(p, sceneID, updated)
}

// ToggleScene flips the expanded flag of a scene.
func ToggleScene(p Project, sceneID string) (Project, error) {
	scene, ok := FindScene(p, sceneID)
	if !ok {
		return Project{}, fmt.Errorf("toggle scene %q: %w", sceneID, ErrNotFound)
	}
	scene.Expanded = !scene.Expanded
	return ReplaceScene(p, scene)
}

func sceneIndex(p Project, id string) int {
	for i, scene := range p.Scenes {
		if scene.ID == id {
			return i
		}
	}
	return -1
}

func beatIndex(scene Scene, id string) int {
	for i, beat := range scene.Beats {
		if beat.ID == id {
			return i
		}
	}
	return -1
}

func shotIndex(beat Beat, id string) int {
	for i, shot := range beat.Shots {
		if shot.ID == id {
			return i
		}
	}
	return -1
}
