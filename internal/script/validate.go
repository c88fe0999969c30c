package script

import (
	"errors"
	"fmt"
)

// Validate checks the tree invariants: ids are unique within their parent
// collection, and a shot with a video also has an image.
func Validate(p Project) error {
	var errs []error
	if dup := firstDuplicate(len(p.Assets), func(i int) string { return p.Assets[i].ID }); dup != "" {
		errs = append(errs, fmt.Errorf("duplicate asset id %q", dup))
	}
	if dup := firstDuplicate(len(p.Scenes), func(i int) string { return p.Scenes[i].ID }); dup != "" {
		errs = append(errs, fmt.Errorf("duplicate scene id %q", dup))
	}
	for _, scene := range p.Scenes {
		if dup := firstDuplicate(len(scene.Beats), func(i int) string { return scene.Beats[i].ID }); dup != "" {
			errs = append(errs, fmt.Errorf("scene %q: duplicate beat id %q", scene.ID, dup))
		}
		for _, beat := range scene.Beats {
			if dup := firstDuplicate(len(beat.Shots), func(i int) string { return beat.Shots[i].ID }); dup != "" {
				errs = append(errs, fmt.Errorf("beat %s: duplicate shot id %q", BeatPath{scene.ID, beat.ID}, dup))
			}
			for _, shot := range beat.Shots {
				if shot.HasVideo() && !shot.HasImage() {
					errs = append(errs, fmt.Errorf("shot %s: video without image", ShotPath{scene.ID, beat.ID, shot.ID}))
				}
			}
		}
	}
	return errors.Join(errs...)
}

func firstDuplicate(n int, id func(int) string) string {
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		key := id(i)
		if _, ok := seen[key]; ok {
			return key
		}
		seen[key] = struct{}{}
	}
	return ""
}
