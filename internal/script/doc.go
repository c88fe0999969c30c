// Package script holds the screenplay breakdown tree: a project with its
// assets and scenes, each scene with ordered beats, each beat with ordered
// shots.
//
// Every mutation is copy-on-write. Replace and toggle helpers return a new
// Project that shares no slice storage with their input, so callers can swap
// trees wholesale without locking readers that still hold the old value.
// Drafts are the id-less shapes decoded from the generative API; FromAnalysis
// and ShotsFromDrafts turn them into tree nodes with locally assigned ids.
package script
