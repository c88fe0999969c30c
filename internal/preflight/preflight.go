package preflight

import (
	"context"
	"path/filepath"

	"storyreel/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// RunAll executes the local checks for the given config. It does not contact
// the generative API; use CheckGenAI for that.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	_ = ctx

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
	if socketDir := filepath.Dir(cfg.Paths.SocketPath); socketDir != cfg.Paths.DataDir && socketDir != cfg.Paths.LogDir {
		results = append(results, CheckDirectoryAccess("Socket directory", socketDir))
	}
	results = append(results, CheckGenAIConfigured(cfg))
	return results
}

// Failed returns the subset of results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
