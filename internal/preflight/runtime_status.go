package preflight

import (
	"strings"

	"storyreel/internal/config"
)

// CheckGenAIConfigured reports whether the generative API has the settings it
// needs, without contacting it.
func CheckGenAIConfigured(cfg *config.Config) Result {
	if cfg == nil {
		return Result{Name: genaiCheckName, Detail: "Unknown"}
	}
	if strings.TrimSpace(cfg.GenAI.APIKey) == "" {
		return Result{Name: genaiCheckName, Detail: "Missing API key (set genai.api_key or STORYREEL_API_KEY)"}
	}
	return Result{Name: genaiCheckName, Passed: true, Detail: "Configured for " + cfg.GenAI.BaseURL}
}
