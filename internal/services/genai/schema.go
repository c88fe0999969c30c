package genai

import (
	"github.com/invopop/jsonschema"

	"storyreel/internal/script"
)

// GenerateSchema reflects a strict JSON schema for structured responses.
func GenerateSchema[T any]() any {
	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

// shotList wraps the breakdown response; strict schemas need an object root.
type shotList struct {
	Shots []script.ShotDraft `json:"shots" jsonschema_description:"Shots covering the beat, in order."`
}

type healthPing struct {
	OK bool `json:"ok"`
}

var (
	analysisSchema  = GenerateSchema[script.ProjectDraft]()
	breakdownSchema = GenerateSchema[shotList]()
	healthSchema    = GenerateSchema[healthPing]()
)
