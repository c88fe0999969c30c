package genai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"

	"storyreel/internal/script"
)

// Mode tells the analysis call how to read imported text.
type Mode string

const (
	ModeStory  Mode = "story"
	ModeScript Mode = "script"
)

// ParseMode normalizes a mode label, defaulting to story.
func ParseMode(value string) Mode {
	if strings.EqualFold(strings.TrimSpace(value), string(ModeScript)) {
		return ModeScript
	}
	return ModeStory
}

// BeatContext is everything the breakdown call needs to know about a beat.
type BeatContext struct {
	SceneHeading string
	Beat         script.Beat
	Assets       []script.Asset
}

// AnalyzeText asks the model to structure raw text into a project draft.
func (c *Client) AnalyzeText(ctx context.Context, text string, mode Mode) (script.ProjectDraft, error) {
	var draft script.ProjectDraft
	text = strings.TrimSpace(text)
	if text == "" {
		return draft, errors.New("analyze: text required")
	}
	if err := c.requireKey("analyze"); err != nil {
		return draft, err
	}
	content, err := c.completeStructured(ctx, "analyze", structuredRequest{
		system:      AnalysisPrompt(mode),
		user:        text,
		schemaName:  "screenplay_breakdown",
		description: "Structured screenplay breakdown of the imported text",
		schema:      analysisSchema,
	})
	if err != nil {
		return draft, err
	}
	if err := DecodeJSON(content, &draft); err != nil {
		return draft, fmt.Errorf("analyze: parse payload: %w", err)
	}
	return draft, nil
}

// BreakdownBeat asks the model for the shot list covering one beat.
func (c *Client) BreakdownBeat(ctx context.Context, beat BeatContext) ([]script.ShotDraft, error) {
	if strings.TrimSpace(beat.Beat.Description) == "" {
		return nil, errors.New("breakdown: beat description required")
	}
	if err := c.requireKey("breakdown"); err != nil {
		return nil, err
	}
	content, err := c.completeStructured(ctx, "breakdown", structuredRequest{
		system:      breakdownSystemPrompt,
		user:        BreakdownPrompt(beat),
		schemaName:  "shot_list",
		description: "Shot list for a single narrative beat",
		schema:      breakdownSchema,
	})
	if err != nil {
		return nil, err
	}
	var list shotList
	if err := DecodeJSON(content, &list); err != nil {
		// Some providers drop the wrapper object and return the array directly.
		var shots []script.ShotDraft
		if arrErr := DecodeJSON(content, &shots); arrErr == nil {
			return shots, nil
		}
		return nil, fmt.Errorf("breakdown: parse payload: %w", err)
	}
	return list.Shots, nil
}

// HealthCheck issues a fast ping to verify the API key and text model are usable.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := c.requireKey("health"); err != nil {
		return err
	}
	content, err := c.completeStructured(ctx, "health", structuredRequest{
		system:      "You must respond with JSON only.",
		user:        `Respond with {"ok":true}`,
		schemaName:  "health",
		description: "Health ping",
		schema:      healthSchema,
	})
	if err != nil {
		return err
	}
	var parsed healthPing
	if err := DecodeJSON(content, &parsed); err != nil {
		return fmt.Errorf("health: parse payload: %w", err)
	}
	if !parsed.OK {
		return errors.New("health: unexpected response")
	}
	return nil
}

type structuredRequest struct {
	system      string
	user        string
	schemaName  string
	description string
	schema      any
}

func (c *Client) completeStructured(ctx context.Context, op string, req structuredRequest) (string, error) {
	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.system),
			openai.UserMessage(req.user),
		},
		Model:       openai.ChatModel(c.cfg.TextModel),
		Temperature: openai.Float(0.4),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        req.schemaName,
					Description: openai.String(req.description),
					Schema:      req.schema,
					Strict:      openai.Bool(true),
				},
			},
		},
	}

	var content string
	err := c.withRetry(ctx, op, func() error {
		completion, err := c.api.Chat.Completions.New(ctx, params)
		if err != nil {
			return err
		}
		if len(completion.Choices) == 0 {
			return &emptyContentError{Op: op}
		}
		choice := completion.Choices[0]
		content = strings.TrimSpace(choice.Message.Content)
		if content == "" {
			return &emptyContentError{
				Op:           op,
				FinishReason: string(choice.FinishReason),
				Refusal:      choice.Message.Refusal,
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return content, nil
}
