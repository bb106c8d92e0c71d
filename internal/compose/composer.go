// Package compose turns a structured intent record into three prompt
// variants (short, detailed, expert).
package compose

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/thebtf/intentify/internal/llmjson"
	"github.com/thebtf/intentify/pkg/models"
)

// GenerationError means the generative backend call itself failed.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("prompt generation: %v", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// ParseError means the backend was reachable but returned text that is not
// valid JSON even after fence stripping.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("prompt parse: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// TextGenerator issues single-turn text generation calls.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string, image []byte) (string, error)
}

// Composer generates prompt variants from structured intent.
type Composer struct {
	generator TextGenerator
}

// NewComposer creates a Composer over the given backend.
func NewComposer(generator TextGenerator) *Composer {
	return &Composer{generator: generator}
}

// BuildPrompt serializes the structured intent verbatim into the
// composition instruction. The word-count targets are requested of the
// model; they are never enforced locally.
func BuildPrompt(structuredIntent models.JSONMap) string {
	intentJSON, err := json.MarshalIndent(structuredIntent, "", "  ")
	if err != nil {
		intentJSON = []byte("{}")
	}

	var sb strings.Builder
	sb.WriteString("Based on this structured intent, generate three AI prompts:\n\n")
	sb.WriteString("Structured Intent:\n")
	sb.Write(intentJSON)
	sb.WriteString("\n\nGenerate three prompts:\n")
	sb.WriteString("1. Short prompt: Concise, direct, under 100 words\n")
	sb.WriteString("2. Detailed prompt: Comprehensive with context, 200-300 words\n")
	sb.WriteString("3. Expert prompt: Advanced, technical, assumes expertise, 300-400 words\n")
	sb.WriteString("\nReturn ONLY a JSON object with this exact structure:\n")
	sb.WriteString(`{
  "short_prompt": "...",
  "detailed_prompt": "...",
  "expert_prompt": "..."
}`)
	sb.WriteString("\n\nReturn ONLY valid JSON, no additional text.")
	return sb.String()
}

// Compose asks the model for the three prompt variants. A variant the model
// omitted defaults to the empty string; outputs that miss their length
// target are returned untouched.
func (c *Composer) Compose(ctx context.Context, structuredIntent models.JSONMap) (models.PromptVariants, error) {
	text, err := c.generator.GenerateText(ctx, BuildPrompt(structuredIntent), nil)
	if err != nil {
		return models.PromptVariants{}, &GenerationError{Err: err}
	}

	record, err := llmjson.Decode(text)
	if err != nil {
		return models.PromptVariants{}, &ParseError{Err: err}
	}

	return models.PromptVariants{
		Short:    stringField(record, "short_prompt"),
		Detailed: stringField(record, "detailed_prompt"),
		Expert:   stringField(record, "expert_prompt"),
	}, nil
}

func stringField(record map[string]any, key string) string {
	if v, ok := record[key].(string); ok {
		return v
	}
	return ""
}
