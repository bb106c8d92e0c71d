// Package intent derives a structured intent record from a session's
// accumulated transcript and screen summary.
package intent

import (
	"context"
	"fmt"
	"strings"

	"github.com/thebtf/intentify/internal/llmjson"
	"github.com/thebtf/intentify/pkg/models"
)

// GenerationError means the generative backend call itself failed.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("intent generation: %v", e.Err)
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
	return fmt.Sprintf("intent parse: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// TextGenerator issues single-turn text generation calls.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string, image []byte) (string, error)
}

// Extractor turns transcript + screen summary into a structured intent.
type Extractor struct {
	generator TextGenerator
}

// NewExtractor creates an Extractor over the given backend.
func NewExtractor(generator TextGenerator) *Extractor {
	return &Extractor{generator: generator}
}

// BuildPrompt builds the extraction instruction embedding both inputs
// verbatim and requesting a six-field JSON object.
func BuildPrompt(transcript, screenSummary string) string {
	var sb strings.Builder
	sb.WriteString("Based on the following user transcript and screen analysis, extract the user's intent and structure it as JSON.\n\n")
	sb.WriteString("Transcript: ")
	sb.WriteString(transcript)
	sb.WriteString("\n\nScreen Summary: ")
	sb.WriteString(screenSummary)
	sb.WriteString("\n\nExtract and return a JSON object with the following structure:\n")
	sb.WriteString(`{
  "goal": "clear description of what the user wants to achieve",
  "current_state": "description of current situation based on screen and context",
  "constraints": ["list", "of", "constraints", "or", "limitations"],
  "tools": ["list", "of", "tools", "or", "technologies", "mentioned"],
  "skill_level": "beginner/intermediate/expert",
  "desired_output": "what the user expects as output"
}`)
	sb.WriteString("\n\nReturn ONLY valid JSON, no additional text.")
	return sb.String()
}

// Extract asks the model for a structured intent record. The six-field
// schema is advisory: whatever keys the model returns are kept, and missing
// keys are not an error. The model is not deterministic, so repeated calls
// with identical inputs may yield different records.
func (e *Extractor) Extract(ctx context.Context, transcript, screenSummary string) (models.JSONMap, error) {
	text, err := e.generator.GenerateText(ctx, BuildPrompt(transcript, screenSummary), nil)
	if err != nil {
		return nil, &GenerationError{Err: err}
	}

	record, err := llmjson.Decode(text)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	return models.JSONMap(record), nil
}
