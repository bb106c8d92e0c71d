// Package models contains domain models for intentify.
package models

import "time"

// Prompt is an immutable record of one generation event for a session.
// It snapshots the inputs that produced it; many prompts may exist per
// session and none are ever mutated or deleted.
type Prompt struct {
	ID                string    `json:"id"`
	SessionID         string    `json:"session_id"`
	RawTranscript     string    `json:"raw_transcript"`
	ScreenshotSummary string    `json:"screenshot_summary"`
	StructuredIntent  JSONMap   `json:"structured_intent"`
	ShortPrompt       string    `json:"short_prompt"`
	DetailedPrompt    string    `json:"detailed_prompt"`
	ExpertPrompt      string    `json:"expert_prompt"`
	CreatedAt         time.Time `json:"created_at"`
}

// PromptVariants holds the three composed prompt texts.
// Length targets (short <100 words, detailed 200-300, expert 300-400) are
// requested of the model, never enforced here.
type PromptVariants struct {
	Short    string `json:"short_prompt"`
	Detailed string `json:"detailed_prompt"`
	Expert   string `json:"expert_prompt"`
}
