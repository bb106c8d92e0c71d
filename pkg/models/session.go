// Package models contains domain models for intentify.
package models

import "time"

// SessionState describes how far a session has progressed through the
// capture -> generate pipeline. Derived from field presence, never stored.
type SessionState string

const (
	SessionStateNew             SessionState = "new"
	SessionStateCaptured        SessionState = "captured"
	SessionStateIntentExtracted SessionState = "intent_extracted"
)

// Session is the mutable record of one user interaction episode.
//
// Transcript only ever grows by whitespace-joined appends; ScreenSummary is
// wholesale replaced on every screen capture; StructuredIntent is overwritten
// by each successful generation and carries no guaranteed keys.
type Session struct {
	ID               string    `json:"id"`
	UserID           *string   `json:"user_id,omitempty"`
	Transcript       *string   `json:"transcript"`
	ScreenSummary    *string   `json:"screen_summary"`
	StructuredIntent JSONMap   `json:"structured_intent"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// State derives the lifecycle state from field presence.
func (s *Session) State() SessionState {
	if len(s.StructuredIntent) > 0 {
		return SessionStateIntentExtracted
	}
	if s.TranscriptText() != "" || s.ScreenSummaryText() != "" {
		return SessionStateCaptured
	}
	return SessionStateNew
}

// TranscriptText returns the transcript or "" when absent.
func (s *Session) TranscriptText() string {
	if s.Transcript == nil {
		return ""
	}
	return *s.Transcript
}

// ScreenSummaryText returns the screen summary or "" when absent.
func (s *Session) ScreenSummaryText() string {
	if s.ScreenSummary == nil {
		return ""
	}
	return *s.ScreenSummary
}
