// Package gorm provides GORM-based database operations for intentify.
package gorm

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/thebtf/intentify/pkg/models"
)

// GORM Models

// Session represents one user interaction episode.
type Session struct {
	ID               string         `gorm:"primaryKey;type:uuid"`
	UserID           sql.NullString `gorm:"type:uuid;index"`
	Transcript       sql.NullString `gorm:"type:text"`
	ScreenSummary    sql.NullString `gorm:"type:text"`
	StructuredIntent models.JSONMap `gorm:"type:text"`
	CreatedAt        time.Time      `gorm:"not null"`
	UpdatedAt        time.Time      `gorm:"not null;index:idx_sessions_updated,sort:desc"`
}

func (Session) TableName() string { return "sessions" }

// BeforeCreate hook to ensure id and timestamps are set.
func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = now
	}
	return nil
}

// Prompt is an immutable record of one generation event.
type Prompt struct {
	ID                string         `gorm:"primaryKey;type:uuid"`
	SessionID         string         `gorm:"type:uuid;not null;index:idx_prompts_session"`
	RawTranscript     sql.NullString `gorm:"type:text"`
	ScreenshotSummary sql.NullString `gorm:"type:text"`
	StructuredIntent  models.JSONMap `gorm:"type:text"`
	ShortPrompt       sql.NullString `gorm:"type:text"`
	DetailedPrompt    sql.NullString `gorm:"type:text"`
	ExpertPrompt      sql.NullString `gorm:"type:text"`
	CreatedAt         time.Time      `gorm:"not null;index:idx_prompts_created,sort:desc"`
}

func (Prompt) TableName() string { return "prompts" }

// BeforeCreate hook to ensure id and timestamp are set.
func (p *Prompt) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	return nil
}
