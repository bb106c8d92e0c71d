package gorm

import (
	"context"

	"gorm.io/gorm"

	"github.com/thebtf/intentify/pkg/models"
)

// PromptStore provides prompt-related database operations.
//
// Prompt records are immutable: one row is appended per successful
// generation call and never updated or deleted, so the full history of a
// session's generations is preserved.
type PromptStore struct {
	db *gorm.DB
}

// NewPromptStore creates a new prompt store.
func NewPromptStore(store *Store) *PromptStore {
	return &PromptStore{db: store.DB}
}

// CreatePrompt appends a new prompt record for a session.
func (s *PromptStore) CreatePrompt(ctx context.Context, prompt *models.Prompt) (*models.Prompt, error) {
	row := &Prompt{
		SessionID:         prompt.SessionID,
		RawTranscript:     nullString(prompt.RawTranscript),
		ScreenshotSummary: nullString(prompt.ScreenshotSummary),
		StructuredIntent:  prompt.StructuredIntent,
		ShortPrompt:       nullString(prompt.ShortPrompt),
		DetailedPrompt:    nullString(prompt.DetailedPrompt),
		ExpertPrompt:      nullString(prompt.ExpertPrompt),
	}

	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return toModelPrompt(row), nil
}

// ListBySession returns all prompt records for a session, newest first.
func (s *PromptStore) ListBySession(ctx context.Context, sessionID string) ([]*models.Prompt, error) {
	var rows []Prompt
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	prompts := make([]*models.Prompt, 0, len(rows))
	for i := range rows {
		prompts = append(prompts, toModelPrompt(&rows[i]))
	}
	return prompts, nil
}

// CountBySession returns the number of prompt records for a session.
func (s *PromptStore) CountBySession(ctx context.Context, sessionID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&Prompt{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error
	return count, err
}

func toModelPrompt(row *Prompt) *models.Prompt {
	return &models.Prompt{
		ID:                row.ID,
		SessionID:         row.SessionID,
		RawTranscript:     stringOrEmpty(row.RawTranscript),
		ScreenshotSummary: stringOrEmpty(row.ScreenshotSummary),
		StructuredIntent:  row.StructuredIntent,
		ShortPrompt:       stringOrEmpty(row.ShortPrompt),
		DetailedPrompt:    stringOrEmpty(row.DetailedPrompt),
		ExpertPrompt:      stringOrEmpty(row.ExpertPrompt),
		CreatedAt:         row.CreatedAt,
	}
}
