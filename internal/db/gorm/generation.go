package gorm

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/thebtf/intentify/pkg/models"
)

// RecordGeneration persists the outcome of one generation call in a single
// transaction: the session's structured intent is overwritten and a new
// immutable prompt record is appended. Either both writes land or neither
// does, matching the all-or-nothing per-request policy.
func (s *Store) RecordGeneration(ctx context.Context, sessionID string, intent models.JSONMap, prompt *models.Prompt) (*models.Prompt, error) {
	row := &Prompt{
		SessionID:         sessionID,
		RawTranscript:     nullString(prompt.RawTranscript),
		ScreenshotSummary: nullString(prompt.ScreenshotSummary),
		StructuredIntent:  intent,
		ShortPrompt:       nullString(prompt.ShortPrompt),
		DetailedPrompt:    nullString(prompt.DetailedPrompt),
		ExpertPrompt:      nullString(prompt.ExpertPrompt),
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Session{}).
			Where("id = ?", sessionID).
			Updates(map[string]any{
				"structured_intent": intent,
				"updated_at":        time.Now().UTC(),
			}).Error; err != nil {
			return err
		}
		return tx.Create(row).Error
	})
	if err != nil {
		return nil, err
	}
	return toModelPrompt(row), nil
}
