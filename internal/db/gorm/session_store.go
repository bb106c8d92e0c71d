package gorm

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/thebtf/intentify/pkg/models"
)

// SessionStore provides session-related database operations.
//
// Sessions are long-lived and mutable. Each handler performs a read-modify-
// write cycle against the row; concurrent captures on the same session are
// not serialized here, so a lost update between two simultaneous requests
// is possible.
type SessionStore struct {
	db *gorm.DB
}

// NewSessionStore creates a new session store.
func NewSessionStore(store *Store) *SessionStore {
	return &SessionStore{db: store.DB}
}

// CreateSession creates a new session, optionally owned by a user.
func (s *SessionStore) CreateSession(ctx context.Context, userID *string) (*models.Session, error) {
	row := &Session{}
	if userID != nil {
		row.UserID = nullString(*userID)
	}

	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return toModelSession(row), nil
}

// GetSession retrieves a session by id. Returns (nil, nil) when absent.
func (s *SessionStore) GetSession(ctx context.Context, id string) (*models.Session, error) {
	var row Session
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toModelSession(&row), nil
}

// ApplyCapture writes the results of a capture in one atomic update. A nil
// transcript or screenSummary leaves that column untouched, so a combined
// capture merges both channels in a single write and a failed capture
// writes nothing at all.
func (s *SessionStore) ApplyCapture(ctx context.Context, id string, transcript, screenSummary *string) error {
	updates := map[string]any{
		"updated_at": time.Now().UTC(),
	}
	if transcript != nil {
		updates["transcript"] = *transcript
	}
	if screenSummary != nil {
		updates["screen_summary"] = *screenSummary
	}

	return s.db.WithContext(ctx).
		Model(&Session{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// SetStructuredIntent overwrites the session's structured intent.
func (s *SessionStore) SetStructuredIntent(ctx context.Context, id string, intent models.JSONMap) error {
	return s.db.WithContext(ctx).
		Model(&Session{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"structured_intent": intent,
			"updated_at":        time.Now().UTC(),
		}).Error
}

func toModelSession(row *Session) *models.Session {
	return &models.Session{
		ID:               row.ID,
		UserID:           stringPtr(row.UserID),
		Transcript:       stringPtr(row.Transcript),
		ScreenSummary:    stringPtr(row.ScreenSummary),
		StructuredIntent: row.StructuredIntent,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
}
