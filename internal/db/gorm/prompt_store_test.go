package gorm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thebtf/intentify/pkg/models"
)

func TestPromptStore_CreateAndList(t *testing.T) {
	store, cleanup := testStore(t)
	defer cleanup()

	sessions := NewSessionStore(store)
	prompts := NewPromptStore(store)
	ctx := context.Background()

	session, err := sessions.CreateSession(ctx, nil)
	require.NoError(t, err)

	created, err := prompts.CreatePrompt(ctx, &models.Prompt{
		SessionID:         session.ID,
		RawTranscript:     "hello world",
		ScreenshotSummary: "a failing build",
		StructuredIntent:  models.JSONMap{"goal": "fix it"},
		ShortPrompt:       "short",
		DetailedPrompt:    "detailed",
		ExpertPrompt:      "expert",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	list, err := prompts.ListBySession(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "hello world", list[0].RawTranscript)
	assert.Equal(t, "short", list[0].ShortPrompt)
	assert.Equal(t, "fix it", list[0].StructuredIntent["goal"])
}

func TestPromptStore_HistoryPreserved(t *testing.T) {
	store, cleanup := testStore(t)
	defer cleanup()

	sessions := NewSessionStore(store)
	prompts := NewPromptStore(store)
	ctx := context.Background()

	session, err := sessions.CreateSession(ctx, nil)
	require.NoError(t, err)

	// Every generation appends; nothing is replaced.
	for i := 0; i < 3; i++ {
		_, err := prompts.CreatePrompt(ctx, &models.Prompt{
			SessionID:   session.ID,
			ShortPrompt: "s",
		})
		require.NoError(t, err)
	}

	count, err := prompts.CountBySession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestPromptStore_ListEmpty(t *testing.T) {
	store, cleanup := testStore(t)
	defer cleanup()

	prompts := NewPromptStore(store)

	list, err := prompts.ListBySession(context.Background(), "aaaaaaaa-0000-4000-8000-000000000000")
	require.NoError(t, err)
	assert.Empty(t, list)
}
