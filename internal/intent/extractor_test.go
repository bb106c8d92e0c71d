package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	text   string
	err    error
	prompt string
}

func (f *fakeGenerator) GenerateText(ctx context.Context, prompt string, image []byte) (string, error) {
	f.prompt = prompt
	if image != nil {
		return "", errors.New("intent extraction must not send an image")
	}
	return f.text, f.err
}

func TestBuildPrompt_EmbedsInputsVerbatim(t *testing.T) {
	prompt := BuildPrompt("fix my docker build", "terminal showing exit code 1")

	assert.Contains(t, prompt, "Transcript: fix my docker build")
	assert.Contains(t, prompt, "Screen Summary: terminal showing exit code 1")
	for _, field := range []string{"goal", "current_state", "constraints", "tools", "skill_level", "desired_output"} {
		assert.Contains(t, prompt, field)
	}
	assert.Contains(t, prompt, "Return ONLY valid JSON")
}

func TestExtract(t *testing.T) {
	gen := &fakeGenerator{text: `{"goal":"fix build","skill_level":"intermediate","tools":["docker"]}`}
	extractor := NewExtractor(gen)

	record, err := extractor.Extract(context.Background(), "fix my docker build", "")
	require.NoError(t, err)
	assert.Equal(t, "fix build", record["goal"])
	assert.Equal(t, "intermediate", record["skill_level"])
}

func TestExtract_StripsFences(t *testing.T) {
	gen := &fakeGenerator{text: "```json\n{\"goal\":\"fix build\"}\n```"}
	extractor := NewExtractor(gen)

	record, err := extractor.Extract(context.Background(), "t", "s")
	require.NoError(t, err)
	assert.Equal(t, "fix build", record["goal"])
}

func TestExtract_AdvisorySchema(t *testing.T) {
	// A record missing expected fields is still accepted.
	gen := &fakeGenerator{text: `{"goal":"only a goal"}`}
	extractor := NewExtractor(gen)

	record, err := extractor.Extract(context.Background(), "t", "s")
	require.NoError(t, err)
	assert.Equal(t, "only a goal", record["goal"])
	assert.NotContains(t, record, "constraints")
}

func TestExtract_GenerationError(t *testing.T) {
	backendErr := errors.New("backend down")
	extractor := NewExtractor(&fakeGenerator{err: backendErr})

	_, err := extractor.Extract(context.Background(), "t", "s")

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.ErrorIs(t, err, backendErr)
}

func TestExtract_ParseError(t *testing.T) {
	extractor := NewExtractor(&fakeGenerator{text: "I cannot produce JSON today"})

	_, err := extractor.Extract(context.Background(), "t", "s")

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)

	var genErr *GenerationError
	assert.False(t, errors.As(err, &genErr), "parse failures are distinct from backend failures")
}
