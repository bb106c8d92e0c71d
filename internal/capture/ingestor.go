// Package capture turns raw audio and screenshot uploads into session text.
//
// Audio becomes transcript text that accumulates by whitespace-joined
// appends; screenshots become a screen summary that is wholesale replaced on
// every upload. A combined capture runs both channels concurrently and is
// all-or-nothing: if either channel fails, nothing is merged.
package capture

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// visionPrompt is the fixed instruction for screenshot analysis. It asks the
// model to diagnose why the user's task is blocked rather than to describe
// the pixels.
const visionPrompt = `You are analyzing a screenshot of a user's screen to understand why their current task is blocked or not progressing.

Focus on diagnosis, not description:
1. What task is the user in the middle of, and where has it stalled?
2. What error messages, warnings, or failure states are visible?
3. What is the most likely cause preventing the user from moving forward?
4. What relevant context (application, file, command, URL) does the blockage involve?

Answer as a concise diagnostic summary a support engineer could act on.`

// ErrNoChannels means a combined capture carried neither audio nor a screenshot.
var ErrNoChannels = errors.New("at least one of audio or screen must be provided")

// ChannelError reports which capture channel failed.
type ChannelError struct {
	Channel string // "audio" or "screen"
	Err     error
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("%s channel: %v", e.Channel, e.Err)
}

func (e *ChannelError) Unwrap() error {
	return e.Err
}

// Transcriber converts raw audio bytes into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// VisionClient issues vision-augmented generation calls.
type VisionClient interface {
	GenerateText(ctx context.Context, prompt string, image []byte) (string, error)
}

// Ingestor runs the capture side of the pipeline.
type Ingestor struct {
	transcriber Transcriber
	vision      VisionClient
}

// NewIngestor creates an Ingestor over the given backends.
func NewIngestor(transcriber Transcriber, vision VisionClient) *Ingestor {
	return &Ingestor{transcriber: transcriber, vision: vision}
}

// AppendTranscript joins existing transcript text and a new addition with a
// single space, dropping empty pieces and surrounding whitespace. Pure.
func AppendTranscript(existing, addition string) string {
	existing = strings.TrimSpace(existing)
	addition = strings.TrimSpace(addition)
	if existing == "" {
		return addition
	}
	if addition == "" {
		return existing
	}
	return existing + " " + addition
}

// IngestAudio transcribes audio and appends the result to the session
// transcript, returning the new transcript value.
func (i *Ingestor) IngestAudio(ctx context.Context, sessionTranscript string, audio []byte) (string, error) {
	text, err := i.transcriber.Transcribe(ctx, audio)
	if err != nil {
		return "", &ChannelError{Channel: "audio", Err: err}
	}
	return AppendTranscript(sessionTranscript, text), nil
}

// IngestScreen analyzes a screenshot and returns the new screen summary,
// which unconditionally replaces any prior value.
func (i *Ingestor) IngestScreen(ctx context.Context, screenshot []byte) (string, error) {
	summary, err := i.vision.GenerateText(ctx, visionPrompt, screenshot)
	if err != nil {
		return "", &ChannelError{Channel: "screen", Err: err}
	}
	return summary, nil
}

// Result is the outcome of a combined capture. A nil field means that
// channel was not part of the request and must be left untouched.
type Result struct {
	Transcript    *string
	ScreenSummary *string
}

// Capture processes audio and/or a screenshot in one request. The two
// backend calls have no ordering dependency and run concurrently; results
// are only returned when every requested channel succeeded, so the caller
// can merge them into a single atomic session update. On any failure no
// partial result is returned.
func (i *Ingestor) Capture(ctx context.Context, sessionTranscript string, audio, screenshot []byte) (Result, error) {
	if audio == nil && screenshot == nil {
		return Result{}, ErrNoChannels
	}

	var result Result
	g, gctx := errgroup.WithContext(ctx)

	if audio != nil {
		g.Go(func() error {
			transcript, err := i.IngestAudio(gctx, sessionTranscript, audio)
			if err != nil {
				return err
			}
			result.Transcript = &transcript
			return nil
		})
	}
	if screenshot != nil {
		g.Go(func() error {
			summary, err := i.IngestScreen(gctx, screenshot)
			if err != nil {
				return err
			}
			result.ScreenSummary = &summary
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	return result, nil
}
