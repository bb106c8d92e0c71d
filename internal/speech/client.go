// Package speech is the client for the speech-to-text backend.
//
// Audio arrives as single-channel WEBM/Opus sampled at 48 kHz; the request
// asks the backend for automatic punctuation. One attempt per call.
package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/semaphore"
)

// ErrMissingAPIKey means no credential is configured; callers must reject
// the request before any backend call is attempted.
var ErrMissingAPIKey = errors.New("VERTEX_AI_API_KEY or GOOGLE_API_KEY required")

// BackendError is a non-2xx response from the transcription backend.
type BackendError struct {
	Status int
	Body   string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("transcription backend HTTP %d: %s", e.Status, e.Body)
}

// Config holds client settings.
type Config struct {
	APIKey       string
	Endpoint     string // e.g. https://speech.googleapis.com/v1/speech:recognize
	LanguageCode string
	Timeout      time.Duration
	MaxInFlight  int64
}

// Client issues speech:recognize calls.
type Client struct {
	apiKey       string
	endpoint     string
	languageCode string
	timeout      time.Duration
	httpClient   *http.Client
	inflight     *semaphore.Weighted
}

// NewClient creates a new transcription backend client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	maxInFlight := cfg.MaxInFlight
	if maxInFlight <= 0 {
		maxInFlight = 8
	}
	languageCode := cfg.LanguageCode
	if languageCode == "" {
		languageCode = "en-US"
	}

	return &Client{
		apiKey:       cfg.APIKey,
		endpoint:     cfg.Endpoint,
		languageCode: languageCode,
		timeout:      timeout,
		httpClient:   &http.Client{},
		inflight:     semaphore.NewWeighted(maxInFlight),
	}
}

type recognitionConfig struct {
	Encoding                   string `json:"encoding"`
	SampleRateHertz            int    `json:"sampleRateHertz"`
	LanguageCode               string `json:"languageCode"`
	EnableAutomaticPunctuation bool   `json:"enableAutomaticPunctuation"`
}

type recognizeRequest struct {
	Config recognitionConfig `json:"config"`
	Audio  struct {
		Content string `json:"content"`
	} `json:"audio"`
}

type recognizeResponse struct {
	Results []struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"results"`
}

// Transcribe converts raw audio bytes into text. Each result's top
// alternative is joined with a single space and the whole trimmed. An
// utterance the backend could not recognize yields an empty string, not an
// error.
func (c *Client) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if c.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	if err := c.inflight.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer c.inflight.Release(1)

	reqBody := recognizeRequest{
		Config: recognitionConfig{
			Encoding:                   "WEBM_OPUS",
			SampleRateHertz:            48000,
			LanguageCode:               c.languageCode,
			EnableAutomaticPunctuation: true,
		},
	}
	reqBody.Audio.Content = base64.StdEncoding.EncodeToString(audio)

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := fmt.Sprintf("%s?key=%s", c.endpoint, c.apiKey)
	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription backend request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &BackendError{Status: resp.StatusCode, Body: string(body)}
	}

	var envelope recognizeResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}

	var parts []string
	for _, result := range envelope.Results {
		if len(result.Alternatives) > 0 && result.Alternatives[0].Transcript != "" {
			parts = append(parts, result.Alternatives[0].Transcript)
		}
	}
	return strings.TrimSpace(strings.Join(parts, " ")), nil
}
