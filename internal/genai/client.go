// Package genai is the client for the generative text/vision backend.
//
// It issues single-turn generateContent calls over REST and extracts plain
// text from the response envelope. Every call is a single attempt with a
// bounded timeout; retry policy, if any, belongs to the caller. The client
// is stateless across calls.
package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/semaphore"
)

const defaultMaxInFlight = 8

// Config holds client settings.
type Config struct {
	APIKey      string
	BaseURL     string // e.g. https://generativelanguage.googleapis.com/v1beta
	Model       string
	Timeout     time.Duration
	MaxInFlight int64 // bound on concurrent backend calls across all requests
}

// Client issues generateContent calls.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	timeout    time.Duration
	httpClient *http.Client
	inflight   *semaphore.Weighted
}

// NewClient creates a new generative backend client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	maxInFlight := cfg.MaxInFlight
	if maxInFlight <= 0 {
		maxInFlight = defaultMaxInFlight
	}

	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		model:   cfg.Model,
		timeout: timeout,
		// The overall client timeout is handled per request context.
		httpClient: &http.Client{},
		inflight:   semaphore.NewWeighted(maxInFlight),
	}
}

// GenerateText sends prompt to the model and returns the extracted text.
// A non-nil image switches the call into a vision-augmented request with an
// inline PNG part. Extraction concatenates the text of every part across
// every candidate in order, then trims whitespace.
func (c *Client) GenerateText(ctx context.Context, prompt string, image []byte) (string, error) {
	if c.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	// Bound outbound concurrency so a burst of capture/generate requests
	// cannot monopolize the process with slow backend calls.
	if err := c.inflight.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer c.inflight.Release(1)

	parts := []Part{{Text: prompt}}
	if image != nil {
		parts = append(parts, Part{InlineData: &InlineData{
			MIMEType: "image/png",
			Data:     base64.StdEncoding.EncodeToString(image),
		}})
	}
	reqBody := Request{
		Contents: []Content{{Role: "user", Parts: parts}},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("generative backend request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &BackendError{Status: resp.StatusCode, Body: string(body)}
	}

	var envelope Response
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", fmt.Errorf("parse response envelope: %w", err)
	}
	if envelope.Error != nil {
		return "", &BackendError{Status: envelope.Error.Code, Body: envelope.Error.Message}
	}

	var sb strings.Builder
	for _, candidate := range envelope.Candidates {
		for _, part := range candidate.Content.Parts {
			sb.WriteString(part.Text)
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// Probe checks that the generative backend is reachable by asking the model
// for a fixed reply. Returns the (truncated) reply text.
func (c *Client) Probe(ctx context.Context) (string, error) {
	out, err := c.GenerateText(ctx, "Reply with exactly: OK", nil)
	if err != nil {
		return "", err
	}
	if len(out) > 80 {
		out = out[:80]
	}
	return out, nil
}
