// Package llmjson extracts JSON payloads from generative model output.
//
// Models frequently wrap otherwise-valid JSON in markdown code fences, with
// or without a language tag. StripFences removes them; Decode strips and
// parses in one step. Neither touches the network.
package llmjson

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

const fence = "```"

// StripFences removes an optional leading markdown fence (with or without a
// language tag such as "json") and an optional trailing fence, then trims
// surrounding whitespace. Input without fences passes through unchanged
// apart from trimming.
func StripFences(text string) string {
	s := strings.TrimSpace(text)

	if strings.HasPrefix(s, fence) {
		rest := s[len(fence):]
		// Drop the language tag: everything up to the first newline,
		// as long as it looks like a tag and not JSON content.
		if idx := strings.IndexByte(rest, '\n'); idx >= 0 {
			tag := strings.TrimSpace(rest[:idx])
			if !strings.ContainsAny(tag, "{}[]\" ") {
				rest = rest[idx+1:]
			}
		} else {
			tag := strings.TrimSpace(rest)
			if !strings.ContainsAny(tag, "{}[]\" ") {
				rest = ""
			}
		}
		s = rest
	}

	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, fence) {
		s = s[:len(s)-len(fence)]
	}
	return strings.TrimSpace(s)
}

// Decode strips fences from text and unmarshals the remainder into a JSON
// object. The object's schema is advisory: whatever keys the model returned
// are passed through untouched.
func Decode(text string) (map[string]any, error) {
	cleaned := StripFences(text)

	var out map[string]any
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil, fmt.Errorf("decode model JSON: %w", err)
	}
	return out, nil
}
