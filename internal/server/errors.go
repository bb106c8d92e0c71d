package server

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/intentify/internal/capture"
	"github.com/thebtf/intentify/internal/compose"
	"github.com/thebtf/intentify/internal/genai"
	"github.com/thebtf/intentify/internal/intent"
	"github.com/thebtf/intentify/internal/speech"
)

// Request-level errors raised before any backend work happens.
var (
	ErrInvalidSessionID = errors.New("invalid session ID")
	ErrSessionNotFound  = errors.New("session not found")
	ErrEmptyInput       = errors.New("session needs transcript or screen summary")
)

type errorResponse struct {
	Error string `json:"error"`
}

// writeError writes a structured error response. Every failure surfaces a
// human-readable message; nothing is silently swallowed.
func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encodeErr := json.NewEncoder(w).Encode(errorResponse{Error: err.Error()}); encodeErr != nil {
		log.Error().Err(encodeErr).Msg("Failed to encode error response")
	}
}

// statusFor maps the closed error taxonomy onto HTTP statuses so callers
// can branch on kind instead of parsing messages:
//
//	400 invalid identifier / empty input / no capture channels
//	404 session not found
//	502 backend failure, empty model response, or unparseable model output
//	503 missing backend credentials (rejected before any backend call)
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidSessionID),
		errors.Is(err, ErrEmptyInput),
		errors.Is(err, capture.ErrNoChannels):
		return http.StatusBadRequest
	case errors.Is(err, ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, genai.ErrMissingAPIKey),
		errors.Is(err, speech.ErrMissingAPIKey):
		return http.StatusServiceUnavailable
	case errors.Is(err, genai.ErrEmptyResponse):
		return http.StatusBadGateway
	}

	var (
		genaiBackend      *genai.BackendError
		speechBackend     *speech.BackendError
		intentParse       *intent.ParseError
		composeParse      *compose.ParseError
		intentGeneration  *intent.GenerationError
		composeGeneration *compose.GenerationError
	)
	switch {
	case errors.As(err, &genaiBackend),
		errors.As(err, &speechBackend),
		errors.As(err, &intentParse),
		errors.As(err, &composeParse),
		errors.As(err, &intentGeneration),
		errors.As(err, &composeGeneration):
		return http.StatusBadGateway
	}

	return http.StatusInternalServerError
}
