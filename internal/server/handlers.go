package server

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/intentify/internal/server/sse"
	"github.com/thebtf/intentify/pkg/models"
)

const maxUploadMemory = 32 << 20

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (s *Service) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Intentify API"})
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if !s.ready.Load() {
		status = "shutting_down"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  status,
		"version": s.version,
		"uptime":  time.Since(s.startTime).String(),
	})
}

// handleModelHealth probes the generative backend with a fixed prompt.
func (s *Service) handleModelHealth(w http.ResponseWriter, r *http.Request) {
	reply, err := s.prober.Probe(r.Context())
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "error",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"model":  s.config.Model,
		"reply":  reply,
	})
}

type startSessionRequest struct {
	UserID *string `json:"user_id"`
}

func (s *Service) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if body, err := io.ReadAll(r.Body); err == nil && len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
			return
		}
	}
	if req.UserID != nil {
		if _, err := uuid.Parse(*req.UserID); err != nil {
			writeError(w, http.StatusBadRequest, errors.New("invalid user ID"))
			return
		}
	}

	session, err := s.sessionStore.CreateSession(r.Context(), req.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

func (s *Service) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := s.resolveSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Service) handleListPrompts(w http.ResponseWriter, r *http.Request) {
	session, ok := s.resolveSession(w, r)
	if !ok {
		return
	}

	prompts, err := s.promptStore.ListBySession(r.Context(), session.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": session.ID,
		"prompts":    prompts,
	})
}

func (s *Service) handleUploadAudio(w http.ResponseWriter, r *http.Request) {
	session, ok := s.resolveSession(w, r)
	if !ok {
		return
	}

	audio, ok := s.requireFormFile(w, r, "file")
	if !ok {
		return
	}

	transcript, err := s.ingestor.IngestAudio(r.Context(), session.TranscriptText(), audio)
	if err != nil {
		s.metrics.recordFailure(r.Context(), "audio")
		writeError(w, statusFor(err), err)
		return
	}

	if err := s.sessionStore.ApplyCapture(r.Context(), session.ID, &transcript, nil); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.metrics.recordCapture(r.Context(), "audio")
	s.sseBroadcaster.Broadcast(sse.Event{Type: "capture", SessionID: session.ID})

	writeJSON(w, http.StatusOK, map[string]string{
		"transcript": transcript,
		"session_id": session.ID,
	})
}

func (s *Service) handleUploadScreen(w http.ResponseWriter, r *http.Request) {
	session, ok := s.resolveSession(w, r)
	if !ok {
		return
	}

	screenshot, ok := s.requireFormFile(w, r, "file")
	if !ok {
		return
	}

	summary, err := s.ingestor.IngestScreen(r.Context(), screenshot)
	if err != nil {
		s.metrics.recordFailure(r.Context(), "screen")
		writeError(w, statusFor(err), err)
		return
	}

	if err := s.sessionStore.ApplyCapture(r.Context(), session.ID, nil, &summary); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.metrics.recordCapture(r.Context(), "screen")
	s.sseBroadcaster.Broadcast(sse.Event{Type: "capture", SessionID: session.ID})

	writeJSON(w, http.StatusOK, map[string]string{
		"screen_summary": summary,
		"session_id":     session.ID,
	})
}

// handleCapture processes audio and/or screen in one request. Both backend
// calls run concurrently; the session is updated once, atomically, only
// after every requested channel succeeded.
func (s *Service) handleCapture(w http.ResponseWriter, r *http.Request) {
	session, ok := s.resolveSession(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid multipart form"))
		return
	}
	audio, err := formFile(r, "audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	screenshot, err := formFile(r, "screen")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := s.ingestor.Capture(r.Context(), session.TranscriptText(), audio, screenshot)
	if err != nil {
		s.metrics.recordFailure(r.Context(), "capture")
		writeError(w, statusFor(err), err)
		return
	}

	if err := s.sessionStore.ApplyCapture(r.Context(), session.ID, result.Transcript, result.ScreenSummary); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.metrics.recordCapture(r.Context(), "combined")
	s.sseBroadcaster.Broadcast(sse.Event{Type: "capture", SessionID: session.ID})

	transcript := session.TranscriptText()
	if result.Transcript != nil {
		transcript = *result.Transcript
	}
	summary := session.ScreenSummaryText()
	if result.ScreenSummary != nil {
		summary = *result.ScreenSummary
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"transcript":     transcript,
		"screen_summary": summary,
		"session_id":     session.ID,
	})
}

type generateRequest struct {
	Transcript    string `json:"transcript"`
	ScreenSummary string `json:"screen_summary"`
}

// handleGenerate resolves the effective transcript and screen summary
// (non-empty body overrides win over stored values, but are themselves
// never persisted), extracts structured intent, composes the three prompt
// variants, and persists intent + a new prompt record in one transaction.
func (s *Service) handleGenerate(w http.ResponseWriter, r *http.Request) {
	session, ok := s.resolveSession(w, r)
	if !ok {
		return
	}

	var req generateRequest
	if body, err := io.ReadAll(r.Body); err == nil && len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
			return
		}
	}

	transcript := session.TranscriptText()
	if strings.TrimSpace(req.Transcript) != "" {
		transcript = req.Transcript
	}
	summary := session.ScreenSummaryText()
	if strings.TrimSpace(req.ScreenSummary) != "" {
		summary = req.ScreenSummary
	}

	// Rejected before any backend call is made.
	if strings.TrimSpace(transcript) == "" && strings.TrimSpace(summary) == "" {
		writeError(w, statusFor(ErrEmptyInput), ErrEmptyInput)
		return
	}

	structuredIntent, err := s.extractor.Extract(r.Context(), transcript, summary)
	if err != nil {
		s.metrics.recordFailure(r.Context(), "generate")
		writeError(w, statusFor(err), err)
		return
	}

	variants, err := s.composer.Compose(r.Context(), structuredIntent)
	if err != nil {
		s.metrics.recordFailure(r.Context(), "generate")
		writeError(w, statusFor(err), err)
		return
	}

	_, err = s.store.RecordGeneration(r.Context(), session.ID, structuredIntent, &models.Prompt{
		RawTranscript:     transcript,
		ScreenshotSummary: summary,
		ShortPrompt:       variants.Short,
		DetailedPrompt:    variants.Detailed,
		ExpertPrompt:      variants.Expert,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.metrics.recordGeneration(r.Context())
	s.sseBroadcaster.Broadcast(sse.Event{Type: "generation", SessionID: session.ID})

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id":        session.ID,
		"short_prompt":      variants.Short,
		"detailed_prompt":   variants.Detailed,
		"expert_prompt":     variants.Expert,
		"structured_intent": structuredIntent,
	})
}

// resolveSession validates the session id and loads the session, writing
// the error response itself when either step fails.
func (s *Service) resolveSession(w http.ResponseWriter, r *http.Request) (*models.Session, bool) {
	id := chi.URLParam(r, "sessionID")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, statusFor(ErrInvalidSessionID), ErrInvalidSessionID)
		return nil, false
	}

	session, err := s.sessionStore.GetSession(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return nil, false
	}
	if session == nil {
		writeError(w, statusFor(ErrSessionNotFound), ErrSessionNotFound)
		return nil, false
	}
	return session, true
}

// requireFormFile reads a mandatory multipart file field.
func (s *Service) requireFormFile(w http.ResponseWriter, r *http.Request, field string) ([]byte, bool) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid multipart form"))
		return nil, false
	}
	data, err := formFile(r, field)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return nil, false
	}
	if data == nil {
		writeError(w, http.StatusBadRequest, errors.New("missing file upload"))
		return nil, false
	}
	return data, true
}

// formFile reads an optional multipart file field. Returns (nil, nil) when
// the field is absent.
func formFile(r *http.Request, field string) ([]byte, error) {
	file, _, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	return data, nil
}
