package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"regexp"
	"strings"

	"coursepilot-backend/internal/models"
	"coursepilot-backend/internal/services"
)

type discoverer interface {
	Discover(ctx context.Context, topic string) ([]models.ScoredCandidate, error)
}

type transcriptResolver interface {
	Resolve(ctx context.Context, videoID string) models.TranscriptResult
}

type VideoHandler struct {
	discovery   discoverer
	transcripts transcriptResolver
}

func NewVideoHandler(discovery discoverer, transcripts transcriptResolver) *VideoHandler {
	return &VideoHandler{discovery: discovery, transcripts: transcripts}
}

// Curate returns the ranked candidate list for a topic without building a
// full course.
func (h *VideoHandler) Curate(w http.ResponseWriter, r *http.Request) {
	var req models.CurateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Topic is required", r))
		return
	}

	candidates, err := h.discovery.Discover(r.Context(), topic)
	if err != nil {
		log.Printf("Curation failed for topic %q: %v", topic, err)
		if errors.Is(err, services.ErrNoCandidates) {
			writeJSON(w, http.StatusNotFound, errorResp("NO_CANDIDATES", "No videos found for the given topic", r))
			return
		}
		writeJSON(w, http.StatusBadGateway, errorResp("UPSTREAM_ERROR", "Video search failed", r))
		return
	}

	writeJSON(w, http.StatusOK, candidates)
}

var videoIDRegex = regexp.MustCompile(`^[\w-]{11}$`)

// Transcript resolves the transcript for one video. "No transcript" is a
// valid 200 response, not an error.
func (h *VideoHandler) Transcript(w http.ResponseWriter, r *http.Request) {
	var req models.TranscriptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if !videoIDRegex.MatchString(req.VideoID) {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid video ID", r))
		return
	}

	result := h.transcripts.Resolve(r.Context(), req.VideoID)
	if result.Unavailable {
		writeJSON(w, http.StatusOK, models.TranscriptResponse{NoTranscript: true})
		return
	}

	writeJSON(w, http.StatusOK, models.TranscriptResponse{
		Transcript: result.Text,
		Fallback:   result.FromDescription,
	})
}

// Shared helpers

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}
