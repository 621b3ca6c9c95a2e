package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"coursepilot-backend/internal/models"
	"coursepilot-backend/internal/services"
)

type fakeDiscoverer struct {
	candidates []models.ScoredCandidate
	err        error
}

func (f *fakeDiscoverer) Discover(ctx context.Context, topic string) ([]models.ScoredCandidate, error) {
	return f.candidates, f.err
}

type fakeResolver struct {
	result models.TranscriptResult
}

func (f *fakeResolver) Resolve(ctx context.Context, videoID string) models.TranscriptResult {
	return f.result
}

func TestCurate_Success(t *testing.T) {
	candidates := []models.ScoredCandidate{
		{
			VideoCandidate: models.VideoCandidate{VideoID: "abc123def45", Title: "Go Tutorial"},
			Score:          72.5,
			DurationMin:    15,
		},
		{
			VideoCandidate: models.VideoCandidate{VideoID: "xyz987wvu65", Title: "Go Basics"},
			Score:          61.0,
			DurationMin:    22,
		},
	}
	h := NewVideoHandler(&fakeDiscoverer{candidates: candidates}, &fakeResolver{})

	rr := postJSON(t, h.Curate, "/api/v1/videos/curate", models.CurateRequest{Topic: "golang"})

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var got []models.ScoredCandidate
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("Failed to decode candidates: %v", err)
	}
	if len(got) != 2 || got[0].VideoID != "abc123def45" {
		t.Errorf("Unexpected candidate payload: %+v", got)
	}
}

func TestCurate_EmptyTopic(t *testing.T) {
	h := NewVideoHandler(&fakeDiscoverer{}, &fakeResolver{})

	rr := postJSON(t, h.Curate, "/api/v1/videos/curate", models.CurateRequest{Topic: "  "})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rr.Code)
	}
}

func TestCurate_NoCandidates(t *testing.T) {
	h := NewVideoHandler(&fakeDiscoverer{err: services.ErrNoCandidates}, &fakeResolver{})

	rr := postJSON(t, h.Curate, "/api/v1/videos/curate", models.CurateRequest{Topic: "nonsense"})

	if rr.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", rr.Code)
	}
	if resp := decodeError(t, rr); resp.Error.Code != "NO_CANDIDATES" {
		t.Errorf("Expected NO_CANDIDATES, got %s", resp.Error.Code)
	}
}

func TestTranscript_Success(t *testing.T) {
	h := NewVideoHandler(&fakeDiscoverer{}, &fakeResolver{
		result: models.TranscriptResult{Text: "caption text"},
	})

	rr := postJSON(t, h.Transcript, "/api/v1/videos/transcript", models.TranscriptRequest{VideoID: "abc123def45"})

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	var resp models.TranscriptResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Transcript != "caption text" || resp.Fallback || resp.NoTranscript {
		t.Errorf("Unexpected transcript response: %+v", resp)
	}
}

func TestTranscript_DescriptionFallback(t *testing.T) {
	h := NewVideoHandler(&fakeDiscoverer{}, &fakeResolver{
		result: models.TranscriptResult{Text: "description text", FromDescription: true},
	})

	rr := postJSON(t, h.Transcript, "/api/v1/videos/transcript", models.TranscriptRequest{VideoID: "abc123def45"})

	var resp models.TranscriptResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !resp.Fallback {
		t.Error("Expected fallback flag set for description-sourced text")
	}
}

func TestTranscript_Unavailable(t *testing.T) {
	h := NewVideoHandler(&fakeDiscoverer{}, &fakeResolver{
		result: models.TranscriptResult{Unavailable: true},
	})

	rr := postJSON(t, h.Transcript, "/api/v1/videos/transcript", models.TranscriptRequest{VideoID: "abc123def45"})

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200 for missing transcript, got %d", rr.Code)
	}
	var resp models.TranscriptResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !resp.NoTranscript || resp.Transcript != "" {
		t.Errorf("Unexpected response for unavailable transcript: %+v", resp)
	}
}

func TestTranscript_InvalidVideoID(t *testing.T) {
	h := NewVideoHandler(&fakeDiscoverer{}, &fakeResolver{})

	tests := []struct {
		name    string
		videoID string
	}{
		{"empty", ""},
		{"too short", "abc123"},
		{"too long", "abc123def45678"},
		{"bad characters", "abc!23def45"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := postJSON(t, h.Transcript, "/api/v1/videos/transcript", models.TranscriptRequest{VideoID: tc.videoID})
			if rr.Code != http.StatusBadRequest {
				t.Errorf("Expected 400 for video id %q, got %d", tc.videoID, rr.Code)
			}
		})
	}
}
