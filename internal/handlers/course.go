package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"coursepilot-backend/internal/cache"
	"coursepilot-backend/internal/models"
	"coursepilot-backend/internal/services"
)

type courseBuilder interface {
	Build(ctx context.Context, topic string) (*models.Course, error)
}

type CourseHandler struct {
	builder      courseBuilder
	courseCache  *cache.CourseCache
	buildTimeout time.Duration
}

func NewCourseHandler(builder courseBuilder, courseCache *cache.CourseCache, buildTimeout time.Duration) *CourseHandler {
	return &CourseHandler{
		builder:      builder,
		courseCache:  courseCache,
		buildTimeout: buildTimeout,
	}
}

// Build generates a full course for a topic, serving a cached course when one
// exists. Failure is binary: a structurally valid course, or an error when
// discovery itself failed.
func (h *CourseHandler) Build(w http.ResponseWriter, r *http.Request) {
	var req models.BuildCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Topic is required", r))
		return
	}

	if course, ok := h.courseCache.Get(r.Context(), topic); ok {
		log.Printf("Serving cached course for topic %q", topic)
		writeJSON(w, http.StatusOK, course)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.buildTimeout)
	defer cancel()

	course, err := h.builder.Build(ctx, topic)
	if err != nil {
		log.Printf("Course build failed for topic %q: %v", topic, err)
		if errors.Is(err, services.ErrNoCandidates) {
			writeJSON(w, http.StatusNotFound, errorResp("NO_CANDIDATES", "No videos found for the given topic", r))
			return
		}
		writeJSON(w, http.StatusBadGateway, errorResp("PIPELINE_FAILED", "Course generation failed", r))
		return
	}

	h.courseCache.Set(r.Context(), topic, course)
	writeJSON(w, http.StatusOK, course)
}
