package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"coursepilot-backend/internal/handlers"
	"coursepilot-backend/internal/middleware"
)

func New(
	courseHandler *handlers.CourseHandler,
	videoHandler *handlers.VideoHandler,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Course builds are expensive (multiple provider + LLM calls per run).
	buildLimiter := middleware.NewRateLimiter(10, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Course Routes ────
		r.Route("/courses", func(r chi.Router) {
			r.Use(buildLimiter.Middleware)
			r.Post("/build", courseHandler.Build)
		})

		// ──── Video Routes ────
		r.Route("/videos", func(r chi.Router) {
			r.Post("/curate", videoHandler.Curate)
			r.Post("/transcript", videoHandler.Transcript)
		})
	})

	return r
}
