package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coursepilot-backend/internal/cache"
	"coursepilot-backend/internal/config"
	"coursepilot-backend/internal/database"
	"coursepilot-backend/internal/handlers"
	"coursepilot-backend/internal/pipeline"
	"coursepilot-backend/internal/router"
	"coursepilot-backend/internal/services"
)

func main() {
	log.Println("🚀 Starting CoursePilot Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize Redis ────
	redisClient, err := database.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClient.Close()
	log.Println("✓ Redis connected")

	ctx := context.Background()

	// ──── Step 3: Initialize YouTube Discovery ────
	discoveryService, err := services.NewDiscoveryService(ctx, cfg.YouTubeAPIKey, cfg.SearchResultsPerQuery)
	if err != nil {
		log.Fatalf("✗ YouTube client initialization failed: %v", err)
	}
	log.Println("✓ YouTube Data API client initialized")

	// ──── Step 4: Initialize Gemini Synthesizer ────
	synthesizerService, err := services.NewSynthesizerService(ctx, cfg.GeminiAPIKey)
	if err != nil {
		log.Fatalf("✗ Gemini client initialization failed: %v", err)
	}
	defer synthesizerService.Close()
	log.Println("✓ Gemini Flash client initialized")

	// ──── Initialize Services ────
	transcriptService := services.NewTranscriptService()
	courseBuilder := pipeline.NewBuilder(discoveryService, transcriptService, synthesizerService, cfg.MaxLessons)
	courseCache := cache.NewCourseCache(redisClient, time.Duration(cfg.CourseCacheTTLHours)*time.Hour)

	// ──── Initialize Handlers ────
	buildTimeout := time.Duration(cfg.PipelineTimeoutSeconds) * time.Second
	courseHandler := handlers.NewCourseHandler(courseBuilder, courseCache, buildTimeout)
	videoHandler := handlers.NewVideoHandler(discoveryService, transcriptService)

	// ──── Step 5: Start HTTP Server ────
	r := router.New(courseHandler, videoHandler, cfg.FrontendURL)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: buildTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Printf("✓ CoursePilot Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
