package pipeline

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"coursepilot-backend/internal/models"
	"coursepilot-backend/internal/services"
)

// Builder drives one course-generation run: discovery once, then transcript
// resolution and lesson synthesis per selected candidate, fault-isolated, and
// a final sorted assembly. Stage backends are injected so the transport
// (live APIs vs fakes) is swappable without touching pipeline logic.

const defaultMaxLessons = 5

// Fallback duration when a candidate's duration could not be parsed.
const defaultLessonMinutes = 10

type Discoverer interface {
	Discover(ctx context.Context, topic string) ([]models.ScoredCandidate, error)
}

type TranscriptResolver interface {
	Resolve(ctx context.Context, videoID string) models.TranscriptResult
}

type Synthesizer interface {
	Synthesize(ctx context.Context, text, title string, levelHint models.Level) models.LessonContent
}

type Builder struct {
	discovery   Discoverer
	transcripts TranscriptResolver
	synth       Synthesizer
	maxLessons  int
}

func NewBuilder(discovery Discoverer, transcripts TranscriptResolver, synth Synthesizer, maxLessons int) *Builder {
	if maxLessons <= 0 {
		maxLessons = defaultMaxLessons
	}
	return &Builder{
		discovery:   discovery,
		transcripts: transcripts,
		synth:       synth,
		maxLessons:  maxLessons,
	}
}

// Build runs the full pipeline for one topic. Discovery failure is the only
// fatal stage: once candidates exist, every later failure degrades to
// fallback content and the returned Course is always structurally valid.
func (b *Builder) Build(ctx context.Context, topic string) (*models.Course, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("topic is required")
	}

	candidates, err := b.discovery.Discover(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("video discovery failed: %w", err)
	}

	target := len(candidates)
	if target > b.maxLessons {
		target = b.maxLessons
	}
	log.Printf("Building course for %q from %d candidates (%d lessons)", topic, len(candidates), target)

	// Candidates are independent after discovery; fan out one worker per
	// selected video. Each worker writes into its rank-keyed slot so final
	// ordering is decided by the level sort, never by completion order.
	lessons := make([]models.Lesson, target)
	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(target)

	for i := 0; i < target; i++ {
		rank := i
		cand := candidates[i]
		g.Go(func() error {
			lessons[rank] = b.buildLesson(groupCtx, topic, rank, cand)
			return nil
		})
	}
	g.Wait()

	// Workers degrade instead of erroring, so only cancellation aborts here.
	// Partially built lessons are discarded with the run.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return assembleCourse(topic, lessons), nil
}

// buildLesson runs the per-candidate sequence: resolve transcript, choose
// input text, synthesize content, construct the lesson. Any panic is caught
// at the candidate boundary and replaced with a minimal valid lesson so one
// bad video never drops the lesson count.
func (b *Builder) buildLesson(ctx context.Context, topic string, rank int, cand models.ScoredCandidate) (lesson models.Lesson) {
	hint := levelForRank(rank)

	defer func() {
		if r := recover(); r != nil {
			log.Printf("Lesson build panicked for video %s: %v", cand.VideoID, r)
			lesson = minimalLesson(topic, hint, cand)
		}
	}()

	transcript := b.transcripts.Resolve(ctx, cand.VideoID)

	// The synthesizer always receives some text: caption transcript,
	// description-as-transcript, or the candidate's own description.
	text := transcript.Text
	if transcript.Unavailable || text == "" {
		log.Printf("No transcript for video %s, using description", cand.VideoID)
		text = cand.Description
	}

	content := b.synth.Synthesize(ctx, text, cand.Title, hint)

	// The synthesizer's own level wins over the position-based hint.
	level := content.Level
	if !level.Valid() {
		level = hint
	}

	return models.Lesson{
		Topic:       topic,
		Level:       level,
		VideoID:     cand.VideoID,
		Title:       cand.Title,
		DurationMin: durationOrDefault(cand.DurationMin),
		Summary:     content.Summary,
		KeyPoints:   content.KeyPoints,
		Glossary:    content.Glossary,
		Quiz:        content.Quiz,
	}
}

// levelForRank assigns the provisional difficulty by ranked position:
// 0-1 Beginner, 2-3 Intermediate, 4+ Advanced.
func levelForRank(rank int) models.Level {
	switch {
	case rank < 2:
		return models.LevelBeginner
	case rank < 4:
		return models.LevelIntermediate
	default:
		return models.LevelAdvanced
	}
}

func durationOrDefault(minutes int) int {
	if minutes <= 0 {
		return defaultLessonMinutes
	}
	return minutes
}

// minimalLesson is the guaranteed-valid substitute for a candidate whose
// processing failed unexpectedly. The quiz reuses the deterministic fallback
// set so the 5-question invariant holds even here.
func minimalLesson(topic string, hint models.Level, cand models.ScoredCandidate) models.Lesson {
	return models.Lesson{
		Topic:       topic,
		Level:       hint,
		VideoID:     cand.VideoID,
		Title:       cand.Title,
		DurationMin: durationOrDefault(cand.DurationMin),
		Summary:     fmt.Sprintf("Learn about %s through this video lesson.", topic),
		KeyPoints:   []string{"Key concepts from the video"},
		Glossary:    []models.GlossaryEntry{},
		Quiz:        services.FallbackLessonContent(hint).Quiz,
	}
}

// assembleCourse sorts lessons by level tier (stable among equal tiers),
// assigns sequential ids post-sort, and computes the overview.
func assembleCourse(topic string, lessons []models.Lesson) *models.Course {
	sort.SliceStable(lessons, func(i, j int) bool {
		return lessons[i].Level.Tier() < lessons[j].Level.Tier()
	})

	totalMinutes := 0
	for i := range lessons {
		lessons[i].ID = fmt.Sprintf("lesson_%d", i+1)
		totalMinutes += lessons[i].DurationMin
	}

	return &models.Course{
		Topic:   topic,
		Lessons: lessons,
		Overview: models.CourseOverview{
			TLDR: fmt.Sprintf(
				"A comprehensive %d-lesson course on %s, covering everything from basics to advanced concepts. Perfect for structured learning with videos, quizzes, and practical exercises.",
				len(lessons), topic,
			),
			TotalDurationMin: totalMinutes,
			LessonCount:      len(lessons),
		},
	}
}
