package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"coursepilot-backend/internal/models"
	"coursepilot-backend/internal/services"
)

type fakeDiscovery struct {
	candidates []models.ScoredCandidate
	err        error
}

func (f *fakeDiscovery) Discover(ctx context.Context, topic string) ([]models.ScoredCandidate, error) {
	return f.candidates, f.err
}

type fakeTranscripts struct {
	results map[string]models.TranscriptResult
	panicOn string
}

func (f *fakeTranscripts) Resolve(ctx context.Context, videoID string) models.TranscriptResult {
	if videoID == f.panicOn {
		panic("transcript backend exploded")
	}
	if r, ok := f.results[videoID]; ok {
		return r
	}
	return models.TranscriptResult{Unavailable: true}
}

type fakeSynth struct {
	mu       sync.Mutex
	level    models.Level
	failAll  bool
	gotTexts map[string]string
}

func (f *fakeSynth) Synthesize(ctx context.Context, text, title string, levelHint models.Level) models.LessonContent {
	if f.gotTexts != nil {
		f.mu.Lock()
		f.gotTexts[title] = text
		f.mu.Unlock()
	}
	if f.failAll {
		return services.FallbackLessonContent(levelHint)
	}
	content := services.FallbackLessonContent(levelHint)
	content.Summary = "Synthesized summary for " + title
	if f.level.Valid() {
		content.Level = f.level
	}
	return content
}

func candidateList(n int) []models.ScoredCandidate {
	candidates := make([]models.ScoredCandidate, n)
	for i := 0; i < n; i++ {
		candidates[i] = models.ScoredCandidate{
			VideoCandidate: models.VideoCandidate{
				VideoID:     fmt.Sprintf("video%05d", i),
				Title:       fmt.Sprintf("Video %d", i),
				Description: fmt.Sprintf("Description for video %d", i),
			},
			Score:       float64(100 - i),
			DurationMin: 10 + i,
		}
	}
	return candidates
}

func TestBuild_DiscoveryFailureIsFatal(t *testing.T) {
	b := NewBuilder(&fakeDiscovery{err: services.ErrNoCandidates}, &fakeTranscripts{}, &fakeSynth{}, 5)

	course, err := b.Build(context.Background(), "quantum computing")
	if course != nil {
		t.Error("Expected no course on discovery failure")
	}
	if !errors.Is(err, services.ErrNoCandidates) {
		t.Errorf("Expected wrapped ErrNoCandidates, got %v", err)
	}
}

func TestBuild_EmptyTopic(t *testing.T) {
	b := NewBuilder(&fakeDiscovery{candidates: candidateList(3)}, &fakeTranscripts{}, &fakeSynth{}, 5)

	for _, topic := range []string{"", "   ", "\t\n"} {
		if _, err := b.Build(context.Background(), topic); err == nil {
			t.Errorf("Expected error for topic %q", topic)
		}
	}
}

func TestBuild_LessonCountNeverDrops(t *testing.T) {
	// Every transcript unavailable and every synthesis degraded: the course
	// still carries one lesson per selected candidate.
	b := NewBuilder(
		&fakeDiscovery{candidates: candidateList(3)},
		&fakeTranscripts{},
		&fakeSynth{failAll: true},
		5,
	)

	course, err := b.Build(context.Background(), "linear algebra")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(course.Lessons) != 3 {
		t.Fatalf("Expected 3 lessons, got %d", len(course.Lessons))
	}
	for _, l := range course.Lessons {
		if l.Summary == "" || len(l.KeyPoints) == 0 || len(l.Quiz) != 5 {
			t.Errorf("Lesson %s is not structurally valid", l.ID)
		}
	}
}

func TestBuild_CapsAtMaxLessons(t *testing.T) {
	b := NewBuilder(&fakeDiscovery{candidates: candidateList(8)}, &fakeTranscripts{}, &fakeSynth{}, 5)

	course, err := b.Build(context.Background(), "go concurrency")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(course.Lessons) != 5 {
		t.Errorf("Expected 5 lessons, got %d", len(course.Lessons))
	}
	// Only the top-ranked candidates are selected.
	seen := make(map[string]bool)
	for _, l := range course.Lessons {
		seen[l.VideoID] = true
	}
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("video%05d", i)
		if !seen[id] {
			t.Errorf("Expected top candidate %s in course", id)
		}
	}
}

func TestBuild_PanicYieldsMinimalLesson(t *testing.T) {
	b := NewBuilder(
		&fakeDiscovery{candidates: candidateList(3)},
		&fakeTranscripts{panicOn: "video00001"},
		&fakeSynth{},
		5,
	)

	course, err := b.Build(context.Background(), "machine learning")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(course.Lessons) != 3 {
		t.Fatalf("Expected 3 lessons despite panic, got %d", len(course.Lessons))
	}

	var minimal *models.Lesson
	for i := range course.Lessons {
		if course.Lessons[i].VideoID == "video00001" {
			minimal = &course.Lessons[i]
		}
	}
	if minimal == nil {
		t.Fatal("Panicking candidate missing from course")
	}
	if !strings.Contains(minimal.Summary, "machine learning") {
		t.Errorf("Expected minimal lesson summary to mention the topic, got %q", minimal.Summary)
	}
	if len(minimal.Quiz) != 5 {
		t.Errorf("Minimal lesson must keep the 5-question quiz, got %d", len(minimal.Quiz))
	}
	if minimal.Glossary == nil {
		t.Error("Minimal lesson glossary must be non-nil")
	}
}

func TestBuild_LevelHintByRank(t *testing.T) {
	// Synthesizer returns no level of its own, so the rank hints survive.
	synth := &fakeSynth{}
	b := NewBuilder(&fakeDiscovery{candidates: candidateList(5)}, &fakeTranscripts{}, synth, 5)

	course, err := b.Build(context.Background(), "statistics")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	byVideo := make(map[string]models.Level)
	for _, l := range course.Lessons {
		byVideo[l.VideoID] = l.Level
	}

	expected := map[string]models.Level{
		"video00000": models.LevelBeginner,
		"video00001": models.LevelBeginner,
		"video00002": models.LevelIntermediate,
		"video00003": models.LevelIntermediate,
		"video00004": models.LevelAdvanced,
	}
	for id, want := range expected {
		if byVideo[id] != want {
			t.Errorf("Video %s: expected level %s, got %s", id, want, byVideo[id])
		}
	}
}

func TestBuild_SynthesizerLevelWins(t *testing.T) {
	b := NewBuilder(
		&fakeDiscovery{candidates: candidateList(4)},
		&fakeTranscripts{},
		&fakeSynth{level: models.LevelAdvanced},
		5,
	)

	course, err := b.Build(context.Background(), "calculus")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	for _, l := range course.Lessons {
		if l.Level != models.LevelAdvanced {
			t.Errorf("Expected synthesizer level to override hint, got %s for %s", l.Level, l.VideoID)
		}
	}
}

func TestBuild_LessonsSortedByLevel(t *testing.T) {
	b := NewBuilder(&fakeDiscovery{candidates: candidateList(5)}, &fakeTranscripts{}, &fakeSynth{}, 5)

	course, err := b.Build(context.Background(), "networking")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	for i := 1; i < len(course.Lessons); i++ {
		prev := course.Lessons[i-1].Level.Tier()
		cur := course.Lessons[i].Level.Tier()
		if prev > cur {
			t.Errorf("Lessons out of level order at %d: %d before %d", i, prev, cur)
		}
	}
	for i, l := range course.Lessons {
		want := fmt.Sprintf("lesson_%d", i+1)
		if l.ID != want {
			t.Errorf("Expected id %s at position %d, got %s", want, i, l.ID)
		}
	}
}

func TestBuild_OverviewTotals(t *testing.T) {
	candidates := candidateList(3)
	candidates[1].DurationMin = 0 // unparseable duration takes the default

	b := NewBuilder(&fakeDiscovery{candidates: candidates}, &fakeTranscripts{}, &fakeSynth{}, 5)

	course, err := b.Build(context.Background(), "databases")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// 10 + default(10) + 12
	if course.Overview.TotalDurationMin != 32 {
		t.Errorf("Expected total duration 32, got %d", course.Overview.TotalDurationMin)
	}
	if course.Overview.LessonCount != 3 {
		t.Errorf("Expected lesson count 3, got %d", course.Overview.LessonCount)
	}
	if !strings.Contains(course.Overview.TLDR, "3-lesson") || !strings.Contains(course.Overview.TLDR, "databases") {
		t.Errorf("Overview text missing lesson count or topic: %q", course.Overview.TLDR)
	}
}

func TestBuild_DescriptionFeedsSynthesizerWhenNoTranscript(t *testing.T) {
	synth := &fakeSynth{gotTexts: make(map[string]string)}
	candidates := candidateList(2)
	transcripts := &fakeTranscripts{results: map[string]models.TranscriptResult{
		"video00000": {Text: "full caption transcript"},
	}}

	b := NewBuilder(&fakeDiscovery{candidates: candidates}, transcripts, synth, 5)
	if _, err := b.Build(context.Background(), "chemistry"); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if synth.gotTexts["Video 0"] != "full caption transcript" {
		t.Errorf("Expected transcript text for video 0, got %q", synth.gotTexts["Video 0"])
	}
	if synth.gotTexts["Video 1"] != "Description for video 1" {
		t.Errorf("Expected description fallback for video 1, got %q", synth.gotTexts["Video 1"])
	}
}

func TestBuild_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := NewBuilder(&fakeDiscovery{candidates: candidateList(3)}, &fakeTranscripts{}, &fakeSynth{}, 5)

	course, err := b.Build(ctx, "physics")
	if course != nil {
		t.Error("Expected no course from a cancelled run")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
