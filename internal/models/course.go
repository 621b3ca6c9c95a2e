package models

// Level is the ordinal difficulty tier used both as a synthesis hint and as
// the final lesson sort key.
type Level string

const (
	LevelBeginner     Level = "Beginner"
	LevelIntermediate Level = "Intermediate"
	LevelAdvanced     Level = "Advanced"
)

// Tier returns the sort rank for a level (Beginner < Intermediate < Advanced).
func (l Level) Tier() int {
	switch l {
	case LevelBeginner:
		return 1
	case LevelIntermediate:
		return 2
	case LevelAdvanced:
		return 3
	}
	return 0
}

func (l Level) Valid() bool {
	return l == LevelBeginner || l == LevelIntermediate || l == LevelAdvanced
}

// VideoCandidate is a video surfaced by discovery before scoring.
// Immutable once created.
type VideoCandidate struct {
	VideoID     string `json:"videoId"`
	Title       string `json:"title"`
	Channel     string `json:"channel"`
	Views       int64  `json:"views"`
	Duration    string `json:"duration"` // ISO-8601, e.g. "PT15M30S"
	Description string `json:"description"`
}

// ScoredCandidate is a candidate with its derived relevance score and
// duration estimate attached.
type ScoredCandidate struct {
	VideoCandidate
	Score       float64 `json:"score"`
	DurationMin int     `json:"durationMin"`
}

// TranscriptResult is the outcome of transcript resolution for one video.
// Exactly one of the three shapes applies: caption text, description text
// (FromDescription set), or Unavailable.
type TranscriptResult struct {
	Text            string
	FromDescription bool
	Unavailable     bool
}

type GlossaryEntry struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

type QuizQuestion struct {
	Question    string   `json:"q"`
	Options     []string `json:"options"`
	AnswerIndex int      `json:"answerIndex"`
	Explanation string   `json:"explanation"`
}

// LessonContent is the structured body produced by synthesis. The validated
// LLM output and the deterministic fallback both satisfy the same shape:
// 4-6 key points, 3-5 glossary entries, exactly 5 quiz questions with 4
// options each.
type LessonContent struct {
	Summary   string          `json:"summary"`
	KeyPoints []string        `json:"keyPoints"`
	Glossary  []GlossaryEntry `json:"glossary"`
	Quiz      []QuizQuestion  `json:"quiz"`
	Level     Level           `json:"level"`
}

// Lesson is the identity-bearing unit of a course. IDs are assigned
// sequentially after the final level sort, so they are deterministic for
// identical inputs.
type Lesson struct {
	ID          string          `json:"id"`
	Topic       string          `json:"topic"`
	Level       Level           `json:"level"`
	VideoID     string          `json:"videoId"`
	Title       string          `json:"title"`
	DurationMin int             `json:"durationMin"`
	Summary     string          `json:"summary"`
	KeyPoints   []string        `json:"keyPoints"`
	Glossary    []GlossaryEntry `json:"glossary"`
	Quiz        []QuizQuestion  `json:"quiz"`
}

type CourseOverview struct {
	TLDR             string `json:"tlDr"`
	TotalDurationMin int    `json:"totalDurationMin"`
	LessonCount      int    `json:"lessonCount"`
}

// Course is the aggregate produced by one pipeline run. It has no persistent
// identity across runs.
type Course struct {
	Topic    string         `json:"topic"`
	Lessons  []Lesson       `json:"lessons"`
	Overview CourseOverview `json:"overview"`
}

// Request bodies

type BuildCourseRequest struct {
	Topic string `json:"topic"`
}

type CurateRequest struct {
	Topic string `json:"topic"`
}

type TranscriptRequest struct {
	VideoID string `json:"video_id"`
}

// TranscriptResponse mirrors the transcript endpoint contract: either a
// transcript (possibly flagged as a description fallback) or no_transcript.
type TranscriptResponse struct {
	Transcript   string `json:"transcript,omitempty"`
	Fallback     bool   `json:"fallback,omitempty"`
	NoTranscript bool   `json:"no_transcript,omitempty"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
