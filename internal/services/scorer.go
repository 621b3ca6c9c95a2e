package services

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"coursepilot-backend/internal/models"
)

// Relevance scoring for discovered video candidates. Pure functions, no I/O.
// Scores are relative only: the sum is unclamped and never normalized.

var isoDurationRegex = regexp.MustCompile(`PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?`)

var educationalKeywords = []string{
	"tutorial", "learn", "guide", "course", "lesson", "explained",
	"introduction", "beginner", "step by step", "how to", "basics", "fundamentals",
}

var qualityChannelIndicators = []string{
	"academy", "university", "education", "school", "institute",
	"tech", "programming", "coding",
}

var clickbaitWords = []string{
	"amazing", "incredible", "shocking", "you won't believe", "secret", "hack",
}

// ParseISODuration converts an ISO-8601 duration like "PT15M30S" into total
// minutes. Missing components default to 0; unparsable strings yield 0.
func ParseISODuration(iso string) float64 {
	m := isoDurationRegex.FindStringSubmatch(iso)
	if m == nil {
		return 0
	}
	hours, _ := strconv.Atoi(zeroIfEmpty(m[1]))
	minutes, _ := strconv.Atoi(zeroIfEmpty(m[2]))
	seconds, _ := strconv.Atoi(zeroIfEmpty(m[3]))
	return float64(hours)*60 + float64(minutes) + float64(seconds)/60
}

func zeroIfEmpty(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

// ScoreCandidate computes the weighted additive relevance score for a
// candidate against a topic, plus the rounded duration in minutes.
// Deterministic: identical inputs always produce identical outputs.
func ScoreCandidate(c models.VideoCandidate, topic string) (float64, int) {
	totalMinutes := ParseISODuration(c.Duration)

	var score float64

	// Duration bands: prefer educational-length videos.
	switch {
	case totalMinutes >= 8 && totalMinutes <= 25:
		score += 40
	case totalMinutes >= 5 && totalMinutes <= 35:
		score += 25
	case totalMinutes >= 3 && totalMinutes <= 45:
		score += 10
	}

	// Logarithmic view damping keeps mega-viral channels from dominating.
	if c.Views > 1000 {
		score += math.Min(math.Log10(float64(c.Views)/1000)*8, 30)
	}

	titleLower := strings.ToLower(c.Title)
	descLower := strings.ToLower(c.Description)

	for _, kw := range educationalKeywords {
		if strings.Contains(titleLower, kw) || strings.Contains(descLower, kw) {
			score += 8
		}
	}

	// Topic token relevance: title matches weigh more than description.
	topicWords := strings.Fields(strings.ToLower(topic))
	if len(topicWords) > 0 {
		var titleMatches, descMatches int
		for _, word := range topicWords {
			if strings.Contains(titleLower, word) {
				titleMatches++
			}
			if strings.Contains(descLower, word) {
				descMatches++
			}
		}
		score += float64(titleMatches) / float64(len(topicWords)) * 35
		score += float64(descMatches) / float64(len(topicWords)) * 15
	}

	channelLower := strings.ToLower(c.Channel)
	for _, indicator := range qualityChannelIndicators {
		if strings.Contains(channelLower, indicator) {
			score += 5
		}
	}

	for _, word := range clickbaitWords {
		if strings.Contains(titleLower, word) {
			score -= 10
		}
	}

	return score, int(math.Round(totalMinutes))
}
