package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"coursepilot-backend/internal/models"
)

// Discovery issues diversified searches against the YouTube Data API, merges
// and deduplicates the results, enriches them with batched statistics, and
// returns the top-scored candidates.

const (
	maxCandidates     = 8
	statsBatchSize    = 50 // videos.list id cap per call
	searchCallTimeout = 15 * time.Second
)

// ErrNoCandidates is returned when every query variant comes back empty.
// This is the only discovery failure that aborts a pipeline run.
var ErrNoCandidates = errors.New("no videos found for the given topic")

// VideoStats is the batched statistics payload for one video.
type VideoStats struct {
	Views    int64
	Duration string
}

// searchProvider is the boundary to the video search backend; faked in tests.
type searchProvider interface {
	Search(ctx context.Context, query string, max int64) ([]models.VideoCandidate, error)
	Stats(ctx context.Context, videoIDs []string) (map[string]VideoStats, error)
}

type DiscoveryService struct {
	provider      searchProvider
	resultsPerQry int64
}

func NewDiscoveryService(ctx context.Context, apiKey string, resultsPerQuery int) (*DiscoveryService, error) {
	svc, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube client: %w", err)
	}
	if resultsPerQuery <= 0 {
		resultsPerQuery = 15
	}
	return &DiscoveryService{
		provider:      &dataAPIProvider{svc: svc},
		resultsPerQry: int64(resultsPerQuery),
	}, nil
}

// searchQueries returns the fixed query variants used to diversify recall.
func searchQueries(topic string) []string {
	return []string{
		topic + " tutorial learn beginner guide",
		topic + " explained step by step",
		topic + " course lesson introduction",
		"how to " + topic + " basics fundamentals",
	}
}

// Discover runs all query variants, dedupes by video identity (first
// occurrence wins), fetches batched statistics, scores, and returns at most
// maxCandidates candidates ordered by descending score.
func (s *DiscoveryService) Discover(ctx context.Context, topic string) ([]models.ScoredCandidate, error) {
	var merged []models.VideoCandidate
	seen := make(map[string]bool)

	for _, query := range searchQueries(topic) {
		callCtx, cancel := context.WithTimeout(ctx, searchCallTimeout)
		results, err := s.provider.Search(callCtx, query, s.resultsPerQry)
		cancel()
		if err != nil {
			// One variant failing must not abort discovery as a whole.
			log.Printf("YouTube search failed for query %q: %v", query, err)
			continue
		}
		for _, c := range results {
			if c.VideoID == "" || seen[c.VideoID] {
				continue
			}
			seen[c.VideoID] = true
			merged = append(merged, c)
		}
	}

	if len(merged) == 0 {
		return nil, ErrNoCandidates
	}

	stats := s.fetchStats(ctx, merged)

	scored := make([]models.ScoredCandidate, len(merged))
	for i, c := range merged {
		if st, ok := stats[c.VideoID]; ok {
			c.Views = st.Views
			c.Duration = st.Duration
		}
		score, durationMin := ScoreCandidate(c, topic)
		scored[i] = models.ScoredCandidate{
			VideoCandidate: c,
			Score:          score,
			DurationMin:    durationMin,
		}
	}

	// Stable sort keeps discovery order among equal scores.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > maxCandidates {
		scored = scored[:maxCandidates]
	}
	return scored, nil
}

// fetchStats batches statistics lookups. A failed batch leaves its candidates
// at zero views / zero duration rather than dropping them.
func (s *DiscoveryService) fetchStats(ctx context.Context, candidates []models.VideoCandidate) map[string]VideoStats {
	stats := make(map[string]VideoStats, len(candidates))

	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.VideoID
	}

	for start := 0; start < len(ids); start += statsBatchSize {
		end := start + statsBatchSize
		if end > len(ids) {
			end = len(ids)
		}

		callCtx, cancel := context.WithTimeout(ctx, searchCallTimeout)
		batch, err := s.provider.Stats(callCtx, ids[start:end])
		cancel()
		if err != nil {
			log.Printf("YouTube statistics lookup failed for %d videos: %v", end-start, err)
			continue
		}
		for id, st := range batch {
			stats[id] = st
		}
	}

	return stats
}

// dataAPIProvider talks to the YouTube Data API v3.
type dataAPIProvider struct {
	svc *youtube.Service
}

func (p *dataAPIProvider) Search(ctx context.Context, query string, max int64) ([]models.VideoCandidate, error) {
	resp, err := p.svc.Search.List([]string{"snippet"}).
		Context(ctx).
		Q(query).
		Type("video").
		MaxResults(max).
		Order("relevance").
		VideoDuration("medium").
		VideoDefinition("high").
		SafeSearch("strict").
		Do()
	if err != nil {
		return nil, err
	}

	candidates := make([]models.VideoCandidate, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" || item.Snippet == nil {
			continue
		}
		candidates = append(candidates, models.VideoCandidate{
			VideoID:     item.Id.VideoId,
			Title:       item.Snippet.Title,
			Channel:     item.Snippet.ChannelTitle,
			Description: item.Snippet.Description,
		})
	}
	return candidates, nil
}

func (p *dataAPIProvider) Stats(ctx context.Context, videoIDs []string) (map[string]VideoStats, error) {
	resp, err := p.svc.Videos.List([]string{"statistics", "contentDetails"}).
		Context(ctx).
		Id(videoIDs...).
		Do()
	if err != nil {
		return nil, err
	}

	stats := make(map[string]VideoStats, len(resp.Items))
	for _, item := range resp.Items {
		st := VideoStats{Duration: "PT0S"}
		if item.ContentDetails != nil && item.ContentDetails.Duration != "" {
			st.Duration = item.ContentDetails.Duration
		}
		if item.Statistics != nil {
			st.Views = int64(item.Statistics.ViewCount)
		}
		stats[item.Id] = st
	}
	return stats, nil
}
