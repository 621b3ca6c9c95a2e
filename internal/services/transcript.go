package services

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	ytapi "github.com/hightemp/youtube-transcript-api-go/api"
	yt "github.com/kkdai/youtube/v2"

	"coursepilot-backend/internal/models"
)

// Transcript resolution for one video. The resolver never returns an error:
// every stage failure is swallowed and logged, and the result degrades from
// caption text to description text to Unavailable.

// Descriptions shorter than this are useless as transcript substitutes.
const minDescriptionChars = 100

var englishLanguageTags = []string{"en", "en-US", "en-GB"}

type TranscriptService struct {
	httpClient    *http.Client
	transcriptAPI *ytapi.YouTubeTranscriptApi
	ytClient      *yt.Client

	// Overridable stage functions; tests replace these to exercise the
	// fallback chain without network access.
	fetchCaptions    func(videoID string) (string, error)
	fetchDescription func(ctx context.Context, videoID string) (string, error)
}

func NewTranscriptService() *TranscriptService {
	s := &TranscriptService{
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		transcriptAPI: ytapi.NewYouTubeTranscriptApi(),
		ytClient:      &yt.Client{},
	}
	s.fetchCaptions = s.captionText
	s.fetchDescription = s.videoDescription
	return s
}

// Resolve walks the fallback chain for a video: English captions, any
// captions, timedtext scraping, then the video description. "No transcript"
// is a valid terminal result, not an error.
func (s *TranscriptService) Resolve(ctx context.Context, videoID string) models.TranscriptResult {
	text, err := s.fetchCaptions(videoID)
	if err == nil {
		return models.TranscriptResult{Text: text}
	}
	log.Printf("Caption extraction failed for %s, falling back to description: %v", videoID, err)

	desc, err := s.fetchDescription(ctx, videoID)
	if err != nil {
		log.Printf("Description lookup failed for %s: %v", videoID, err)
		return models.TranscriptResult{Unavailable: true}
	}
	if len(desc) <= minDescriptionChars {
		return models.TranscriptResult{Unavailable: true}
	}

	return models.TranscriptResult{Text: desc, FromDescription: true}
}

// captionText fetches captions, preferring English tracks but accepting any
// available language before trying the legacy timedtext route.
func (s *TranscriptService) captionText(videoID string) (string, error) {
	transcript, err := s.transcriptAPI.GetTranscript(videoID, englishLanguageTags)
	if err != nil {
		transcript, err = s.transcriptAPI.GetTranscript(videoID, nil)
		if err != nil {
			legacy, legacyErr := s.captionTextViaTimedText(videoID)
			if legacyErr == nil {
				return legacy, nil
			}
			return "", fmt.Errorf("no subtitles via transcript API (%v); timedtext fallback failed (%v)", err, legacyErr)
		}
	}

	var b strings.Builder
	for _, entry := range transcript.Entries {
		text := strings.TrimSpace(entry.Text)
		if text == "" {
			continue
		}
		b.WriteString(text)
		b.WriteString(" ")
	}

	cleaned := strings.TrimSpace(b.String())
	if cleaned == "" {
		return "", fmt.Errorf("subtitle track resolved to empty content")
	}
	return cleaned, nil
}

// captionTextViaTimedText scrapes the watch page for a caption track URL and
// extracts plain text from the timedtext XML.
func (s *TranscriptService) captionTextViaTimedText(videoID string) (string, error) {
	pageURL := fmt.Sprintf("https://www.youtube.com/watch?v=%s", videoID)
	req, _ := http.NewRequest("GET", pageURL, nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch YouTube page: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read YouTube page: %w", err)
	}

	trackURL, err := captionTrackURL(string(body))
	if err != nil {
		return "", err
	}

	trackResp, err := s.httpClient.Get(trackURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch captions: %w", err)
	}
	defer trackResp.Body.Close()

	trackBody, err := io.ReadAll(trackResp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read captions: %w", err)
	}

	return extractTimedTextContent(trackBody)
}

var (
	captionTracksRegex   = regexp.MustCompile(`"captionTracks"\s*:\s*\[(.*?)\],\s*"`)
	captionRendererRegex = regexp.MustCompile(`"playerCaptionsTracklistRenderer"\s*:\s*\{(?:.*?,)?\s*"captionTracks"\s*:\s*\[(.*?)\],\s*"`)
	captionBaseURLRegex  = regexp.MustCompile(`"baseUrl"\s*:\s*"(.*?)"`)
)

func captionTrackURL(pageHTML string) (string, error) {
	m := captionTracksRegex.FindStringSubmatch(pageHTML)
	if len(m) < 2 {
		m = captionRendererRegex.FindStringSubmatch(pageHTML)
		if len(m) < 2 {
			return "", fmt.Errorf("no captions available for this video")
		}
	}

	urlMatch := captionBaseURLRegex.FindStringSubmatch(m[1])
	if len(urlMatch) < 2 {
		return "", fmt.Errorf("caption track found but baseUrl missing")
	}

	u := strings.ReplaceAll(urlMatch[1], `\u0026`, "&")
	u = strings.ReplaceAll(u, `\/`, "/")
	return u, nil
}

type timedTextXML struct {
	XMLName xml.Name       `xml:"transcript"`
	Texts   []timedTextSeg `xml:"text"`
}

type timedTextSeg struct {
	Start string `xml:"start,attr"`
	Dur   string `xml:"dur,attr"`
	Text  string `xml:",chardata"`
}

// extractTimedTextContent strips markup from timedtext XML and collapses the
// segments into a single whitespace-joined string.
func extractTimedTextContent(data []byte) (string, error) {
	var tt timedTextXML
	if err := xml.Unmarshal(data, &tt); err != nil {
		return "", fmt.Errorf("failed to parse captions XML: %w", err)
	}

	var parts []string
	for _, seg := range tt.Texts {
		text := strings.TrimSpace(html.UnescapeString(seg.Text))
		if text != "" {
			parts = append(parts, text)
		}
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("captions XML empty")
	}
	return strings.Join(parts, " "), nil
}

func (s *TranscriptService) videoDescription(ctx context.Context, videoID string) (string, error) {
	video, err := s.ytClient.GetVideoContext(ctx, videoID)
	if err != nil {
		return "", fmt.Errorf("failed to fetch video metadata: %w", err)
	}
	return strings.TrimSpace(video.Description), nil
}
