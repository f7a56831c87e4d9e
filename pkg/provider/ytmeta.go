package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/pastefind/pastefind/internal/models"
	"github.com/pastefind/pastefind/pkg/config"
	"github.com/pastefind/pastefind/pkg/logger"
	"github.com/pastefind/pastefind/pkg/urlutil"
)

var ytLog = logger.WithName("provider-ytmeta")

// YouTubeMeta identifies tracks from video metadata instead of audio
// fingerprints. Official music videos carry an "Artist - Title" pattern that
// is quota-cheap to resolve, so this adapter runs as a fast first attempt.
// It only applies to URL-sourced requests on the YouTube host family.
type YouTubeMeta struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

// NewYouTubeMeta creates the metadata heuristic adapter from configuration.
func NewYouTubeMeta(cfg config.YouTubeConfig) *YouTubeMeta {
	return &YouTubeMeta{
		apiKey:   cfg.APIKey,
		endpoint: cfg.Endpoint,
		client:   &http.Client{Timeout: cfg.Timeout()},
	}
}

func (y *YouTubeMeta) Name() string { return "youtube-metadata" }

func (y *YouTubeMeta) Configured() bool { return y.apiKey != "" && y.endpoint != "" }

func (y *YouTubeMeta) Supports(req *models.Request) bool {
	return req.HasURL() && urlutil.IsYouTubeURL(req.SourceURL)
}

type videosResponse struct {
	Items []struct {
		Snippet struct {
			Title        string `json:"title"`
			Description  string `json:"description"`
			ChannelTitle string `json:"channelTitle"`
			Thumbnails   struct {
				High struct {
					URL string `json:"url"`
				} `json:"high"`
			} `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

// Identify fetches the video snippet and parses artist/title out of it.
func (y *YouTubeMeta) Identify(ctx context.Context, req *models.Request, _ *models.AudioAsset) (*models.TrackMatch, error) {
	videoID, err := urlutil.ExtractYouTubeID(req.SourceURL)
	if err != nil {
		return nil, ErrNoMatch
	}

	query := url.Values{}
	query.Set("part", "snippet")
	query.Set("id", videoID)
	query.Set("key", y.apiKey)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, y.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	resp, err := y.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: youtube data api returned status %d", ErrUnavailable, resp.StatusCode)
	}

	var parsed videosResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: failed to parse videos response: %v", ErrUnavailable, err)
	}
	if len(parsed.Items) == 0 {
		return nil, ErrNoMatch
	}

	snippet := parsed.Items[0].Snippet
	artist, title, ok := parseVideoTitle(snippet.Title)
	if !ok {
		artist, title, ok = parseDescription(snippet.Description)
	}
	if !ok {
		return nil, ErrNoMatch
	}
	if artist == "" {
		artist = channelArtist(snippet.ChannelTitle)
	}

	confidence := "medium"
	if strings.Contains(strings.ToLower(snippet.Title), "official") {
		confidence = "high"
	}
	ytLog.WithField("title", title).
		WithField("artist", artist).
		WithField("confidence", confidence).
		Info("Metadata match")

	return &models.TrackMatch{
		Title:       title,
		Subtitle:    artist,
		CoverArtURL: snippet.Thumbnails.High.URL,
		YouTubeURL:  "https://www.youtube.com/watch?v=" + videoID,
		Provider:    y.Name(),
	}, nil
}

var (
	// "Artist - Title", with any dash variant and optional trailing
	// parenthetical annotation.
	titlePattern = regexp.MustCompile(`^(.+?)\s*[-–—]\s*(.+?)\s*$`)

	// Trailing annotations like "(Official Video)" or "[Lyric Video]".
	annotationPattern = regexp.MustCompile(`(?i)\s*[(\[][^)\]]*(official|music|video|audio|lyric|visuali[sz]er)[^)\]]*[)\]]\s*`)

	descArtistPattern = regexp.MustCompile(`(?i)artist:\s*(.+)`)
	descTitlePattern  = regexp.MustCompile(`(?i)(?:song|title):\s*(.+)`)
)

// parseVideoTitle extracts artist and track from an "Artist - Title" shaped
// video title, dropping trailing annotations from the track part.
func parseVideoTitle(videoTitle string) (artist, title string, ok bool) {
	m := titlePattern.FindStringSubmatch(videoTitle)
	if m == nil {
		return "", "", false
	}
	artist = strings.TrimSpace(m[1])
	title = strings.TrimSpace(annotationPattern.ReplaceAllString(m[2], " "))
	if artist == "" || title == "" {
		return "", "", false
	}
	return artist, title, true
}

// parseDescription scans the first lines of a description for explicit
// "Artist:" and "Song:"/"Title:" labels. A title is required; a missing
// artist falls back to the channel name.
func parseDescription(description string) (artist, title string, ok bool) {
	lines := strings.Split(description, "\n")
	if len(lines) > 5 {
		lines = lines[:5]
	}
	for _, line := range lines {
		if m := descArtistPattern.FindStringSubmatch(line); m != nil && artist == "" {
			artist = strings.TrimSpace(m[1])
		} else if m := descTitlePattern.FindStringSubmatch(line); m != nil && title == "" {
			title = strings.TrimSpace(m[1])
		}
	}
	if title == "" {
		return "", "", false
	}
	return artist, title, true
}

// channelArtist falls back to the channel name, stripping the " - Topic"
// suffix auto-generated music channels carry.
func channelArtist(channelTitle string) string {
	return strings.TrimSpace(strings.TrimSuffix(channelTitle, " - Topic"))
}
