package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/pastefind/pastefind/internal/models"
	"github.com/pastefind/pastefind/pkg/config"
	"github.com/pastefind/pastefind/pkg/logger"
)

var auddLog = logger.WithName("provider-audd")

// AudD is the primary fingerprint-matching adapter. It submits the raw asset
// bytes to the hosted AudD endpoint and parses the nested result for track
// metadata and per-distributor deep links.
type AudD struct {
	token    string
	endpoint string
	client   *http.Client
}

// NewAudD creates the AudD adapter from configuration.
func NewAudD(cfg config.AudDConfig) *AudD {
	return &AudD{
		token:    cfg.APIToken,
		endpoint: cfg.Endpoint,
		client:   &http.Client{Timeout: cfg.Timeout()},
	}
}

func (a *AudD) Name() string { return "audd" }

func (a *AudD) Configured() bool { return a.token != "" && a.endpoint != "" }

func (a *AudD) Supports(_ *models.Request) bool { return true }

// auddResponse mirrors the fixed AudD response schema. A success with a null
// result means no match.
type auddResponse struct {
	Status string `json:"status"`
	Error  *struct {
		ErrorCode    int    `json:"error_code"`
		ErrorMessage string `json:"error_message"`
	} `json:"error"`
	Result *struct {
		Artist   string `json:"artist"`
		Title    string `json:"title"`
		Album    string `json:"album"`
		SongLink string `json:"song_link"`
		Spotify  *struct {
			ExternalURLs struct {
				Spotify string `json:"spotify"`
			} `json:"external_urls"`
			Album struct {
				Images []struct {
					URL string `json:"url"`
				} `json:"images"`
			} `json:"album"`
		} `json:"spotify"`
		AppleMusic *struct {
			URL     string `json:"url"`
			Artwork struct {
				URL string `json:"url"`
			} `json:"artwork"`
		} `json:"apple_music"`
	} `json:"result"`
}

// Identify uploads the asset bytes and maps the response into a TrackMatch.
func (a *AudD) Identify(ctx context.Context, _ *models.Request, asset *models.AudioAsset) (*models.TrackMatch, error) {
	file, err := os.Open(asset.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read asset: %v", ErrUnavailable, err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("api_token", a.token); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := writer.WriteField("return", "spotify,apple_music"); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	part, err := writer.CreateFormFile("file", filepath.Base(asset.LocalPath))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: audd returned status %d", ErrUnavailable, resp.StatusCode)
	}

	var parsed auddResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: failed to parse audd response: %v", ErrUnavailable, err)
	}

	if parsed.Status == "error" {
		code, msg := 0, ""
		if parsed.Error != nil {
			code, msg = parsed.Error.ErrorCode, parsed.Error.ErrorMessage
		}
		return nil, fmt.Errorf("%w: audd error %d: %s", ErrUnavailable, code, msg)
	}
	if parsed.Result == nil {
		return nil, ErrNoMatch
	}

	match := &models.TrackMatch{
		Title:    parsed.Result.Title,
		Subtitle: parsed.Result.Artist,
		Provider: a.Name(),
	}
	if sp := parsed.Result.Spotify; sp != nil {
		match.SpotifyURL = sp.ExternalURLs.Spotify
		if len(sp.Album.Images) > 0 {
			match.CoverArtURL = sp.Album.Images[0].URL
		}
	}
	if am := parsed.Result.AppleMusic; am != nil {
		match.AppleMusicURL = am.URL
		if match.CoverArtURL == "" && am.Artwork.URL != "" {
			match.CoverArtURL = sizedArtworkURL(am.Artwork.URL)
		}
	}

	auddLog.WithField("title", match.Title).WithField("artist", match.Subtitle).Info("AudD match")
	return match, nil
}

// sizedArtworkURL resolves Apple Music artwork templates, which embed
// {w}x{h} placeholders, to a concrete size.
func sizedArtworkURL(template string) string {
	s := strings.ReplaceAll(template, "{w}", "500")
	return strings.ReplaceAll(s, "{h}", "500")
}
