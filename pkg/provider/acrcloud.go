package provider

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pastefind/pastefind/internal/models"
	"github.com/pastefind/pastefind/pkg/config"
	"github.com/pastefind/pastefind/pkg/logger"
)

var acrLog = logger.WithName("provider-acrcloud")

// ACRCloud status codes that matter for orchestration.
const (
	acrCodeSuccess  = 0
	acrCodeNoResult = 1001
)

// ACRCloud is the secondary fingerprint-matching adapter. Its response shape
// differs from AudD's: a status code plus a list of candidate matches, of
// which only the first (best) is used.
type ACRCloud struct {
	host      string
	accessKey string
	secret    string
	client    *http.Client

	// now is swappable for signature tests.
	now func() time.Time
}

// NewACRCloud creates the ACRCloud adapter from configuration.
func NewACRCloud(cfg config.ACRCloudConfig) *ACRCloud {
	return &ACRCloud{
		host:      cfg.Host,
		accessKey: cfg.AccessKey,
		secret:    cfg.AccessSecret,
		client:    &http.Client{Timeout: cfg.Timeout()},
		now:       time.Now,
	}
}

func (a *ACRCloud) Name() string { return "acrcloud" }

func (a *ACRCloud) Configured() bool {
	return a.host != "" && a.accessKey != "" && a.secret != ""
}

func (a *ACRCloud) Supports(_ *models.Request) bool { return true }

type acrResponse struct {
	Status struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	} `json:"status"`
	Metadata struct {
		Music []struct {
			Title   string `json:"title"`
			Artists []struct {
				Name string `json:"name"`
			} `json:"artists"`
			Album struct {
				Name string `json:"name"`
			} `json:"album"`
			ExternalMetadata struct {
				Spotify struct {
					Track struct {
						ID string `json:"id"`
					} `json:"track"`
				} `json:"spotify"`
				YouTube struct {
					VID string `json:"vid"`
				} `json:"youtube"`
			} `json:"external_metadata"`
		} `json:"music"`
	} `json:"metadata"`
}

// Identify posts a signed sample to /v1/identify and takes the best match.
func (a *ACRCloud) Identify(ctx context.Context, _ *models.Request, asset *models.AudioAsset) (*models.TrackMatch, error) {
	sample, err := os.ReadFile(asset.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read asset: %v", ErrUnavailable, err)
	}

	timestamp := strconv.FormatInt(a.now().Unix(), 10)
	signature := a.sign(timestamp)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	fields := map[string]string{
		"access_key":        a.accessKey,
		"sample_bytes":      strconv.Itoa(len(sample)),
		"timestamp":         timestamp,
		"signature":         signature,
		"data_type":         "audio",
		"signature_version": "1",
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	part, err := writer.CreateFormFile("sample", "sample")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if _, err := part.Write(sample); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.identifyURL(), &body)
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
		return nil, fmt.Errorf("%w: acrcloud returned status %d", ErrUnavailable, resp.StatusCode)
	}

	var parsed acrResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: failed to parse acrcloud response: %v", ErrUnavailable, err)
	}

	switch parsed.Status.Code {
	case acrCodeSuccess:
	case acrCodeNoResult:
		return nil, ErrNoMatch
	default:
		return nil, fmt.Errorf("%w: acrcloud error %d: %s", ErrUnavailable, parsed.Status.Code, parsed.Status.Msg)
	}
	if len(parsed.Metadata.Music) == 0 {
		return nil, ErrNoMatch
	}

	best := parsed.Metadata.Music[0]
	match := &models.TrackMatch{
		Title:    best.Title,
		Provider: a.Name(),
	}
	if len(best.Artists) > 0 {
		match.Subtitle = best.Artists[0].Name
	}
	if id := best.ExternalMetadata.Spotify.Track.ID; id != "" {
		match.SpotifyURL = "https://open.spotify.com/track/" + id
	}
	if vid := best.ExternalMetadata.YouTube.VID; vid != "" {
		match.YouTubeURL = "https://www.youtube.com/watch?v=" + vid
	}

	acrLog.WithField("title", match.Title).WithField("artist", match.Subtitle).Info("ACRCloud match")
	return match, nil
}

// identifyURL accepts a bare host (the documented form) or a full base URL,
// which keeps the adapter testable against a local stub.
func (a *ACRCloud) identifyURL() string {
	if strings.HasPrefix(a.host, "http://") || strings.HasPrefix(a.host, "https://") {
		return a.host + "/v1/identify"
	}
	return "https://" + a.host + "/v1/identify"
}

// sign produces the v1 request signature: base64 HMAC-SHA1 over the fixed
// string-to-sign layout ACRCloud documents.
func (a *ACRCloud) sign(timestamp string) string {
	stringToSign := "POST\n/v1/identify\n" + a.accessKey + "\naudio\n1\n" + timestamp
	mac := hmac.New(sha1.New, []byte(a.secret))
	mac.Write([]byte(stringToSign))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
