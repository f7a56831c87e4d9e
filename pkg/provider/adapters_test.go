package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pastefind/pastefind/internal/models"
	"github.com/pastefind/pastefind/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProvidersConfig() config.ProvidersConfig {
	cfg := config.Default().Providers
	cfg.AudD.APIToken = "test-token"
	cfg.ACRCloud.Host = "identify-test.acrcloud.com"
	cfg.ACRCloud.AccessKey = "test-key"
	cfg.ACRCloud.AccessSecret = "test-secret"
	cfg.YouTube.APIKey = "test-yt-key"
	return cfg
}

func writeTestAsset(t *testing.T) *models.AudioAsset {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp3")
	require.NoError(t, os.WriteFile(path, []byte("fake-audio-bytes"), 0o600))
	return &models.AudioAsset{LocalPath: path, SourceLabel: "upload", CreatedAt: time.Now()}
}

// --- AudD ---

func TestAudDParsesSuccess(t *testing.T) {
	var gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		gotToken = r.FormValue("api_token")
		_, _, err := r.FormFile("file")
		assert.NoError(t, err)

		w.Write([]byte(`{
			"status": "success",
			"result": {
				"artist": "Rick Astley",
				"title": "Never Gonna Give You Up",
				"album": "Whenever You Need Somebody",
				"song_link": "https://lis.tn/abc",
				"spotify": {
					"external_urls": {"spotify": "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC"},
					"album": {"images": [{"url": "https://i.scdn.co/image/cover"}]}
				},
				"apple_music": {
					"url": "https://music.apple.com/us/album/never-gonna-give-you-up/1558533900",
					"artwork": {"url": "https://is1-ssl.mzstatic.com/image/{w}x{h}bb.jpg"}
				}
			}
		}`))
	}))
	defer srv.Close()

	cfg := testProvidersConfig().AudD
	cfg.Endpoint = srv.URL
	adapter := NewAudD(cfg)

	match, err := adapter.Identify(context.Background(), testReq, writeTestAsset(t))
	require.NoError(t, err)

	assert.Equal(t, "test-token", gotToken)
	assert.Equal(t, "Never Gonna Give You Up", match.Title)
	assert.Equal(t, "Rick Astley", match.Subtitle)
	assert.Equal(t, "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC", match.SpotifyURL)
	assert.Equal(t, "https://music.apple.com/us/album/never-gonna-give-you-up/1558533900", match.AppleMusicURL)
	assert.Equal(t, "https://i.scdn.co/image/cover", match.CoverArtURL)
	assert.Equal(t, "audd", match.Provider)
	assert.Empty(t, match.YouTubeURL)
}

func TestAudDNullResultIsNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "success", "result": null}`))
	}))
	defer srv.Close()

	cfg := testProvidersConfig().AudD
	cfg.Endpoint = srv.URL

	_, err := NewAudD(cfg).Identify(context.Background(), testReq, writeTestAsset(t))
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestAudDAPIErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "error", "error": {"error_code": 901, "error_message": "Recognition limit reached"}}`))
	}))
	defer srv.Close()

	cfg := testProvidersConfig().AudD
	cfg.Endpoint = srv.URL

	_, err := NewAudD(cfg).Identify(context.Background(), testReq, writeTestAsset(t))
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestAudDConfigured(t *testing.T) {
	assert.True(t, NewAudD(testProvidersConfig().AudD).Configured())
	assert.False(t, NewAudD(config.AudDConfig{Endpoint: "https://api.audd.io/"}).Configured())
}

func TestAppleArtworkTemplate(t *testing.T) {
	assert.Equal(t,
		"https://is1-ssl.mzstatic.com/image/500x500bb.jpg",
		sizedArtworkURL("https://is1-ssl.mzstatic.com/image/{w}x{h}bb.jpg"))
}

// --- ACRCloud ---

func TestACRCloudParsesBestMatch(t *testing.T) {
	var form map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/identify", r.URL.Path)
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		form = r.MultipartForm.Value

		w.Write([]byte(`{
			"status": {"code": 0, "msg": "Success"},
			"metadata": {
				"music": [
					{
						"title": "Never Gonna Give You Up",
						"artists": [{"name": "Rick Astley"}],
						"album": {"name": "Whenever You Need Somebody"},
						"external_metadata": {
							"spotify": {"track": {"id": "4uLU6hMCjMI75M1A2tKUQC"}},
							"youtube": {"vid": "dQw4w9WgXcQ"}
						}
					},
					{"title": "Wrong Second Match", "artists": [{"name": "Nobody"}]}
				]
			}
		}`))
	}))
	defer srv.Close()

	cfg := testProvidersConfig().ACRCloud
	cfg.Host = srv.URL
	adapter := NewACRCloud(cfg)

	match, err := adapter.Identify(context.Background(), testReq, writeTestAsset(t))
	require.NoError(t, err)

	assert.Equal(t, "Never Gonna Give You Up", match.Title)
	assert.Equal(t, "Rick Astley", match.Subtitle)
	assert.Equal(t, "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC", match.SpotifyURL)
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", match.YouTubeURL)
	assert.Equal(t, "acrcloud", match.Provider)

	require.NotNil(t, form)
	assert.Equal(t, "test-key", form["access_key"][0])
	assert.Equal(t, "audio", form["data_type"][0])
	assert.Equal(t, "1", form["signature_version"][0])
	assert.NotEmpty(t, form["signature"][0])
	assert.Equal(t, "16", form["sample_bytes"][0])
}

func TestACRCloudNoResultCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": {"code": 1001, "msg": "No result"}, "metadata": {}}`))
	}))
	defer srv.Close()

	cfg := testProvidersConfig().ACRCloud
	cfg.Host = srv.URL

	_, err := NewACRCloud(cfg).Identify(context.Background(), testReq, writeTestAsset(t))
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestACRCloudErrorCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": {"code": 3001, "msg": "Missing/Invalid Access Key"}}`))
	}))
	defer srv.Close()

	cfg := testProvidersConfig().ACRCloud
	cfg.Host = srv.URL

	_, err := NewACRCloud(cfg).Identify(context.Background(), testReq, writeTestAsset(t))
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestACRCloudSignatureIsStable(t *testing.T) {
	cfg := testProvidersConfig().ACRCloud
	adapter := NewACRCloud(cfg)

	// HMAC-SHA1 over the documented string-to-sign with a fixed timestamp.
	sig := adapter.sign("1700000000")
	assert.Equal(t, sig, adapter.sign("1700000000"))
	assert.NotEqual(t, sig, adapter.sign("1700000001"))
}

func TestACRCloudConfigured(t *testing.T) {
	assert.True(t, NewACRCloud(testProvidersConfig().ACRCloud).Configured())
	assert.False(t, NewACRCloud(config.ACRCloudConfig{Host: "x"}).Configured())
}

// --- YouTube metadata ---

func ytServer(t *testing.T, snippetJSON string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "snippet", r.URL.Query().Get("part"))
		assert.Equal(t, "test-yt-key", r.URL.Query().Get("key"))
		w.Write([]byte(snippetJSON))
	}))
}

func ytRequest(url string) *models.Request {
	return &models.Request{SourceURL: url}
}

func TestYouTubeMetaParsesArtistTitle(t *testing.T) {
	srv := ytServer(t, `{
		"items": [{"snippet": {
			"title": "Rick Astley - Never Gonna Give You Up (Official Video)",
			"description": "",
			"channelTitle": "Rick Astley",
			"thumbnails": {"high": {"url": "https://i.ytimg.com/vi/dQw4w9WgXcQ/hqdefault.jpg"}}
		}}]
	}`)
	defer srv.Close()

	cfg := testProvidersConfig().YouTube
	cfg.Endpoint = srv.URL
	adapter := NewYouTubeMeta(cfg)

	match, err := adapter.Identify(context.Background(),
		ytRequest("https://www.youtube.com/watch?v=dQw4w9WgXcQ"), nil)
	require.NoError(t, err)

	assert.Equal(t, "Never Gonna Give You Up", match.Title)
	assert.Equal(t, "Rick Astley", match.Subtitle)
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", match.YouTubeURL)
	assert.Equal(t, "https://i.ytimg.com/vi/dQw4w9WgXcQ/hqdefault.jpg", match.CoverArtURL)
	assert.Equal(t, "youtube-metadata", match.Provider)
}

func TestYouTubeMetaFallsBackToDescription(t *testing.T) {
	srv := ytServer(t, `{
		"items": [{"snippet": {
			"title": "my awesome edit",
			"description": "check this out!\nSong: Levitating\nArtist: Dua Lipa\nsubscribe pls",
			"channelTitle": "some editor",
			"thumbnails": {"high": {"url": ""}}
		}}]
	}`)
	defer srv.Close()

	cfg := testProvidersConfig().YouTube
	cfg.Endpoint = srv.URL

	match, err := NewYouTubeMeta(cfg).Identify(context.Background(),
		ytRequest("https://youtu.be/abcdefghijk"), nil)
	require.NoError(t, err)

	assert.Equal(t, "Levitating", match.Title)
	assert.Equal(t, "Dua Lipa", match.Subtitle)
}

func TestYouTubeMetaNoPatternIsNoMatch(t *testing.T) {
	srv := ytServer(t, `{
		"items": [{"snippet": {
			"title": "vlog 37 back home",
			"description": "just a vlog",
			"channelTitle": "vlogger",
			"thumbnails": {"high": {"url": ""}}
		}}]
	}`)
	defer srv.Close()

	cfg := testProvidersConfig().YouTube
	cfg.Endpoint = srv.URL

	_, err := NewYouTubeMeta(cfg).Identify(context.Background(),
		ytRequest("https://youtu.be/abcdefghijk"), nil)
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestYouTubeMetaUnknownVideoIsNoMatch(t *testing.T) {
	srv := ytServer(t, `{"items": []}`)
	defer srv.Close()

	cfg := testProvidersConfig().YouTube
	cfg.Endpoint = srv.URL

	_, err := NewYouTubeMeta(cfg).Identify(context.Background(),
		ytRequest("https://youtu.be/abcdefghijk"), nil)
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestYouTubeMetaSupportsOnlyYouTubeURLs(t *testing.T) {
	adapter := NewYouTubeMeta(testProvidersConfig().YouTube)
	assert.True(t, adapter.Supports(ytRequest("https://www.youtube.com/watch?v=x")))
	assert.False(t, adapter.Supports(ytRequest("https://www.tiktok.com/@u/video/1")))
	assert.False(t, adapter.Supports(&models.Request{Upload: &models.Upload{Extension: "mp3"}}))
}

func TestParseVideoTitle(t *testing.T) {
	tests := []struct {
		in          string
		artist, out string
		ok          bool
	}{
		{"Rick Astley - Never Gonna Give You Up (Official Video)", "Rick Astley", "Never Gonna Give You Up", true},
		{"Dua Lipa – Levitating [Official Music Video]", "Dua Lipa", "Levitating", true},
		{"Artist - Title", "Artist", "Title", true},
		{"no separator here", "", "", false},
	}
	for _, tt := range tests {
		artist, title, ok := parseVideoTitle(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.artist, artist, tt.in)
		assert.Equal(t, tt.out, title, tt.in)
	}
}

func TestChannelArtistStripsTopicSuffix(t *testing.T) {
	assert.Equal(t, "Rick Astley", channelArtist("Rick Astley - Topic"))
	assert.Equal(t, "Rick Astley", channelArtist("Rick Astley"))
}
