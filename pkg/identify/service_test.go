package identify

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/pastefind/pastefind/internal/models"
	"github.com/pastefind/pastefind/pkg/acquire"
	"github.com/pastefind/pastefind/pkg/config"
	"github.com/pastefind/pastefind/pkg/platform"
	"github.com/pastefind/pastefind/pkg/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAcquirer writes a fake asset into the scope, or fails. When ready is
// set, the asset path is delivered on it once the file exists.
type stubAcquirer struct {
	err   error
	ready chan string

	gotURL      string
	gotPlatform string
	assetPath   string
}

func (s *stubAcquirer) Acquire(_ context.Context, rawURL string, prof platform.Profile, scope *acquire.Scope) (*models.AudioAsset, error) {
	s.gotURL = rawURL
	s.gotPlatform = prof.Name
	if s.err != nil {
		return nil, s.err
	}
	s.assetPath = scope.Filename("mp3")
	if err := os.WriteFile(s.assetPath, []byte("audio"), 0o600); err != nil {
		return nil, err
	}
	if s.ready != nil {
		s.ready <- s.assetPath
	}
	return &models.AudioAsset{LocalPath: s.assetPath, SourceLabel: "yt-dlp", CreatedAt: time.Now()}, nil
}

// stubChain returns a fixed match or error, optionally blocking until the
// context is cancelled.
type stubChain struct {
	match *models.TrackMatch
	err   error
	slow  bool

	sawAssetPath string
	assetExisted bool
}

func (s *stubChain) Identify(ctx context.Context, _ *models.Request, asset *models.AudioAsset) (*models.TrackMatch, error) {
	if asset != nil {
		s.sawAssetPath = asset.LocalPath
		_, statErr := os.Stat(asset.LocalPath)
		s.assetExisted = statErr == nil
	}
	if s.slow {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.match, s.err
}

func testService(t *testing.T, acq *stubAcquirer, chain *stubChain) *Service {
	t.Helper()
	cfg := config.Default().Acquire
	cfg.TempDir = t.TempDir()
	return NewServiceWith(cfg, acq, chain)
}

func urlRequest() *models.Request {
	return &models.Request{SourceURL: "https://video.example/watch?id=abc&fbclid=xyz"}
}

func TestIdentifyEndToEndSuccess(t *testing.T) {
	acq := &stubAcquirer{}
	chain := &stubChain{match: &models.TrackMatch{
		Title:    "Rick Astley",
		Subtitle: "Never Gonna Give You Up",
		Provider: "audd",
	}}
	svc := testService(t, acq, chain)

	resp, err := svc.Identify(context.Background(), urlRequest())
	require.NoError(t, err)

	assert.Equal(t, "Rick Astley", resp.Title)
	assert.Equal(t, "Never Gonna Give You Up", resp.Subtitle)
	assert.Empty(t, resp.Error)

	// Tracking parameter stripped before acquisition.
	assert.Equal(t, "https://video.example/watch?id=abc", acq.gotURL)

	// The provider saw a real file; it is gone once the request completes.
	assert.True(t, chain.assetExisted)
	assert.NoFileExists(t, chain.sawAssetPath)
}

func TestIdentifyAllProvidersFailed(t *testing.T) {
	acq := &stubAcquirer{}
	chain := &stubChain{err: provider.ErrAllProvidersFailed}
	svc := testService(t, acq, chain)

	resp, err := svc.Identify(context.Background(), urlRequest())
	require.Error(t, err)

	var pipeErr *Error
	require.ErrorAs(t, err, &pipeErr)
	assert.Equal(t, KindNoMatch, pipeErr.Kind)

	assert.Equal(t, "no match found for this audio", resp.Error)
	assert.Empty(t, resp.Title)
	assert.Empty(t, resp.SpotifyURL)
	assert.NoFileExists(t, acq.assetPath)
}

func TestIdentifyAcquisitionFailure(t *testing.T) {
	acq := &stubAcquirer{err: &acquire.Error{Kind: acquire.FailurePermanent, Msg: "private video"}}
	chain := &stubChain{}
	svc := testService(t, acq, chain)

	resp, err := svc.Identify(context.Background(), urlRequest())
	require.Error(t, err)

	var pipeErr *Error
	require.ErrorAs(t, err, &pipeErr)
	assert.Equal(t, KindAcquisitionFailed, pipeErr.Kind)
	assert.Equal(t, "could not retrieve audio from this link", resp.Error)
	// The raw yt-dlp detail never reaches the caller.
	assert.NotContains(t, resp.Error, "private video")
}

func TestIdentifyUploadPath(t *testing.T) {
	chain := &stubChain{match: &models.TrackMatch{Title: "Song", Subtitle: "Artist", Provider: "acrcloud"}}
	svc := testService(t, &stubAcquirer{}, chain)

	req := &models.Request{Upload: &models.Upload{Bytes: []byte("clip-bytes"), Extension: "m4a"}}
	resp, err := svc.Identify(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "Song", resp.Title)
	assert.True(t, chain.assetExisted)
	assert.NoFileExists(t, chain.sawAssetPath)
}

func TestIdentifyRejectsBadUploadExtensionBeforeDisk(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default().Acquire
	cfg.TempDir = dir
	svc := NewServiceWith(cfg, &stubAcquirer{}, &stubChain{})

	req := &models.Request{Upload: &models.Upload{Bytes: []byte("x"), Extension: "exe"}}
	resp, err := svc.Identify(context.Background(), req)
	require.Error(t, err)

	var pipeErr *Error
	require.ErrorAs(t, err, &pipeErr)
	assert.Equal(t, KindInvalidInput, pipeErr.Kind)
	assert.NotEmpty(t, resp.Error)

	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestIdentifyValidation(t *testing.T) {
	svc := testService(t, &stubAcquirer{}, &stubChain{})

	cases := []*models.Request{
		{}, // neither
		{SourceURL: "https://a.example/x", Upload: &models.Upload{Extension: "mp3"}}, // both
		{SourceURL: "ftp://a.example/x"},
		{SourceURL: "not a url"},
	}
	for _, req := range cases {
		resp, err := svc.Identify(context.Background(), req)
		require.Error(t, err)
		var pipeErr *Error
		require.ErrorAs(t, err, &pipeErr)
		assert.Equal(t, KindInvalidInput, pipeErr.Kind)
		assert.NotEmpty(t, resp.Error)
	}
}

func TestIdentifyCancellationCleansUpAsset(t *testing.T) {
	acq := &stubAcquirer{ready: make(chan string, 1)}
	chain := &stubChain{slow: true}
	svc := testService(t, acq, chain)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := svc.Identify(ctx, urlRequest())
		assert.Error(t, err)
	}()

	// Wait for acquisition to produce the asset; the slow provider is now
	// blocking on the context.
	var assetPath string
	select {
	case assetPath = <-acq.ready:
	case <-time.After(time.Second):
		t.Fatal("acquisition never produced an asset")
	}

	cancel()
	<-done

	assert.NoFileExists(t, assetPath)
}
