// Package acquire turns a platform URL or uploaded file into a local audio
// asset suitable for recognition calls.
package acquire

import (
	"context"
	"os"
	"os/exec"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"github.com/pastefind/pastefind/internal/models"
	"github.com/pastefind/pastefind/pkg/config"
	"github.com/pastefind/pastefind/pkg/logger"
	"github.com/pastefind/pastefind/pkg/platform"
)

var log = logger.WithName("acquire")

// Acquirer fetches and transcodes remote media through yt-dlp.
type Acquirer struct {
	cfg config.AcquireConfig

	// run invokes yt-dlp and returns its stderr; swapped in tests.
	run func(ctx context.Context, args ...string) (string, error)
}

// NewAcquirer creates an acquirer with the given settings.
func NewAcquirer(cfg config.AcquireConfig) *Acquirer {
	return &Acquirer{cfg: cfg, run: runExtraction}
}

func runExtraction(ctx context.Context, args ...string) (string, error) {
	cmd := ytdlp.New().Quiet().NoWarnings()
	res, err := cmd.Run(ctx, args...)
	if res != nil {
		return res.Stderr, err
	}
	return "", err
}

// IsAvailable reports whether the yt-dlp binary can be found.
func (a *Acquirer) IsAvailable() bool {
	_, err := exec.LookPath("yt-dlp")
	return err == nil
}

// Acquire extracts the audio track of a remote URL into the given scope using
// the platform profile's client identity. Transient extraction failures are
// retried up to the configured attempt bound; permanent ones fail at once.
// The whole call, retries included, is bounded by the configured timeout.
func (a *Acquirer) Acquire(ctx context.Context, rawURL string, prof platform.Profile, scope *Scope) (*models.AudioAsset, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout())
	defer cancel()

	outPath := scope.Filename(a.cfg.AudioFormat)
	args := a.extractionArgs(prof, scope)

	entry := log.WithField("platform", prof.Name).WithField("url", rawURL)

	var lastErr *Error
	for attempt := 1; attempt <= a.cfg.Attempts; attempt++ {
		entry.WithField("attempt", attempt).Debug("Running extraction")

		stderr, err := a.run(ctx, append(args, rawURL)...)
		if err == nil {
			if _, statErr := os.Stat(outPath); statErr != nil {
				// Treated like any other transient failure: retry
				// until the attempt bound is spent.
				lastErr = &Error{Kind: FailureTransient, Msg: "extraction finished but produced no audio file", Err: statErr}
				entry.WithField("attempt", attempt).Warn("Extraction produced no audio file, may retry")
				continue
			}
			entry.WithField("path", outPath).Info("Audio acquired")
			return &models.AudioAsset{
				LocalPath:   outPath,
				SourceLabel: "yt-dlp",
				CreatedAt:   time.Now(),
			}, nil
		}

		if ctx.Err() != nil {
			return nil, &Error{Kind: FailureTransient, Msg: "extraction cancelled", Err: ctx.Err()}
		}

		kind := classifyExtraction(stderr)
		lastErr = &Error{Kind: kind, Msg: "yt-dlp extraction failed", Err: err}

		if kind == FailurePermanent {
			entry.WithError(err).Warn("Extraction failed permanently")
			return nil, lastErr
		}
		entry.WithError(err).WithField("attempt", attempt).Warn("Extraction failed, may retry")
	}

	return nil, lastErr
}

// extractionArgs builds the yt-dlp argument list for one profile. Flags are
// passed raw so the exact invocation is visible in one place.
func (a *Acquirer) extractionArgs(prof platform.Profile, scope *Scope) []string {
	args := []string{
		"--no-playlist",
		"--socket-timeout", "15",
		"--retries", "1",
		"-x",
		"--audio-format", a.cfg.AudioFormat,
		"--audio-quality", a.cfg.Bitrate,
		"-f", prof.FormatPreference,
		"-o", scope.OutputTemplate(),
	}
	if prof.UserAgent != "" {
		args = append(args, "--user-agent", prof.UserAgent)
	}
	for key, value := range prof.Headers {
		args = append(args, "--add-headers", key+":"+value)
	}
	if prof.ClientHint != "" {
		args = append(args, "--extractor-args", prof.ClientHint)
	}
	return args
}
