// Package provider contains the recognition provider adapters and the
// fallback orchestration across them.
//
// Every adapter has the same contract: audio asset (plus the originating
// request) in, TrackMatch or typed error out. Adapters never panic outward
// and never mutate the asset they are given.
package provider

import (
	"context"
	"errors"

	"github.com/pastefind/pastefind/internal/models"
)

// ErrNoMatch means the provider ran successfully but found nothing. The
// orchestrator advances to the next provider.
var ErrNoMatch = errors.New("no match found")

// ErrUnavailable means the provider could not be consulted at all (outage,
// timeout, rejected credentials). Handled the same as ErrNoMatch by the
// orchestrator, but logged distinctly.
var ErrUnavailable = errors.New("provider unavailable")

// Provider identifies the track in a local audio asset.
type Provider interface {
	// Name returns the provider identifier used in logs and result tags.
	Name() string

	// Configured reports whether the provider has the credentials it needs.
	// Unconfigured providers are skipped without being attempted.
	Configured() bool

	// Supports reports whether the provider can serve this request at all
	// (the metadata heuristic only works for URL-sourced requests).
	Supports(req *models.Request) bool

	// Identify performs a single recognition round trip, bounded by the
	// provider's own timeout.
	Identify(ctx context.Context, req *models.Request, asset *models.AudioAsset) (*models.TrackMatch, error)
}
